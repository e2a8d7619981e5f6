package levelfeed

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/statefold/rollups-dispatcher/types"
)

var testDapp = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func testClaim(number uint64) types.Claim {
	return types.Claim{Number: number, Hash: common.BytesToHash([]byte{byte(number)})}
}

func TestQueueEnqueueAndDrain(t *testing.T) {
	q, err := OpenInMemory(testDapp)
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Enqueue(testClaim(1), testClaim(2), testClaim(3)))
	assert.Equal(t, uint64(3), q.Pending())

	ctx := context.Background()

	for number := uint64(1); number <= 3; number++ {
		claim, err := q.NextClaim(ctx)
		require.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, number, claim.Number)
		assert.Equal(t, testClaim(number).Hash, claim.Hash)
	}

	// Drained: no claim, no error.
	claim, err := q.NextClaim(ctx)
	require.NoError(t, err)
	assert.Nil(t, claim)
	assert.Equal(t, uint64(0), q.Pending())
}

func TestQueuePollableAfterDrain(t *testing.T) {
	q, err := OpenInMemory(testDapp)
	require.NoError(t, err)
	defer q.Close()

	ctx := context.Background()

	claim, err := q.NextClaim(ctx)
	require.NoError(t, err)
	require.Nil(t, claim)

	// Claims arriving after a drained poll are picked up by a later pass.
	require.NoError(t, q.Enqueue(testClaim(1)))

	claim, err = q.NextClaim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, uint64(1), claim.Number)
}

func TestQueueRejectsGapsAndDuplicates(t *testing.T) {
	q, err := OpenInMemory(testDapp)
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Enqueue(testClaim(1)))

	assert.ErrorIs(t, q.Enqueue(testClaim(1)), errClaimExists)
	assert.ErrorIs(t, q.Enqueue(testClaim(3)), errClaimNotDense)

	// A rejected batch must not be partially applied.
	assert.Error(t, q.Enqueue(testClaim(2), testClaim(4)))
	assert.NoError(t, q.Enqueue(testClaim(2)))
}

func TestQueueReopenReoffersClaims(t *testing.T) {
	stor := storage.NewMemStorage()

	db, err := leveldb.Open(stor, nil)
	require.NoError(t, err)

	q, err := newQueue(db, testDapp)
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, q.Enqueue(testClaim(1), testClaim(2)))

	claim, err := q.NextClaim(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), claim.Number)

	require.NoError(t, q.Close())

	// A restarted process rewinds to the retained head and re-offers
	// everything; the reconciliation threshold filters confirmed claims.
	db, err = leveldb.Open(stor, nil)
	require.NoError(t, err)

	q, err = newQueue(db, testDapp)
	require.NoError(t, err)
	defer q.Close()

	claim, err = q.NextClaim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, uint64(1), claim.Number)
	assert.Equal(t, uint64(1), q.Pending())
}

func TestQueueTrim(t *testing.T) {
	stor := storage.NewMemStorage()

	db, err := leveldb.Open(stor, nil)
	require.NoError(t, err)

	q, err := newQueue(db, testDapp)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(testClaim(1), testClaim(2), testClaim(3)))
	require.NoError(t, q.Trim(2))

	ctx := context.Background()

	claim, err := q.NextClaim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, uint64(3), claim.Number)

	require.NoError(t, q.Close())

	// Trimmed claims stay gone across restarts; numbering continues from
	// the retained tail.
	db, err = leveldb.Open(stor, nil)
	require.NoError(t, err)

	q, err = newQueue(db, testDapp)
	require.NoError(t, err)
	defer q.Close()

	claim, err = q.NextClaim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, uint64(3), claim.Number)

	require.NoError(t, q.Enqueue(testClaim(4)))
}

func TestQueueClosed(t *testing.T) {
	q, err := OpenInMemory(testDapp)
	require.NoError(t, err)
	require.NoError(t, q.Close())

	_, err = q.NextClaim(context.Background())
	assert.ErrorIs(t, err, errQueueClosed)
	assert.ErrorIs(t, q.Enqueue(testClaim(1)), errQueueClosed)
	assert.NoError(t, q.Close())
}

func TestQueueContextCancelled(t *testing.T) {
	q, err := OpenInMemory(testDapp)
	require.NoError(t, err)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = q.NextClaim(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
