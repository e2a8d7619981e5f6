package dispatcher_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/statefold/rollups-dispatcher/dispatcher"
	"github.com/statefold/rollups-dispatcher/history"
	"github.com/statefold/rollups-dispatcher/tests/mocks"
	"github.com/statefold/rollups-dispatcher/types"
)

var (
	dappA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	dappB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// countingSender checks the linear capability contract: every Send spends
// the receiver and hands back a fresh successor, recording the submitted
// hash on a shared tally.
type countingSender struct {
	sent  *[]common.Hash
	spent bool
}

func newCountingSender() *countingSender {
	return &countingSender{sent: new([]common.Hash)}
}

func (s *countingSender) Send(_ context.Context, claimHash common.Hash) (dispatcher.Sender, error) {
	if s.spent {
		return nil, errors.New("sender value reused after send")
	}

	s.spent = true
	*s.sent = append(*s.sent, claimHash)

	return &countingSender{sent: s.sent}, nil
}

// claimHashFor derives a deterministic hash for a claim number so order
// assertions can name claims by number.
func claimHashFor(number uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(number))
}

func confirmedClaims(n uint64) []types.Claim {
	claims := make([]types.Claim, 0, n)
	for number := uint64(1); number <= n; number++ {
		claims = append(claims, types.Claim{Number: number, Hash: claimHashFor(number)})
	}

	return claims
}

// expectFeed wires a mock feed yielding the given claim numbers in order,
// then the end-of-data signal.
func expectFeed(feed *mocks.MockClaimFeed, numbers []uint64) {
	calls := make([]any, 0, len(numbers)+1)
	for _, number := range numbers {
		claim := &types.Claim{Number: number, Hash: claimHashFor(number)}
		calls = append(calls, feed.EXPECT().NextClaim(gomock.Any()).Return(claim, nil))
	}

	calls = append(calls, feed.EXPECT().NextClaim(gomock.Any()).Return(nil, nil))
	gomock.InOrder(calls...)
}

func runReconcile(t *testing.T, confirmed uint64, feedNumbers []uint64) []common.Hash {
	t.Helper()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feed := mocks.NewMockClaimFeed(ctrl)
	expectFeed(feed, feedNumbers)

	snapshot := history.NewSnapshot(map[common.Address][]types.Claim{
		dappA: confirmedClaims(confirmed),
		dappB: confirmedClaims(2),
	})

	sender := newCountingSender()
	driver := dispatcher.NewDriver(dappA)

	returned, err := driver.Reconcile(context.Background(), snapshot, feed, sender)
	require.NoError(t, err)
	require.NotNil(t, returned)

	return *sender.sent
}

func TestReconcileEmptyFeed(t *testing.T) {
	sent := runReconcile(t, 0, nil)
	assert.Empty(t, sent)
}

func TestReconcileEmptyFeedReturnsSenderUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feed := mocks.NewMockClaimFeed(ctrl)
	expectFeed(feed, nil)

	snapshot := history.NewSnapshot(nil)
	sender := newCountingSender()

	returned, err := dispatcher.NewDriver(dappA).Reconcile(context.Background(), snapshot, feed, sender)
	require.NoError(t, err)
	assert.Same(t, sender, returned)
}

func TestReconcileOneNewClaim(t *testing.T) {
	sent := runReconcile(t, 5, []uint64{6})
	assert.Equal(t, []common.Hash{claimHashFor(6)}, sent)
}

func TestReconcileOneOldClaim(t *testing.T) {
	sent := runReconcile(t, 5, []uint64{5})
	assert.Empty(t, sent)
}

func TestReconcileAllClaimsConfirmed(t *testing.T) {
	sent := runReconcile(t, 5, []uint64{1, 2, 3, 4, 5})
	assert.Empty(t, sent)
}

func TestReconcileOldAndNewClaim(t *testing.T) {
	sent := runReconcile(t, 5, []uint64{5, 6})
	assert.Equal(t, []common.Hash{claimHashFor(6)}, sent)
}

func TestReconcileInterleavedOldNewClaims(t *testing.T) {
	sent := runReconcile(t, 5, []uint64{1, 5, 6, 2, 3, 7, 8, 4, 5, 9, 10})

	want := []common.Hash{
		claimHashFor(6), claimHashFor(7), claimHashFor(8),
		claimHashFor(9), claimHashFor(10),
	}
	assert.Equal(t, want, sent)
}

func TestReconcileUnknownDappThresholdZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feed := mocks.NewMockClaimFeed(ctrl)
	expectFeed(feed, []uint64{1, 2})

	// Snapshot confirms claims only for another dapp.
	snapshot := history.NewSnapshot(map[common.Address][]types.Claim{
		dappB: confirmedClaims(4),
	})

	sender := newCountingSender()

	_, err := dispatcher.NewDriver(dappA).Reconcile(context.Background(), snapshot, feed, sender)
	require.NoError(t, err)
	assert.Len(t, *sender.sent, 2)
}

func TestReconcileSecondPassResubmitsNothing(t *testing.T) {
	numbers := []uint64{1, 5, 6, 2, 3, 7, 8, 4, 5, 9, 10}

	sent := runReconcile(t, 5, numbers)
	require.Len(t, sent, 5)

	// A snapshot reflecting the first pass covers every submitted claim.
	sent = runReconcile(t, 10, numbers)
	assert.Empty(t, sent)
}

func TestReconcileFeedErrorAbortsPass(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feedErr := errors.New("broker unavailable")
	feed := mocks.NewMockClaimFeed(ctrl)
	gomock.InOrder(
		feed.EXPECT().NextClaim(gomock.Any()).Return(&types.Claim{Number: 6, Hash: claimHashFor(6)}, nil),
		feed.EXPECT().NextClaim(gomock.Any()).Return(nil, feedErr),
	)

	snapshot := history.NewSnapshot(map[common.Address][]types.Claim{dappA: confirmedClaims(5)})
	sender := newCountingSender()

	returned, err := dispatcher.NewDriver(dappA).Reconcile(context.Background(), snapshot, feed, sender)
	require.ErrorIs(t, err, feedErr)
	assert.Nil(t, returned)

	// The submission performed before the error is not undone.
	assert.Equal(t, []common.Hash{claimHashFor(6)}, *sender.sent)
}

func TestReconcileSubmissionErrorAbortsPass(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feed := mocks.NewMockClaimFeed(ctrl)
	feed.EXPECT().NextClaim(gomock.Any()).Return(&types.Claim{Number: 6, Hash: claimHashFor(6)}, nil)

	sendErr := errors.New("insufficient funds")
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), claimHashFor(6)).Return(nil, sendErr)

	snapshot := history.NewSnapshot(map[common.Address][]types.Claim{dappA: confirmedClaims(5)})

	returned, err := dispatcher.NewDriver(dappA).Reconcile(context.Background(), snapshot, feed, sender)
	require.ErrorIs(t, err, sendErr)
	assert.Nil(t, returned)
}

func TestReconcileThreadsSenderLinearly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feed := mocks.NewMockClaimFeed(ctrl)
	expectFeed(feed, []uint64{6, 7})

	first := mocks.NewMockSender(ctrl)
	second := mocks.NewMockSender(ctrl)
	third := mocks.NewMockSender(ctrl)

	// Each submission must go to the value returned by the previous one.
	first.EXPECT().Send(gomock.Any(), claimHashFor(6)).Return(second, nil)
	second.EXPECT().Send(gomock.Any(), claimHashFor(7)).Return(third, nil)

	snapshot := history.NewSnapshot(map[common.Address][]types.Claim{dappA: confirmedClaims(5)})

	returned, err := dispatcher.NewDriver(dappA).Reconcile(context.Background(), snapshot, feed, first)
	require.NoError(t, err)
	assert.Same(t, third, returned)
}
