// Package levelfeed implements a durable local claim queue on top of
// goleveldb. The claim producer appends claims on one side; the dispatcher
// drains them as a feed on the other. Consumption is deliberately not
// persisted: a restarted process re-offers every retained claim and relies
// on the reconciliation threshold to skip the confirmed ones.
package levelfeed

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/statefold/rollups-dispatcher/dispatcher"
	"github.com/statefold/rollups-dispatcher/types"
)

var (
	errQueueClosed   = errors.New("claim queue is closed")
	errClaimExists   = errors.New("claim number already enqueued")
	errClaimNotDense = errors.New("claim number leaves a gap in the queue")
)

// Ensure Queue implements the dispatcher.ClaimFeed interface
var _ dispatcher.ClaimFeed = (*Queue)(nil)

var claimKeyPrefix = []byte("claim/")

// Queue is a leveldb-backed claim queue for one dapp.
type Queue struct {
	db   *leveldb.DB
	dapp common.Address

	// cursor is the number of the next claim to yield in this process;
	// it rewinds to head on restart so unconfirmed claims are re-offered.
	cursor uint64
	// head is the lowest retained claim number, tail the number the next
	// enqueued claim must carry. Dense numbering is enforced on enqueue.
	head uint64
	tail uint64

	mu     sync.Mutex
	closed bool

	logger log.Logger // Contextual logger
}

// Open opens (or creates) a claim queue at the given path.
func Open(path string, dapp common.Address) (*Queue, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open claim queue at %s: %w", path, err)
	}

	return newQueue(db, dapp)
}

// OpenInMemory opens an ephemeral claim queue backed by memory storage.
func OpenInMemory(dapp common.Address) (*Queue, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return newQueue(db, dapp)
}

func newQueue(db *leveldb.DB, dapp common.Address) (*Queue, error) {
	q := &Queue{
		db:     db,
		dapp:   dapp,
		logger: log.New("dapp", dapp),
	}

	// Recover head and tail from the retained claim range. Numbers start
	// at one for an empty queue.
	head, tail := uint64(1), uint64(1)

	iter := db.NewIterator(util.BytesPrefix(dappPrefix(dapp)), nil)
	if iter.First() {
		head = claimNumber(iter.Key())
		iter.Last()
		tail = claimNumber(iter.Key()) + 1
	}

	iter.Release()

	if err := iter.Error(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to recover claim queue bounds: %w", err)
	}

	q.head = head
	q.cursor = head
	q.tail = tail
	q.logger.Debug("Opened claim queue", "head", q.head, "tail", q.tail)

	return q, nil
}

// Enqueue appends claims to the queue atomically. Claims must carry the
// next dense numbers; a gap or a duplicate rejects the whole batch.
func (q *Queue) Enqueue(claims ...types.Claim) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errQueueClosed
	}

	batch := new(leveldb.Batch)
	next := q.tail

	for _, claim := range claims {
		switch {
		case claim.Number < next:
			return fmt.Errorf("%w: %d", errClaimExists, claim.Number)
		case claim.Number > next:
			return fmt.Errorf("%w: got %d, want %d", errClaimNotDense, claim.Number, next)
		}

		batch.Put(claimKey(q.dapp, claim.Number), claim.Hash.Bytes())
		next++
	}

	if err := q.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to enqueue claims: %w", err)
	}

	q.tail = next

	return nil
}

// NextClaim yields the claim at the cursor and advances it, or returns
// (nil, nil) once the currently-retained claims are drained. The cursor is
// process-local, so a claim is yielded at most once per process lifetime
// but offered again after a restart.
func (q *Queue) NextClaim(ctx context.Context) (*types.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, errQueueClosed
	}

	value, err := q.db.Get(claimKey(q.dapp, q.cursor), nil)
	if errors.Is(err, ldberrors.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read claim %d: %w", q.cursor, err)
	}

	claim := &types.Claim{
		Number: q.cursor,
		Hash:   common.BytesToHash(value),
	}
	q.cursor++

	return claim, nil
}

// Trim deletes retained claims numbered at or below upTo. Producers prune
// with the confirmed count of a fresh history snapshot; trimming never
// touches claims the cursor has not reached when they are still pending.
func (q *Queue) Trim(upTo uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errQueueClosed
	}

	batch := new(leveldb.Batch)

	for number := q.head; number <= upTo && number < q.tail; number++ {
		batch.Delete(claimKey(q.dapp, number))
	}

	if err := q.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to trim claim queue: %w", err)
	}

	if upTo+1 > q.head {
		q.head = upTo + 1
	}

	if q.head > q.tail {
		q.head = q.tail
	}

	if q.cursor < q.head {
		q.cursor = q.head
	}

	return nil
}

// Pending returns the number of claims enqueued but not yet yielded in
// this process.
func (q *Queue) Pending() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.tail - q.cursor
}

// Close flushes and closes the underlying store.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true

	return q.db.Close()
}

func claimKey(dapp common.Address, number uint64) []byte {
	key := dappPrefix(dapp)
	key = binary.BigEndian.AppendUint64(key, number)

	return key
}

func dappPrefix(dapp common.Address) []byte {
	prefix := make([]byte, 0, len(claimKeyPrefix)+common.AddressLength+8)
	prefix = append(prefix, claimKeyPrefix...)
	prefix = append(prefix, dapp.Bytes()...)

	return prefix
}

// claimNumber extracts the claim number from a full claim key.
func claimNumber(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
