package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
)

// SenderFactory builds a fresh submission capability. The service invokes
// it at startup and again whenever a failed pass spends the held one.
type SenderFactory func(ctx context.Context) (Sender, error)

// Service schedules reconciliation passes on a fixed interval, carrying
// the advanced sender capability from one pass into the next. Pass errors
// are logged and retried on the next tick; correctness is re-derived from
// a fresh snapshot each pass, so no recovery bookkeeping is needed.
type Service struct {
	driver    *Driver
	source    SnapshotSource
	feed      ClaimFeed
	newSender SenderFactory
	interval  time.Duration

	logger log.Logger
}

// NewService wires a pass scheduler around the given driver and
// collaborators.
func NewService(driver *Driver, source SnapshotSource, feed ClaimFeed, newSender SenderFactory, interval time.Duration) *Service {
	return &Service{
		driver:    driver,
		source:    source,
		feed:      feed,
		newSender: newSender,
		interval:  interval,
		logger:    log.New("dapp", driver.dapp),
	}
}

// Run executes passes until the context is cancelled. The first pass runs
// immediately, subsequent ones on every interval tick.
func (s *Service) Run(ctx context.Context) error {
	sender, err := s.newSender(ctx)
	if err != nil {
		return fmt.Errorf("failed to build initial sender: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		sender = s.runPass(ctx, sender)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runPass folds a fresh snapshot and reconciles once, returning the sender
// to carry into the next pass. A nil return means the capability was spent
// by a failure; a replacement is built lazily at the start of the next
// pass so a flapping chain endpoint does not tight-loop key reloads.
func (s *Service) runPass(ctx context.Context, sender Sender) Sender {
	logger := s.logger.New("pass", uuid.NewString())
	passCounter.Inc(1)

	if sender == nil {
		fresh, err := s.newSender(ctx)
		if err != nil {
			passErrorCounter.Inc(1)
			logger.Error("Failed to rebuild sender", "err", err)

			return nil
		}

		sender = fresh
	}

	snapshot, err := s.source.Fold(ctx)
	if err != nil {
		passErrorCounter.Inc(1)
		logger.Error("Failed to fold history snapshot", "err", err)

		return sender
	}

	next, err := s.driver.Reconcile(ctx, snapshot, s.feed, sender)
	if err != nil {
		passErrorCounter.Inc(1)
		logger.Error("Reconciliation pass aborted", "err", err)

		// The capability is spent on a failed pass.
		return nil
	}

	return next
}
