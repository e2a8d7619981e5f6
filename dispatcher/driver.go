package dispatcher

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/statefold/rollups-dispatcher/history"
)

// Driver reconciles the locally-computed claims of one dapp against the
// confirmed on-chain history, submitting every claim the history does not
// yet reflect. It holds no mutable state and is safe to rebuild per pass.
type Driver struct {
	dapp   common.Address
	logger log.Logger
}

// NewDriver creates a driver for the given dapp address.
func NewDriver(dapp common.Address) *Driver {
	return &Driver{
		dapp:   dapp,
		logger: log.New("dapp", dapp),
	}
}

// Reconcile drains the claim feed and submits, in feed order, every claim
// whose number exceeds the count of claims the snapshot already confirms
// for the driver's dapp. Claims at or below that threshold are skipped.
//
// The sender capability is threaded linearly: each submission consumes the
// held value and replaces it with the one returned. On success the
// (possibly advanced) sender is returned for reuse. On failure the pass
// aborts at the first error, submissions already performed are not undone,
// and the capability must be considered spent; the caller resumes by
// re-running with a fresh snapshot and a fresh sender.
//
// The threshold is computed once at pass start and never advances
// mid-pass; the feed is trusted not to re-offer a claim it already yielded
// within the same pass.
func (d *Driver) Reconcile(ctx context.Context, snapshot *history.Snapshot, feed ClaimFeed, sender Sender) (Sender, error) {
	threshold := snapshot.ConfirmedCount(d.dapp)
	thresholdGauge.Update(int64(threshold))
	d.logger.Trace("Starting reconciliation pass", "confirmed", threshold)

	for {
		claim, err := feed.NextClaim(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch next claim: %w", err)
		}

		if claim == nil {
			// Feed drained, pass complete.
			return sender, nil
		}

		if claim.Number <= threshold {
			claimsSkippedCounter.Inc(1)
			d.logger.Trace("Skipping confirmed claim", "number", claim.Number, "hash", claim.Hash)

			continue
		}

		d.logger.Info("Submitting claim", "number", claim.Number, "hash", claim.Hash)

		sender, err = sender.Send(ctx, claim.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to submit claim %d: %w", claim.Number, err)
		}

		claimsSubmittedCounter.Inc(1)
	}
}
