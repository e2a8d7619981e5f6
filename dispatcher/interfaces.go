package dispatcher

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/statefold/rollups-dispatcher/history"
	"github.com/statefold/rollups-dispatcher/types"
)

//go:generate mockgen -source=interfaces.go -destination=../tests/mocks/dispatcher.go -package=mocks

// ClaimFeed is an ordered, pull-based source of locally-computed claims
// for one dapp. NextClaim returns (nil, nil) once the currently-available
// data is drained; the feed must remain pollable by a later pass.
type ClaimFeed interface {
	NextClaim(ctx context.Context) (*types.Claim, error)
}

// Sender is the linear transaction-submission capability. Send consumes
// the receiver and returns the successor value; the caller must not use a
// sender value again after passing it to Send. On error the capability is
// spent and no successor is returned.
type Sender interface {
	Send(ctx context.Context, claimHash common.Hash) (Sender, error)
}

// SnapshotSource produces fresh, immutable history snapshots, one per
// reconciliation pass.
type SnapshotSource interface {
	Fold(ctx context.Context) (*history.Snapshot, error)
}
