package history

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/statefold/rollups-dispatcher/types"
)

// Snapshot is an immutable, point-in-time view of the claims already
// confirmed on-chain, keyed by dapp address. It is constructed once per
// fold and never mutated; it may be shared freely across readers.
type Snapshot struct {
	dappClaims map[common.Address][]types.Claim
}

// NewSnapshot builds a snapshot from the given per-dapp claim lists. The
// input is copied, later mutation of the argument does not affect the
// snapshot.
func NewSnapshot(dappClaims map[common.Address][]types.Claim) *Snapshot {
	copied := make(map[common.Address][]types.Claim, len(dappClaims))
	for dapp, claims := range dappClaims {
		list := make([]types.Claim, len(claims))
		copy(list, claims)
		copied[dapp] = list
	}

	return &Snapshot{dappClaims: copied}
}

// ConfirmedCount returns the number of claims already confirmed for the
// given dapp, or 0 if the snapshot has no entry for it. The count doubles
// as the next expected claim number.
func (s *Snapshot) ConfirmedCount(dapp common.Address) uint64 {
	return uint64(len(s.dappClaims[dapp]))
}

// Claims returns a copy of the confirmed claims for the given dapp, in
// confirmation order.
func (s *Snapshot) Claims(dapp common.Address) []types.Claim {
	claims, ok := s.dappClaims[dapp]
	if !ok {
		return nil
	}

	list := make([]types.Claim, len(claims))
	copy(list, claims)

	return list
}
