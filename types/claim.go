package types

import "github.com/ethereum/go-ethereum/common"

// Claim represents a locally-computed rollup state claim for a dapp.
type Claim struct {
	// Number orders the claims of a dapp. A claim is confirmed once the
	// on-chain history records at least Number claims for the dapp.
	// Feeds are expected to number claims densely and in order relative
	// to the confirmed history.
	Number uint64

	// Hash is the opaque content identifier of the claim. It is the
	// payload submitted on-chain.
	Hash common.Hash
}
