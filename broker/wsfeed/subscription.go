package wsfeed

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// subscriptionRequest represents the JSON-RPC request for subscribing.
type subscriptionRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int    `json:"id"`
	Params  struct {
		Query string `json:"query"`
	} `json:"params"`
}

// --- Structures to parse the WS response ---

// wsData holds the type and value returned.
type wsData struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// wsResult holds the result object.
type wsResult struct {
	Query string `json:"query"`
	Data  wsData `json:"data"`
}

// claimEvent carries the attributes of one locally-computed claim.
type claimEvent struct {
	DApp   common.Address `json:"claim.dapp"`
	Number uint64         `json:"claim.number"`
	Hash   common.Hash    `json:"claim.hash"`
}

// wsResponseClaim is the top-level response structure for claim events.
type wsResponseClaim struct {
	JSONRPC    string     `json:"jsonrpc"`
	ID         int        `json:"id"`
	Result     wsResult   `json:"result"`
	ClaimEvent claimEvent `json:"events"`
}
