package history

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/statefold/rollups-dispatcher/types"
)

var (
	foldCounter          = metrics.NewRegisteredCounter("dispatcher/history/folds", nil)
	confirmedClaimsGauge = metrics.NewRegisteredGauge("dispatcher/history/claims/confirmed", nil)
)

const historyContractABIJSON = `[{"type":"event","name":"ClaimSubmitted","inputs":[{"name":"dapp","type":"address","indexed":true},{"name":"claimHash","type":"bytes32","indexed":false}],"anonymous":false}]`

var (
	historyContractABI  abi.ABI
	claimSubmittedTopic common.Hash
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(historyContractABIJSON))
	if err != nil {
		panic(err)
	}

	historyContractABI = parsed
	claimSubmittedTopic = parsed.Events["ClaimSubmitted"].ID
}

// interface for testability
//
//go:generate mockgen -source=folder.go -destination=../tests/mocks/history.go -package=mocks
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
}

// Folder builds history snapshots by folding the ClaimSubmitted logs of
// the history contract. An ethclient satisfies the backend interface.
type Folder struct {
	backend    LogFilterer
	contract   common.Address
	startBlock uint64

	logger log.Logger
}

// NewFolder creates a folder reading logs of the given history contract,
// starting from startBlock (the contract deployment block).
func NewFolder(backend LogFilterer, contract common.Address, startBlock uint64) *Folder {
	return &Folder{
		backend:    backend,
		contract:   contract,
		startBlock: startBlock,
		logger:     log.New("contract", contract),
	}
}

// Fold queries all ClaimSubmitted logs and assembles an immutable snapshot
// of confirmed claims per dapp, numbered in confirmation order.
func (f *Folder) Fold(ctx context.Context) (*Snapshot, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(f.startBlock),
		Addresses: []common.Address{f.contract},
		Topics:    [][]common.Hash{{claimSubmittedTopic}},
	}

	logs, err := f.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter history logs: %w", err)
	}

	snapshot, total, err := foldLogs(logs)
	if err != nil {
		return nil, err
	}

	foldCounter.Inc(1)
	confirmedClaimsGauge.Update(total)
	f.logger.Debug("Folded history snapshot", "logs", len(logs), "claims", total)

	return snapshot, nil
}

// foldLogs accumulates ClaimSubmitted logs, in the order the backend
// returned them, into per-dapp claim lists. Removed (reorged) logs are
// skipped.
func foldLogs(logs []ethtypes.Log) (*Snapshot, int64, error) {
	dappClaims := make(map[common.Address][]types.Claim)

	var total int64

	for _, lg := range logs {
		if lg.Removed {
			continue
		}

		if len(lg.Topics) != 2 {
			return nil, 0, fmt.Errorf("malformed ClaimSubmitted log in tx %s: %d topics", lg.TxHash, len(lg.Topics))
		}

		values, err := historyContractABI.Unpack("ClaimSubmitted", lg.Data)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to unpack ClaimSubmitted log in tx %s: %w", lg.TxHash, err)
		}

		dapp := common.BytesToAddress(lg.Topics[1].Bytes())
		claim := types.Claim{
			Number: uint64(len(dappClaims[dapp])) + 1,
			Hash:   common.Hash(values[0].([32]byte)),
		}
		dappClaims[dapp] = append(dappClaims[dapp], claim)
		total++
	}

	return NewSnapshot(dappClaims), total, nil
}
