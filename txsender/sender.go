// Package txsender publishes claims to the history contract. The sender is
// a linear capability: every Send consumes the receiver and returns a
// successor carrying the advanced nonce, so submissions are sequenced by
// construction rather than by shared mutable state.
package txsender

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/statefold/rollups-dispatcher/dispatcher"
)

var (
	ErrSenderSpent = errors.New("sender capability already spent")
	ErrTxReverted  = errors.New("claim submission reverted")
)

var submissionTimer = metrics.NewRegisteredTimer("dispatcher/txsender/submission", nil)

const submitClaimABIJSON = `[{"type":"function","name":"submitClaim","stateMutability":"nonpayable","inputs":[{"name":"dapp","type":"address"},{"name":"claimHash","type":"bytes32"}],"outputs":[]}]`

const (
	submitGasLimit     = 200_000
	receiptPollBackoff = time.Second
)

var submitClaimABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(submitClaimABIJSON))
	if err != nil {
		panic(err)
	}

	submitClaimABI = parsed
}

// Backend is the narrow chain-client surface the sender needs. An
// ethclient satisfies it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// Sender submits claims for one dapp to the history contract.
type Sender struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int

	history common.Address
	dapp    common.Address

	nonce uint64
	spent bool

	logger log.Logger
}

// Ensure Sender implements the dispatcher.Sender interface
var _ dispatcher.Sender = (*Sender)(nil)

// New builds the first sender value of a chain, resolving the account's
// pending nonce from the backend.
func New(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, chainID *big.Int, history, dapp common.Address) (*Sender, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pending nonce for %s: %w", from, err)
	}

	return &Sender{
		backend: backend,
		key:     key,
		from:    from,
		chainID: chainID,
		history: history,
		dapp:    dapp,
		nonce:   nonce,
		logger:  log.New("dapp", dapp, "from", from),
	}, nil
}

// Send signs and broadcasts a submitClaim transaction for the given claim
// hash, waits until it is mined and returns the successor sender holding
// the next nonce. The receiver is spent whether or not the submission
// succeeds; reusing it returns ErrSenderSpent.
func (s *Sender) Send(ctx context.Context, claimHash common.Hash) (dispatcher.Sender, error) {
	if s.spent {
		return nil, ErrSenderSpent
	}

	s.spent = true
	start := time.Now()

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	data, err := submitClaimABI.Pack("submitClaim", s.dapp, claimHash)
	if err != nil {
		return nil, fmt.Errorf("failed to pack submitClaim call: %w", err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    s.nonce,
		To:       &s.history,
		Gas:      submitGasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign claim transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to broadcast claim transaction: %w", err)
	}

	s.logger.Debug("Broadcast claim transaction", "tx", signed.Hash(), "nonce", s.nonce)

	receipt, err := s.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", ErrTxReverted, signed.Hash())
	}

	submissionTimer.UpdateSince(start)
	s.logger.Info("Claim submitted", "hash", claimHash, "tx", signed.Hash(), "block", receipt.BlockNumber)

	successor := *s
	successor.nonce++
	successor.spent = false

	return &successor, nil
}

// waitMined polls for the transaction receipt until it is available or the
// context is cancelled.
func (s *Sender) waitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(receiptPollBackoff)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch receipt for tx %s: %w", txHash, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
