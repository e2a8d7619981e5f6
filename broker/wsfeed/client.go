package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/statefold/rollups-dispatcher/dispatcher"
	"github.com/statefold/rollups-dispatcher/types"
)

const (
	claimEventQuery = "rollups.event='NewClaim' AND claim.dapp='%s'"

	readTimeout = 30 * time.Second
	bufferSize  = 256
)

var ErrClosed = errors.New("claim feed is closed")

// Ensure Client implements the dispatcher.ClaimFeed interface
var _ dispatcher.ClaimFeed = (*Client)(nil)

// Client is a websocket claim feed with auto-reconnection. It subscribes
// to the broker's claim events for one dapp and buffers them for
// non-blocking consumption by reconciliation passes.
type Client struct {
	url  string
	dapp common.Address

	conn    *websocket.Conn
	mu      sync.Mutex
	buffer  chan *types.Claim
	done    chan struct{}
	limiter *rate.Limiter

	// highest claim number delivered on the current connection, used to
	// enforce the feed monotonicity invariant at the boundary
	lastNumber uint64

	logger log.Logger
}

// NewClient creates a new websocket feed client for the given broker URL
// and dapp. Subscribe must be called before polling.
func NewClient(url string, dapp common.Address) *Client {
	return &Client{
		url:     url,
		dapp:    dapp,
		buffer:  make(chan *types.Claim, bufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
		logger:  log.New("dapp", dapp),
	}
}

// Subscribe establishes the websocket connection, sends the subscription
// request and starts the reader goroutine delivering claims into the
// client's buffer.
func (c *Client) Subscribe(ctx context.Context) error {
	if err := c.trySubscribe(ctx); err != nil {
		return err
	}

	go c.readMessages(ctx)

	return nil
}

// trySubscribe dials and subscribes, retrying with paced attempts until it
// succeeds or the context is cancelled.
func (c *Client) trySubscribe(ctx context.Context) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		select {
		case <-c.done:
			return ErrClosed
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.logger.Error("Failed to dial websocket on claim feed subscription", "err", err)
			continue
		}

		req := subscriptionRequest{
			JSONRPC: "2.0",
			Method:  "subscribe",
			ID:      0,
		}
		req.Params.Query = fmt.Sprintf(claimEventQuery, c.dapp.Hex())

		if err := conn.WriteJSON(req); err != nil {
			c.logger.Error("Failed to send subscription request on claim feed", "err", err)
			conn.Close()

			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.lastNumber = 0
		c.mu.Unlock()

		c.logger.Info("Successfully connected on claim feed subscription", "url", c.url)

		return nil
	}
}

// readMessages continuously reads claim messages from the websocket,
// handling reconnections if necessary, until the context is cancelled or
// the client is closed.
func (c *Client) readMessages(ctx context.Context) {
	defer close(c.buffer)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.logger.Error("Connection lost; will attempt to reconnect on claim feed", "err", err)

			if err := c.trySubscribe(ctx); err != nil {
				return
			}

			continue
		}

		var resp wsResponseClaim
		if err := json.Unmarshal(message, &resp); err != nil {
			// Skip messages that don't match the expected format.
			continue
		}

		ev := resp.ClaimEvent
		if ev.Hash == (common.Hash{}) {
			// Subscription confirmations and heartbeats carry no claim.
			continue
		}

		if ev.Number <= c.lastNumber {
			c.logger.Warn("Dropping out-of-order claim from feed", "number", ev.Number, "last", c.lastNumber)
			continue
		}

		c.lastNumber = ev.Number

		claim := &types.Claim{Number: ev.Number, Hash: ev.Hash}

		select {
		case c.buffer <- claim:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// NextClaim returns the next buffered claim, or (nil, nil) once the
// currently-available data is drained. It never blocks waiting for the
// broker; later passes re-poll for claims that arrive in the meantime.
func (c *Client) NextClaim(ctx context.Context) (*types.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case claim, ok := <-c.buffer:
		if !ok {
			return nil, ErrClosed
		}

		return claim, nil
	default:
		return nil, nil
	}
}

// Close terminates the subscription and the reader goroutine.
func (c *Client) Close() error {
	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
