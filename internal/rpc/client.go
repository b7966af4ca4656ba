package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/idlctl/internal/address"
	"github.com/danmuck/idlctl/internal/logging"
	"github.com/danmuck/idlctl/internal/protocol"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rs/zerolog"
)

const methodGetAccountInfo = "getAccountInfo"

// Account is the subset of account state the fetcher needs.
type Account struct {
	Lamports   uint64
	Owner      address.Identifier
	Executable bool
	RentEpoch  uint64
	Data       []byte
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Client reads accounts from one endpoint through the solana-go RPC client,
// adding retries and error kinds. Safe for concurrent use.
type Client struct {
	endpoint string
	cfg      Config
	conn     *solanarpc.Client
	log      zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(endpoint string, cfg Config) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	endpoint = strings.TrimSpace(endpoint)
	transport := jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	return &Client{
		endpoint: endpoint,
		cfg:      cfg,
		conn:     solanarpc.NewWithCustomRPCClient(transport),
		log:      logging.Component("rpc"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// GetAccount fetches id. A missing account is protocol.KindNotFound; every
// other failure is protocol.KindTransport.
func (c *Client) GetAccount(ctx context.Context, id address.Identifier) (Account, error) {
	opts := &solanarpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: solanarpc.CommitmentType(c.cfg.Commitment),
	}
	var res *solanarpc.GetAccountInfoResult
	err := c.call(ctx, methodGetAccountInfo, func() error {
		var err error
		res, err = c.conn.GetAccountInfoWithOpts(ctx, solana.PublicKey(id), opts)
		return translate(err)
	})
	switch {
	case errors.Is(err, solanarpc.ErrNotFound):
		return Account{}, &protocol.Error{
			Kind:    protocol.KindNotFound,
			Op:      "rpc " + methodGetAccountInfo,
			Subject: id.String(),
		}
	case err != nil:
		return Account{}, c.transportError(methodGetAccountInfo, err)
	}

	acct, err := account(res.Value)
	if err != nil {
		return Account{}, c.transportError(methodGetAccountInfo, err)
	}
	c.log.Debug().
		Str("account", id.String()).
		Uint64("slot", res.Context.Slot).
		Int("bytes", len(acct.Data)).
		Bool("executable", acct.Executable).
		Msg("account fetched")
	return acct, nil
}

func (c *Client) IsExecutable(ctx context.Context, id address.Identifier) (bool, error) {
	acct, err := c.GetAccount(ctx, id)
	if err != nil {
		return false, err
	}
	return acct.Executable, nil
}

func (c *Client) FetchBytes(ctx context.Context, id address.Identifier) ([]byte, error) {
	acct, err := c.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return acct.Data, nil
}

func account(v *solanarpc.Account) (Account, error) {
	if v == nil || v.Data == nil {
		return Account{}, errors.New("account value has no data")
	}
	acct := Account{
		Lamports:   v.Lamports,
		Owner:      address.Identifier(v.Owner),
		Executable: v.Executable,
		Data:       v.Data.GetBinary(),
	}
	if v.RentEpoch != nil && v.RentEpoch.IsUint64() {
		acct.RentEpoch = v.RentEpoch.Uint64()
	}
	return acct, nil
}

// call runs fn up to MaxAttempts times and returns the last error unwrapped.
func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.delay(attempt - 1)
			c.log.Debug().
				Str("method", method).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying rpc call")
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) || ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

// translate maps jsonrpc failures onto this package's error types.
func translate(err error) error {
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return &StatusError{StatusCode: httpErr.Code, Err: err}
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &RPCError{Code: rpcErr.Code, Message: rpcErr.Message}
	}
	return err
}

func (c *Client) delay(retry int) time.Duration {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return NextBackoffDelay(c.cfg.Backoff, retry, c.rng)
}

func (c *Client) transportError(method string, err error) error {
	return &protocol.Error{
		Kind:    protocol.KindTransport,
		Op:      "rpc " + method,
		Subject: c.endpoint,
		Err:     err,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
