package rpc

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// BackoffConfig defines the wait between getAccountInfo attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// NextBackoffDelay returns the wait before retry n (1-based): InitialDelay
// grown by Multiplier per retry and capped at MaxDelay. Jitter scales the
// result into [0.5, 1.5); a nil rng uses 0.5.
func NextBackoffDelay(cfg BackoffConfig, retry int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	growth := math.Max(cfg.Multiplier, 1)
	ceiling := math.Inf(1)
	if cfg.MaxDelay > 0 {
		ceiling = float64(cfg.MaxDelay)
	}
	delay := math.Min(float64(cfg.InitialDelay), ceiling)
	for i := 1; i < retry && delay < ceiling; i++ {
		delay = math.Min(delay*growth, ceiling)
	}
	if !cfg.Jitter {
		return time.Duration(delay)
	}
	scale := 0.5
	if rng != nil {
		scale += rng.Float64()
	}
	return time.Duration(delay * scale)
}

// Retryable reports whether a failed call may succeed when repeated.
// Connection failures, undecodable bodies, 429 and 5xx are retried. JSON-RPC
// error objects, missing accounts, other statuses and cancellation are final.
func Retryable(err error) bool {
	if err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, solanarpc.ErrNotFound) {
		return false
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= http.StatusInternalServerError
	}
	return true
}
