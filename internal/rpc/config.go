package rpc

import "time"

// Config defines RPC client timeouts and retry policy.
type Config struct {
	// Timeout bounds one HTTP round trip.
	Timeout time.Duration
	// Commitment is passed through to getAccountInfo.
	Commitment string
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int
	Backoff     BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Timeout:     15 * time.Second,
		Commitment:  "confirmed",
		MaxAttempts: 3,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
