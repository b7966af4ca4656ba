package config

import (
	"github.com/danmuck/idlctl/internal/logging"
	"github.com/danmuck/idlctl/internal/protocol/record"
	"github.com/danmuck/idlctl/internal/rpc"
)

// Endpoint is rpc_url when set, otherwise the cluster URL.
func (c Config) Endpoint() string {
	return c.Cluster.Endpoint(c.RPCURL)
}

func (c Config) RPCConfig() rpc.Config {
	return rpc.Config{
		Timeout:     c.Timeout,
		Commitment:  c.Commitment,
		MaxAttempts: c.MaxAttempts,
		Backoff: rpc.BackoffConfig{
			InitialDelay: c.Backoff.InitialDelay,
			Multiplier:   c.Backoff.Multiplier,
			MaxDelay:     c.Backoff.MaxDelay,
			Jitter:       c.Backoff.Jitter,
		},
	}
}

func (c Config) DecoderConfig() record.DecoderConfig {
	return record.DecoderConfig{
		Preimage:         c.Decoder.Preimage,
		Encoding:         c.Decoder.PayloadEncoding,
		MaxInflatedBytes: c.Decoder.MaxInflatedBytes,
	}
}

func (c Config) LoggingConfig() logging.Config {
	lvl, ok := logging.ParseLevel(c.Log.Level)
	if !ok {
		lvl = logging.DefaultConfig(logging.ProfileRuntime).Level
	}
	return logging.Config{
		Level:     lvl,
		Timestamp: c.Log.Timestamp,
		NoColor:   c.Log.NoColor,
		JSON:      c.Log.JSON,
	}
}
