package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/idlctl/internal/cluster"
	"github.com/danmuck/idlctl/internal/logging"
	"github.com/danmuck/idlctl/internal/protocol/record"
	"github.com/danmuck/idlctl/internal/rpc"
)

var ErrInvalid = errors.New("config: invalid")

// Config is the merged idlctl configuration. Durations and the payload
// encoding are kept as parsed values; the file form lives in fileConfig.
type Config struct {
	Cluster     cluster.Cluster
	RPCURL      string
	OutputDir   string
	CatalogDir  string
	Commitment  string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     BackoffConfig
	Decoder     DecoderConfig
	Log         LogConfig
}

type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

type DecoderConfig struct {
	Preimage         string
	PayloadEncoding  record.PayloadEncoding
	MaxInflatedBytes uint64
}

type LogConfig struct {
	Level     string
	Timestamp bool
	NoColor   bool
	JSON      bool
}

type fileConfig struct {
	Cluster     string `toml:"cluster"`
	RPCURL      string `toml:"rpc_url"`
	OutputDir   string `toml:"output_dir"`
	CatalogDir  string `toml:"catalog_dir"`
	Commitment  string `toml:"commitment"`
	Timeout     string `toml:"timeout"`
	MaxAttempts int    `toml:"max_attempts"`
	Backoff     struct {
		InitialDelay string  `toml:"initial_delay"`
		Multiplier   float64 `toml:"multiplier"`
		MaxDelay     string  `toml:"max_delay"`
		Jitter       bool    `toml:"jitter"`
	} `toml:"backoff"`
	Decoder struct {
		Preimage         string `toml:"preimage"`
		PayloadEncoding  string `toml:"payload_encoding"`
		MaxInflatedBytes int64  `toml:"max_inflated_bytes"`
	} `toml:"decoder"`
	Log struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
		JSON      bool   `toml:"json"`
	} `toml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	rpcDefaults := rpc.DefaultConfig()
	dec := record.DefaultDecoderConfig()
	logDefaults := logging.DefaultConfig(logging.ProfileRuntime)
	return Config{
		Cluster:     cluster.Devnet,
		OutputDir:   ".",
		Commitment:  rpcDefaults.Commitment,
		Timeout:     rpcDefaults.Timeout,
		MaxAttempts: rpcDefaults.MaxAttempts,
		Backoff: BackoffConfig{
			InitialDelay: rpcDefaults.Backoff.InitialDelay,
			Multiplier:   rpcDefaults.Backoff.Multiplier,
			MaxDelay:     rpcDefaults.Backoff.MaxDelay,
			Jitter:       rpcDefaults.Backoff.Jitter,
		},
		Decoder: DecoderConfig{
			Preimage:         dec.Preimage,
			PayloadEncoding:  record.EncodingAuto,
			MaxInflatedBytes: dec.MaxInflatedBytes,
		},
		Log: LogConfig{
			Level:     logDefaults.Level.String(),
			Timestamp: logDefaults.Timestamp,
			NoColor:   logDefaults.NoColor,
		},
	}
}

// Load overlays the TOML file at path on Default and validates the result.
// Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), path)
	}

	if meta.IsDefined("cluster") {
		c, err := cluster.Parse(raw.Cluster)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		cfg.Cluster = c
	}
	if meta.IsDefined("rpc_url") {
		cfg.RPCURL = strings.TrimSpace(raw.RPCURL)
	}
	if meta.IsDefined("output_dir") {
		cfg.OutputDir = strings.TrimSpace(raw.OutputDir)
	}
	if meta.IsDefined("catalog_dir") {
		cfg.CatalogDir = strings.TrimSpace(raw.CatalogDir)
	}
	if meta.IsDefined("commitment") {
		cfg.Commitment = strings.TrimSpace(raw.Commitment)
	}
	if meta.IsDefined("timeout") {
		if cfg.Timeout, err = parseDuration("timeout", raw.Timeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("max_attempts") {
		cfg.MaxAttempts = raw.MaxAttempts
	}

	if meta.IsDefined("backoff", "initial_delay") {
		if cfg.Backoff.InitialDelay, err = parseDuration("backoff.initial_delay", raw.Backoff.InitialDelay); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("backoff", "multiplier") {
		cfg.Backoff.Multiplier = raw.Backoff.Multiplier
	}
	if meta.IsDefined("backoff", "max_delay") {
		if cfg.Backoff.MaxDelay, err = parseDuration("backoff.max_delay", raw.Backoff.MaxDelay); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("backoff", "jitter") {
		cfg.Backoff.Jitter = raw.Backoff.Jitter
	}

	if meta.IsDefined("decoder", "preimage") {
		cfg.Decoder.Preimage = raw.Decoder.Preimage
	}
	if meta.IsDefined("decoder", "payload_encoding") {
		enc, err := record.ParseEncoding(raw.Decoder.PayloadEncoding)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		cfg.Decoder.PayloadEncoding = enc
	}
	if meta.IsDefined("decoder", "max_inflated_bytes") {
		if raw.Decoder.MaxInflatedBytes <= 0 {
			return Config{}, fmt.Errorf("%w: decoder.max_inflated_bytes must be positive", ErrInvalid)
		}
		cfg.Decoder.MaxInflatedBytes = uint64(raw.Decoder.MaxInflatedBytes)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Cluster.URL() == "" {
		return fmt.Errorf("%w: unknown cluster %q", ErrInvalid, cfg.Cluster)
	}
	if cfg.RPCURL != "" {
		u, err := url.Parse(cfg.RPCURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: rpc_url must be an http(s) URL: %q", ErrInvalid, cfg.RPCURL)
		}
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalid)
	}
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: commitment must be processed, confirmed or finalized: %q", ErrInvalid, cfg.Commitment)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalid)
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalid)
	}
	if cfg.Backoff.InitialDelay < 0 || cfg.Backoff.MaxDelay < 0 {
		return fmt.Errorf("%w: backoff delays must not be negative", ErrInvalid)
	}
	if cfg.Backoff.Multiplier < 1 {
		return fmt.Errorf("%w: backoff.multiplier must be at least 1", ErrInvalid)
	}
	if _, err := record.NewDecoder(cfg.DecoderConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, cfg.Log.Level)
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrInvalid, key, err)
	}
	return d, nil
}
