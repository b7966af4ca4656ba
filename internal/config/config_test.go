package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/idlctl/internal/cluster"
	"github.com/danmuck/idlctl/internal/protocol/record"
	"github.com/danmuck/idlctl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idlctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	testlog.Start(t)
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default invalid: %v", err)
	}
	if cfg.Endpoint() != "https://api.devnet.solana.com" {
		t.Fatalf("unexpected endpoint: %q", cfg.Endpoint())
	}
	if cfg.Decoder.PayloadEncoding != record.EncodingAuto {
		t.Fatalf("unexpected encoding: %q", cfg.Decoder.PayloadEncoding)
	}
}

func TestTemplateLoadsAsDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load(writeConfig(t, Template()))
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	def := Default()
	if cfg != def {
		t.Fatalf("template differs from defaults:\n got=%+v\nwant=%+v", cfg, def)
	}
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load(writeConfig(t, `
cluster = "mainnet-beta"
rpc_url = "https://rpc.example.com/key"
catalog_dir = "cat"
timeout = "3s"

[backoff]
max_delay = "1s"

[decoder]
preimage = "internal:IdlAccount"
payload_encoding = "zlib"

[log]
level = "debug"
json = true
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cluster != cluster.Mainnet {
		t.Fatalf("unexpected cluster: %q", cfg.Cluster)
	}
	if cfg.Endpoint() != "https://rpc.example.com/key" {
		t.Fatalf("unexpected endpoint: %q", cfg.Endpoint())
	}
	if cfg.CatalogDir != "cat" || cfg.OutputDir != "." {
		t.Fatalf("unexpected dirs: %q %q", cfg.CatalogDir, cfg.OutputDir)
	}
	if cfg.Timeout != 3*time.Second || cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected rpc settings: %v %d", cfg.Timeout, cfg.MaxAttempts)
	}
	if cfg.Backoff.MaxDelay != time.Second || cfg.Backoff.InitialDelay != 250*time.Millisecond || !cfg.Backoff.Jitter {
		t.Fatalf("unexpected backoff: %+v", cfg.Backoff)
	}

	dc := cfg.DecoderConfig()
	if dc.Preimage != "internal:IdlAccount" || dc.Encoding != record.EncodingZlib || dc.MaxInflatedBytes != 16*1024*1024 {
		t.Fatalf("unexpected decoder config: %+v", dc)
	}
	rc := cfg.RPCConfig()
	if rc.Timeout != 3*time.Second || rc.Commitment != "confirmed" || rc.Backoff.MaxDelay != time.Second {
		t.Fatalf("unexpected rpc config: %+v", rc)
	}
	lc := cfg.LoggingConfig()
	if lc.Level != zerolog.DebugLevel || !lc.JSON {
		t.Fatalf("unexpected logging config: %+v", lc)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown cluster":  `cluster = "localnet"`,
		"bad rpc url":      `rpc_url = "ftp://node"`,
		"bad timeout":      `timeout = "soon"`,
		"zero timeout":     `timeout = "0s"`,
		"zero attempts":    `max_attempts = 0`,
		"bad commitment":   `commitment = "max"`,
		"bad encoding":     "[decoder]\npayload_encoding = \"gzip\"",
		"empty preimage":   "[decoder]\npreimage = \"\"",
		"zero inflate cap": "[decoder]\nmax_inflated_bytes = 0",
		"bad multiplier":   "[backoff]\nmultiplier = 0.5",
		"bad log level":    "[log]\nlevel = \"loud\"",
		"unknown key":      `output = "x"`,
		"empty output dir": `output_dir = ""`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestWriteTemplateRespectsOverwrite(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "idlctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != Template() {
		t.Fatalf("unexpected template contents, err=%v", err)
	}
}

func TestTemplateLeavesColorDetectionAlone(t *testing.T) {
	testlog.Start(t)
	for _, line := range strings.Split(Template(), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "no_color") {
			t.Fatalf("template must not pin no_color: %q", line)
		}
	}
	cfg, err := Load(writeConfig(t, Template()))
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Log.NoColor != Default().Log.NoColor {
		t.Fatalf("template overrode color detection")
	}
}
