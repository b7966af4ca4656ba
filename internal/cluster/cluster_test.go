package cluster

import "testing"

func TestParseAndURL(t *testing.T) {
	cases := map[string]string{
		"devnet":       "https://api.devnet.solana.com",
		" Testnet ":    "https://api.testnet.solana.com",
		"mainnet":      "https://api.mainnet-beta.solana.com",
		"mainnet-beta": "https://api.mainnet-beta.solana.com",
	}
	for name, want := range cases {
		c, err := Parse(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if c.URL() != want {
			t.Fatalf("%q: url %s want %s", name, c.URL(), want)
		}
	}
	if _, err := Parse("localnet"); err == nil {
		t.Fatalf("expected unknown cluster error")
	}
}

func TestEndpointOverride(t *testing.T) {
	if got := Devnet.Endpoint(""); got != Devnet.URL() {
		t.Fatalf("unexpected endpoint: %s", got)
	}
	if got := Devnet.Endpoint(" http://127.0.0.1:8899 "); got != "http://127.0.0.1:8899" {
		t.Fatalf("unexpected override: %s", got)
	}
	if Cluster("bogus").URL() != "" {
		t.Fatalf("expected empty url for unknown cluster")
	}
}
