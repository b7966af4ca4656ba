package config

import (
	"fmt"
	"os"
)

// Template returns a commented config file carrying the defaults.
func Template() string {
	return idlctlTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(idlctlTemplate), 0o600)
}

const idlctlTemplate = `# devnet, testnet or mainnet
cluster = "devnet"
# rpc_url overrides the cluster endpoint, e.g. a private RPC provider.
# rpc_url = "https://my-node.example.com"
output_dir = "."
# catalog_dir enables the local fetch index when set.
# catalog_dir = ".idlctl/catalog"
commitment = "confirmed"
timeout = "15s"
max_attempts = 3

[backoff]
initial_delay = "250ms"
multiplier = 2.0
max_delay = "5s"
jitter = true

[decoder]
preimage = "anchor:idl"
# json, zlib or auto
payload_encoding = "auto"
max_inflated_bytes = 16777216

[log]
level = "info"
timestamp = true
# no_color defaults to true when stderr is not a terminal.
# no_color = false
json = false
`
