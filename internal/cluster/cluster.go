// Package cluster maps named Solana networks to RPC endpoints.
package cluster

import (
	"fmt"
	"strings"
)

type Cluster string

const (
	Devnet  Cluster = "devnet"
	Testnet Cluster = "testnet"
	Mainnet Cluster = "mainnet"
)

// All lists the supported clusters in display order.
var All = []Cluster{Devnet, Testnet, Mainnet}

func Parse(name string) (Cluster, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "devnet":
		return Devnet, nil
	case "testnet":
		return Testnet, nil
	case "mainnet", "mainnet-beta":
		return Mainnet, nil
	default:
		return "", fmt.Errorf("cluster: unknown cluster %q (supported: devnet, testnet, mainnet)", name)
	}
}

func (c Cluster) URL() string {
	switch c {
	case Devnet:
		return "https://api.devnet.solana.com"
	case Testnet:
		return "https://api.testnet.solana.com"
	case Mainnet:
		return "https://api.mainnet-beta.solana.com"
	default:
		return ""
	}
}

// Endpoint returns override when set, otherwise the cluster URL.
func (c Cluster) Endpoint(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return c.URL()
}

func (c Cluster) String() string {
	return string(c)
}
