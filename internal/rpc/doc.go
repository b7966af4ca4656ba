// Package rpc fetches account state over Solana JSON-RPC.
//
// Ownership boundary:
// - getAccountInfo calls through the solana-go RPC client
// - transport timeouts and retry backoff
// - mapping failures onto protocol.KindTransport and protocol.KindNotFound
//
// The record decoder never calls into this package.
package rpc
