// Package address owns account identifiers and IDL record address derivation.
//
// Ownership boundary:
// - base58 text codec for 32-byte identifiers
// - program derived addresses and create-with-seed
// - the Deriver seam the fetcher depends on
package address
