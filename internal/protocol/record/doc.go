// Package record decodes IDL account records.
//
// Layout (little-endian):
//
//	[0:8)    discriminator, sha256(preimage)[0:8]
//	[8:40)   authority
//	[40:48)  payload length (u64)
//	[48:48+n) payload, one JSON document
//
// Bytes past the payload window are ignored. The package performs no I/O.
package record
