// Package protocol owns the error contract shared by every pipeline stage.
//
// Ownership boundary:
// - closed set of failure kinds
// - structured error values (byte counts, discriminator bytes, cause)
//
// Wire parsing lives in protocol/record.
package protocol
