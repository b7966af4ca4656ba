// Package store writes decoded documents to local disk.
//
// Ownership boundary:
// - output path derivation
// - atomic pretty-JSON writes
// - content ids for written bytes
package store
