// Package catalog indexes fetched documents in a local Pebble store.
//
// Keys are idl:<cluster>:<program>; values are canonical CBOR entries.
package catalog
