// Package fetcher runs one IDL fetch end to end.
//
// Ownership:
// - Sequencing of parse, executable check, derivation, fetch, decode and write.
// - Catalog bookkeeping after a successful write.
//
// Collaborators are injected as interfaces so tests run without a network.
package fetcher
