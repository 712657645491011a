// Package store implements the normalized in-memory data layer of the
// strand runtime: immutable snapshots, observed reads, and transacted
// writes.
//
// A Snapshot is a frozen key->value mapping. Keys are either plain
// comparable values (strings, custom key types) or Idents, which address
// one normalized entity. Per entity type, a CollectionKey holds the
// IdentSet of all entities of that type.
//
// Reads happen through a Reader, which records every key it touches. The
// recorded key set is the dependency evidence the engine uses to decide
// which queries a later transaction invalidates.
//
// Writes happen through a Tx, which accumulates added/updated/removed key
// sets and produces a new Snapshot on Commit. Nothing in this package is
// safe for concurrent mutation; the engine serializes all access.
package store
