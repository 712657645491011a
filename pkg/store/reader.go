package store

import "fmt"

// Reader wraps one Snapshot for observed reads. Every successful lookup
// records its key; after the read pass, Observed() is the set of keys the
// computation depends on.
//
// A Reader is strictly read-only. It deliberately carries the same write
// method set as Tx so both satisfy the query environment interface, but
// any write attempt panics with ErrReadOnly.
type Reader struct {
	snap *Snapshot
	seen KeySet
}

// NewReader creates a Reader over the given Snapshot.
func NewReader(snap *Snapshot) *Reader {
	return &Reader{snap: snap, seen: KeySet{}}
}

// Get returns the value for key and records the key as observed.
// A nil key or an absent key is a programming error and panics with
// ErrInvalidKey; use GetOr when absence is expected.
func (r *Reader) Get(key any) any {
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}
	v, ok := r.snap.Lookup(key)
	if !ok {
		panic(fmt.Errorf("%w: %v not in store", ErrInvalidKey, key))
	}
	r.seen.Add(key)
	return v
}

// GetOr returns the value for key, or def when the key is absent. The
// key is recorded as observed either way: a query that looked for a key
// and found nothing still depends on that key appearing later.
func (r *Reader) GetOr(key, def any) any {
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}
	r.seen.Add(key)
	if v, ok := r.snap.Lookup(key); ok {
		return v
	}
	return def
}

// Contains reports whether the key exists and records it as observed.
func (r *Reader) Contains(key any) bool {
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}
	r.seen.Add(key)
	return r.snap.Contains(key)
}

// Observed returns a copy of the keys read so far. It may be called more
// than once; each call reflects the reads up to that point.
func (r *Reader) Observed() KeySet {
	return r.seen.Clone()
}

// Put always panics with ErrReadOnly.
func (r *Reader) Put(key, value any) Tx {
	panic(fmt.Errorf("%w: Put(%v)", ErrReadOnly, key))
}

// Delete always panics with ErrReadOnly.
func (r *Reader) Delete(key any) Tx {
	panic(fmt.Errorf("%w: Delete(%v)", ErrReadOnly, key))
}
