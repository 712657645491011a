package store

// Snapshot is an immutable key->value mapping. A Snapshot is never
// mutated after construction; every transaction produces a fresh one.
//
// Pointer identity of a *Snapshot is meaningful: the engine checks that
// the store still points at the pre-transaction Snapshot before
// installing a commit result. Concurrent mutation during a transaction
// is a fatal programming error, not something that gets merged.
type Snapshot struct {
	data map[any]any
}

// NewSnapshot returns an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{data: map[any]any{}}
}

// SnapshotOf builds a Snapshot from a map. The map is copied; the caller
// keeps ownership of its argument.
func SnapshotOf(data map[any]any) *Snapshot {
	m := make(map[any]any, len(data))
	for k, v := range data {
		m[k] = v
	}
	return &Snapshot{data: m}
}

// Lookup returns the value for key and whether it exists.
func (s *Snapshot) Lookup(key any) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Contains reports whether the key exists.
func (s *Snapshot) Contains(key any) bool {
	_, ok := s.data[key]
	return ok
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	return len(s.data)
}

// Keys returns all keys in unspecified order.
func (s *Snapshot) Keys() []any {
	out := make([]any, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}

// clone returns a mutable copy of the underlying map. Only the
// transaction layer may call this; the copy is what a Tx mutates before
// freezing it into the next Snapshot.
func (s *Snapshot) clone() map[any]any {
	m := make(map[any]any, len(s.data)+8)
	for k, v := range s.data {
		m[k] = v
	}
	return m
}

// freeze wraps an already-private map into a Snapshot without copying.
func freeze(data map[any]any) *Snapshot {
	return &Snapshot{data: data}
}
