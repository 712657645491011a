package store

// KeySet is a set of store keys (plain keys, Idents, CollectionKeys).
// The engine uses KeySets both as read evidence (what a query depends on)
// and as write evidence (what a transaction changed).
type KeySet map[any]struct{}

// NewKeySet creates a KeySet from the given keys.
func NewKeySet(keys ...any) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts a key into the set.
func (s KeySet) Add(key any) {
	s[key] = struct{}{}
}

// Has reports whether the set contains the key.
func (s KeySet) Has(key any) bool {
	_, ok := s[key]
	return ok
}

// Delete removes a key from the set.
func (s KeySet) Delete(key any) {
	delete(s, key)
}

// Clone returns a copy of the set.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Union returns a new set containing every key of s and every key of
// others. Duplicates collapse.
func (s KeySet) Union(others ...KeySet) KeySet {
	out := s.Clone()
	for _, o := range others {
		for k := range o {
			out[k] = struct{}{}
		}
	}
	return out
}

// Slice returns the keys in unspecified order.
func (s KeySet) Slice() []any {
	out := make([]any, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
