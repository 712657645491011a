package store

import "fmt"

// Ident identifies one normalized entity: an (entity type, id) value
// pair. Idents compare structurally, never by pointer, so two Idents
// built independently from the same data are the same store key.
//
// The ID must be a comparable Go value (string, int, uuid array, ...).
// Storing an Ident with a non-comparable ID is a programming error and
// panics on first map insertion.
type Ident struct {
	Entity string
	ID     any
}

// NewIdent creates an Ident for the given entity type and id.
func NewIdent(entity string, id any) Ident {
	return Ident{Entity: entity, ID: id}
}

// String returns a readable form like "dir/id[1]".
func (i Ident) String() string {
	return fmt.Sprintf("%s[%v]", i.Entity, i.ID)
}

// CollectionKey is the store key holding the IdentSet of all entities of
// one type. Writing or deleting an Ident implicitly touches its
// collection key, so list-shaped queries over the whole collection are
// invalidated when membership changes.
type CollectionKey string

// Collection returns the collection key for an entity type.
func Collection(entity string) CollectionKey {
	return CollectionKey(entity)
}

// Collection returns the collection key this Ident belongs to.
func (i Ident) Collection() CollectionKey {
	return Collection(i.Entity)
}

// IdentSet is the value stored under a CollectionKey.
type IdentSet map[Ident]struct{}

// NewIdentSet creates an IdentSet from the given idents.
func NewIdentSet(idents ...Ident) IdentSet {
	s := make(IdentSet, len(idents))
	for _, id := range idents {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the ident.
func (s IdentSet) Has(id Ident) bool {
	_, ok := s[id]
	return ok
}

// Clone returns a copy of the set. Snapshots are immutable, so any
// membership change must go through a clone.
func (s IdentSet) Clone() IdentSet {
	out := make(IdentSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Slice returns the idents in unspecified order.
func (s IdentSet) Slice() []Ident {
	out := make([]Ident, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
