package store

import (
	"fmt"
	"reflect"
)

// Tx is a transaction handle over one base Snapshot. Writes return a new
// handle (the persistent-update API shape); a handle that has been
// superseded by a later write is no longer guaranteed to observe a stable
// view, which is what permits the single shared copy-on-write map under
// the hood instead of a deep copy per write.
//
// A Tx accumulates three disjoint key sets: added (absent before this
// transaction), updated (present before, changed now), removed. Ident
// writes additionally fold their collection key into the affected sets,
// because membership queries over the collection must re-run.
//
// Exactly one Commit is permitted. Every operation after Commit panics
// with ErrTxConcluded.
type Tx struct {
	st *txState
}

// txState is the mutable guts shared by every handle of one transaction.
type txState struct {
	base *Snapshot

	// data is nil until the first write, then a private clone of base.
	data map[any]any

	added     KeySet
	updated   KeySet
	removed   KeySet
	concluded bool
}

// Result is the frozen outcome of a committed transaction.
type Result struct {
	// Data is the post-transaction Snapshot. When the transaction wrote
	// nothing, Data is the base Snapshot itself (pointer-equal), which
	// lets the engine skip invalidation entirely.
	Data *Snapshot

	Added   KeySet
	Updated KeySet
	Removed KeySet
}

// ChangedKeys returns Added ∪ Updated ∪ Removed.
func (r Result) ChangedKeys() KeySet {
	return r.Added.Union(r.Updated, r.Removed)
}

// NewTx opens a transaction over the given Snapshot.
func NewTx(base *Snapshot) Tx {
	return Tx{st: &txState{
		base:    base,
		added:   KeySet{},
		updated: KeySet{},
		removed: KeySet{},
	}}
}

// Base returns the pre-transaction Snapshot.
func (t Tx) Base() *Snapshot {
	return t.st.base
}

// Get returns the value for key as the transaction currently sees it.
// Same contract as Reader.Get: nil or absent key panics with
// ErrInvalidKey. Transaction reads are not observed reads; dependency
// tracking belongs to queries, not handlers.
func (t Tx) Get(key any) any {
	t.st.ensureOpen("Get")
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}
	v, ok := t.st.lookup(key)
	if !ok {
		panic(fmt.Errorf("%w: %v not in store", ErrInvalidKey, key))
	}
	return v
}

// GetOr returns the value for key, or def when absent.
func (t Tx) GetOr(key, def any) any {
	t.st.ensureOpen("GetOr")
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}
	if v, ok := t.st.lookup(key); ok {
		return v
	}
	return def
}

// Contains reports whether the key currently exists.
func (t Tx) Contains(key any) bool {
	t.st.ensureOpen("Contains")
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}
	_, ok := t.st.lookup(key)
	return ok
}

// Put writes key to value and returns the next handle. Writing a value
// reference-identical to the current one is a complete no-op: same handle
// back, no tracked change. Ident keys also touch their collection key.
func (t Tx) Put(key, value any) Tx {
	st := t.st
	st.ensureOpen("Put")
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}

	prev, existed := st.lookup(key)
	if existed && identical(prev, value) {
		return t
	}

	st.mutable()[key] = value
	st.recordWrite(key, existed)

	if id, ok := key.(Ident); ok {
		if existed {
			// Membership is unchanged, but list-shaped queries over the
			// collection may project entity fields, so the collection
			// key joins the affected set.
			st.touchCollection(id.Collection())
		} else {
			st.addToCollection(id)
		}
	}

	return Tx{st: st}
}

// Delete removes key and returns the next handle. Deleting an absent key
// is a no-op. Ident keys are also removed from their collection set, and
// the collection key is recorded as updated (the collection itself still
// exists; only its membership shrank).
func (t Tx) Delete(key any) Tx {
	st := t.st
	st.ensureOpen("Delete")
	if key == nil {
		panic(fmt.Errorf("%w: nil key", ErrInvalidKey))
	}

	if _, existed := st.lookup(key); !existed {
		return t
	}

	delete(st.mutable(), key)

	if st.added.Has(key) {
		// Added and removed within the same transaction: the outside
		// world never saw the key, so it vanishes from the change sets.
		st.added.Delete(key)
	} else {
		st.updated.Delete(key)
		st.removed.Add(key)
	}

	if id, ok := key.(Ident); ok {
		st.removeFromCollection(id)
	}

	return Tx{st: st}
}

// Commit concludes the transaction and returns the frozen result. The
// change sets in the Result must not be mutated by the caller.
func (t Tx) Commit() Result {
	st := t.st
	st.ensureOpen("Commit")
	st.concluded = true

	data := st.base
	if st.data != nil {
		data = freeze(st.data)
	}
	return Result{
		Data:    data,
		Added:   st.added,
		Updated: st.updated,
		Removed: st.removed,
	}
}

// =============================================================================
// Internal bookkeeping
// =============================================================================

func (st *txState) ensureOpen(op string) {
	if st.concluded {
		panic(fmt.Errorf("%w: %s after Commit", ErrTxConcluded, op))
	}
}

func (st *txState) lookup(key any) (any, bool) {
	if st.data != nil {
		v, ok := st.data[key]
		return v, ok
	}
	return st.base.Lookup(key)
}

// mutable clones the base map on first write.
func (st *txState) mutable() map[any]any {
	if st.data == nil {
		st.data = st.base.clone()
	}
	return st.data
}

// recordWrite classifies a write into added or updated, keeping the
// three change sets disjoint across re-adds and re-writes.
func (st *txState) recordWrite(key any, existed bool) {
	switch {
	case st.removed.Has(key):
		// Removed earlier in this transaction, now re-added: the key
		// existed before the transaction, so it counts as updated.
		st.removed.Delete(key)
		st.updated.Add(key)
	case !existed:
		st.added.Add(key)
	case !st.added.Has(key):
		st.updated.Add(key)
	}
}

// touchCollection marks a collection key as updated unless this
// transaction created it.
func (st *txState) touchCollection(coll CollectionKey) {
	if !st.added.Has(coll) {
		st.updated.Add(coll)
	}
}

// addToCollection inserts the ident into its collection set, creating
// the set when this is the first entity of its type.
func (st *txState) addToCollection(id Ident) {
	coll := id.Collection()
	data := st.mutable()

	if cur, ok := data[coll]; ok {
		set := cur.(IdentSet).Clone()
		set[id] = struct{}{}
		data[coll] = set
		st.touchCollection(coll)
		return
	}

	data[coll] = NewIdentSet(id)
	st.added.Add(coll)
}

// removeFromCollection drops the ident from its collection set.
func (st *txState) removeFromCollection(id Ident) {
	coll := id.Collection()
	data := st.mutable()

	cur, ok := data[coll]
	if !ok {
		return
	}
	set := cur.(IdentSet).Clone()
	delete(set, id)
	data[coll] = set
	st.touchCollection(coll)
}

// identical reports reference identity for the no-op write check.
// Pointers, maps, channels and funcs compare by pointer; slices by
// data pointer and length; plain comparable values by ==.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Len() == rb.Len() && ra.Pointer() == rb.Pointer()
	default:
		if ra.Type().Comparable() {
			return a == b
		}
		return false
	}
}
