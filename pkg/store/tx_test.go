package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxChangeSetsMatchWritesExactly(t *testing.T) {
	base := snapWith(map[any]any{"present": 1, "gone": 2})

	tx := NewTx(base)
	tx = tx.Put("fresh", 10)
	tx = tx.Put("present", 11)
	tx = tx.Delete("gone")
	res := tx.Commit()

	assert.Equal(t, NewKeySet("fresh"), res.Added)
	assert.Equal(t, NewKeySet("present"), res.Updated)
	assert.Equal(t, NewKeySet("gone"), res.Removed)

	changed := res.ChangedKeys()
	assert.Equal(t, NewKeySet("fresh", "present", "gone"), changed)

	// Post-transaction data reflects the writes.
	v, ok := res.Data.Lookup("fresh")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.False(t, res.Data.Contains("gone"))

	// The base snapshot is untouched.
	assert.True(t, base.Contains("gone"))
	v, _ = base.Lookup("present")
	assert.Equal(t, 1, v)
}

func TestTxIdenticalWriteIsNoOp(t *testing.T) {
	val := &struct{ N int }{N: 1}
	base := snapWith(map[any]any{"k": val})

	tx := NewTx(base)
	tx2 := tx.Put("k", val)
	res := tx2.Commit()

	assert.Empty(t, res.Added)
	assert.Empty(t, res.Updated)
	assert.Empty(t, res.Removed)
	// No writes at all: the committed snapshot is the base itself.
	assert.Same(t, base, res.Data)
}

func TestTxEqualButNotIdenticalWriteCounts(t *testing.T) {
	base := snapWith(map[any]any{"k": &struct{ N int }{N: 1}})

	tx := NewTx(base).Put("k", &struct{ N int }{N: 1})
	res := tx.Commit()

	assert.Equal(t, NewKeySet("k"), res.Updated)
	assert.NotSame(t, base, res.Data)
}

func TestTxIdentWriteFoldsCollectionKey(t *testing.T) {
	id := NewIdent("dir", 1)

	res := NewTx(NewSnapshot()).
		Put(id, map[any]any{"dir/name": "x"}).
		Commit()

	// First entity of its type: ident and collection key are both new.
	assert.True(t, res.Added.Has(id))
	assert.True(t, res.Added.Has(Collection("dir")))
	assert.Empty(t, res.Updated)

	set, ok := res.Data.Lookup(Collection("dir"))
	require.True(t, ok)
	assert.True(t, set.(IdentSet).Has(id))
}

func TestTxIdentUpdateMarksCollectionUpdated(t *testing.T) {
	id := NewIdent("dir", 1)
	base := NewTx(NewSnapshot()).Put(id, map[any]any{"n": 1}).Commit().Data

	res := NewTx(base).Put(id, map[any]any{"n": 2}).Commit()

	assert.True(t, res.Updated.Has(id))
	assert.True(t, res.Updated.Has(Collection("dir")))
	assert.Empty(t, res.Added)
}

func TestTxSecondIdentUpdatesExistingCollection(t *testing.T) {
	a, b := NewIdent("dir", 1), NewIdent("dir", 2)
	base := NewTx(NewSnapshot()).Put(a, map[any]any{"n": 1}).Commit().Data

	res := NewTx(base).Put(b, map[any]any{"n": 2}).Commit()

	assert.True(t, res.Added.Has(b))
	assert.True(t, res.Updated.Has(Collection("dir")))

	set, _ := res.Data.Lookup(Collection("dir"))
	assert.Len(t, set.(IdentSet), 2)
}

func TestTxDeleteIdentShrinksCollection(t *testing.T) {
	a, b := NewIdent("dir", 1), NewIdent("dir", 2)
	base := NewTx(NewSnapshot()).
		Put(a, map[any]any{"n": 1}).
		Put(b, map[any]any{"n": 2}).
		Commit().Data

	res := NewTx(base).Delete(a).Commit()

	assert.True(t, res.Removed.Has(a))
	assert.True(t, res.Updated.Has(Collection("dir")))
	assert.False(t, res.Data.Contains(a))

	set, _ := res.Data.Lookup(Collection("dir"))
	require.Len(t, set.(IdentSet), 1)
	assert.True(t, set.(IdentSet).Has(b))
}

func TestTxAddThenDeleteLeavesNoTrace(t *testing.T) {
	tx := NewTx(NewSnapshot()).Put("ephemeral", 1).Delete("ephemeral")
	res := tx.Commit()

	assert.Empty(t, res.Added)
	assert.Empty(t, res.Removed)
	assert.False(t, res.Data.Contains("ephemeral"))
}

func TestTxDeleteThenReAddIsUpdate(t *testing.T) {
	base := snapWith(map[any]any{"k": 1})

	res := NewTx(base).Delete("k").Put("k", 2).Commit()

	assert.Equal(t, NewKeySet("k"), res.Updated)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Added)
}

func TestTxConcludedOperationsPanic(t *testing.T) {
	tx := NewTx(NewSnapshot()).Put("k", 1)
	tx.Commit()

	assertPanicsWith(t, ErrTxConcluded, func() { tx.Commit() })
	assertPanicsWith(t, ErrTxConcluded, func() { tx.Put("k", 2) })
	assertPanicsWith(t, ErrTxConcluded, func() { tx.Delete("k") })
	assertPanicsWith(t, ErrTxConcluded, func() { tx.Get("k") })
	assertPanicsWith(t, ErrTxConcluded, func() { tx.GetOr("k", nil) })
}

func TestTxReadsSeeOwnWrites(t *testing.T) {
	base := snapWith(map[any]any{"a": 1})
	tx := NewTx(base).Put("b", 2)

	assert.Equal(t, 1, tx.Get("a"))
	assert.Equal(t, 2, tx.Get("b"))
	assert.True(t, tx.Contains("b"))

	tx = tx.Delete("a")
	assert.False(t, tx.Contains("a"))
	assertPanicsWith(t, ErrInvalidKey, func() { tx.Get("a") })
}

func TestTxNilKeyPanics(t *testing.T) {
	tx := NewTx(NewSnapshot())
	assertPanicsWith(t, ErrInvalidKey, func() { tx.Put(nil, 1) })
	assertPanicsWith(t, ErrInvalidKey, func() { tx.Delete(nil) })
	assertPanicsWith(t, ErrInvalidKey, func() { tx.Get(nil) })
}
