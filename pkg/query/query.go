// Package query executes query shapes against the store through an
// observed Reader. It is the engine's query-execution collaborator: pure
// with respect to the store except for the Reader's side-recorded key
// set.
package query

import (
	"sort"

	"github.com/strandui/strand/pkg/store"
)

// Shape is an ordered list of attributes to pull. An entry is either a
// plain attribute key or a Join, which follows Ident-valued attributes
// into nested entities.
type Shape []any

// Join pulls a nested shape through an attribute whose value is an
// Ident, a []store.Ident, or a store.IdentSet.
type Join struct {
	Key   any
	Shape Shape
}

// Executor runs a query shape against a Reader. root scopes the query to
// one entity; a nil root reads the shape's keys directly off the store
// (rootless query).
type Executor interface {
	Query(env any, r *store.Reader, root *store.Ident, shape Shape) any
}

// PullExecutor is the default Executor: attribute pulls with join
// traversal. Every store access goes through the Reader, so the caller's
// dependency set is exactly the keys this pull touched.
type PullExecutor struct{}

// Query implements Executor.
func (PullExecutor) Query(_ any, r *store.Reader, root *store.Ident, shape Shape) any {
	if root != nil {
		return pullEntity(r, *root, shape)
	}

	out := make(map[any]any, len(shape))
	for _, entry := range shape {
		if j, ok := entry.(Join); ok {
			out[j.Key] = pullValue(r, r.GetOr(j.Key, nil), j.Shape)
			continue
		}
		out[entry] = r.GetOr(entry, nil)
	}
	return out
}

// pullEntity reads one entity and projects the shape's attributes.
// A missing entity pulls to nil; the ident is still observed, so the
// query re-runs when the entity appears.
func pullEntity(r *store.Reader, id store.Ident, shape Shape) any {
	raw := r.GetOr(id, nil)
	if raw == nil {
		return nil
	}
	ent, ok := raw.(map[any]any)
	if !ok {
		// Scalar entity value: the shape cannot project into it.
		return raw
	}

	out := make(map[any]any, len(shape))
	for _, entry := range shape {
		if j, ok := entry.(Join); ok {
			out[j.Key] = pullValue(r, ent[j.Key], j.Shape)
			continue
		}
		if v, ok := ent[entry]; ok {
			out[entry] = v
		}
	}
	return out
}

// pullValue resolves a join target: a single Ident, an ordered Ident
// slice, or an IdentSet (pulled in sorted order for determinism).
func pullValue(r *store.Reader, v any, shape Shape) any {
	switch vv := v.(type) {
	case nil:
		return nil
	case store.Ident:
		return pullEntity(r, vv, shape)
	case []store.Ident:
		out := make([]any, 0, len(vv))
		for _, id := range vv {
			out = append(out, pullEntity(r, id, shape))
		}
		return out
	case store.IdentSet:
		ids := vv.Slice()
		sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
		out := make([]any, 0, len(ids))
		for _, id := range ids {
			out = append(out, pullEntity(r, id, shape))
		}
		return out
	default:
		return v
	}
}
