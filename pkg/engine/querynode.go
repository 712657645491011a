package engine

import (
	"reflect"

	"github.com/strandui/strand/pkg/query"
	"github.com/strandui/strand/pkg/store"
)

// QueryNode binds an optional root Ident and a query shape to the
// runtime's store. It remembers exactly which keys its most recent read
// touched; AffectedBy against that set is the sole predicate used for
// invalidation fan-out.
//
// Checking every live node against every changed key is O(nodes x
// changedKeys) by design. Query shapes are dynamic, so a reverse index
// would need its own invalidation story; the linear scan is the simplest
// correct algorithm and cheap at UI scale.
type QueryNode struct {
	id    uint64
	rt    *Runtime
	root  *store.Ident
	shape query.Shape

	// keys always reflects exactly the most recent successful read —
	// never a superset left over from a prior read with different
	// branching.
	keys   store.KeySet
	result any
	ready  bool

	owner   *Component
	slotIdx int
}

// StartQuery creates a query node and registers it in the runtime's
// live set. The node has not read yet; call Read (or let a QuerySlot's
// Init do it).
func (rt *Runtime) StartQuery(root *store.Ident, shape query.Shape) *QueryNode {
	n := &QueryNode{
		id:    nextID(),
		rt:    rt,
		root:  root,
		shape: shape,
		keys:  store.KeySet{},
	}
	rt.addQuery(n)
	return n
}

// ID returns the node's unique id.
func (n *QueryNode) ID() uint64 { return n.id }

// bind attaches the node to the component hook that owns it.
func (n *QueryNode) bind(c *Component, slotIdx int) {
	n.owner = c
	n.slotIdx = slotIdx
}

// Read opens an observed reader over the current snapshot, executes the
// query, and replaces the node's key set and result.
func (n *QueryNode) Read() {
	r := store.NewReader(n.rt.Snapshot())
	n.result = n.rt.exec.Query(n.rt.queryEnv, r, n.root, n.shape)
	n.keys = r.Observed()
	n.ready = true
}

// Ready reports whether at least one read has completed. Synchronous
// queries are ready after Init; the contract leaves room for an
// asynchronous variant that reports false until data arrives.
func (n *QueryNode) Ready() bool { return n.ready }

// Value returns the last computed result.
func (n *QueryNode) Value() any { return n.result }

// Keys returns a copy of the node's last recorded read-key set.
func (n *QueryNode) Keys() store.KeySet { return n.keys.Clone() }

// AffectedBy reports whether key was touched by the node's most recent
// read.
func (n *QueryNode) AffectedBy(key any) bool {
	return n.keys.Has(key)
}

// Invalidated re-runs the query and reports whether the result actually
// differs. The pull executor only materializes queried attributes, so a
// deep comparison of results never trips over incidental fields.
func (n *QueryNode) Invalidated() bool {
	prev := n.result
	n.Read()
	return !reflect.DeepEqual(prev, n.result)
}

// Refresh marks the owning component's hook dirty and schedules it. The
// node does not re-read here: other in-flight work may destroy or
// supersede it before its component's turn comes, so the actual read
// happens during that component's scheduled pass.
func (n *QueryNode) Refresh() {
	if n.owner != nil {
		n.owner.InvalidateHook(n.slotIdx)
	}
}

// Destroy deregisters the node from the runtime's live set; no further
// invalidation checks will reach it.
func (n *QueryNode) Destroy() {
	n.rt.removeQuery(n.id)
}

// =============================================================================
// QuerySlot — the hook variant wrapping a QueryNode
// =============================================================================

// QuerySpec is a query hook's defining expression result: what to bind
// the node to right now.
type QuerySpec struct {
	Ident *store.Ident
	Shape query.Shape
}

// QueryHook declares a hook backed by a QueryNode. spec is re-evaluated
// when dependencies or tagged args change; a changed spec rebuilds the
// node against the current store.
func QueryHook(name string, spec func(c *Component) QuerySpec) SlotDescriptor {
	return SlotDescriptor{
		Name: name,
		Build: func(c *Component) Slot {
			return &QuerySlot{spec: spec}
		},
		Expr: func(c *Component) any {
			return spec(c)
		},
	}
}

// QuerySlot adapts a QueryNode to the Slot contract.
type QuerySlot struct {
	c    *Component
	idx  int
	spec func(c *Component) QuerySpec
	node *QueryNode
}

// Init implements Slot: builds the node against the component's
// environment and performs the first read.
func (s *QuerySlot) Init(c *Component, idx int) {
	s.c = c
	s.idx = idx
	s.node = s.buildNode(s.spec(c))
}

// buildNode constructs a fresh bound node; nodes are rebuilt, not
// mutated, when structurally replaced.
func (s *QuerySlot) buildNode(qs QuerySpec) *QueryNode {
	n := s.c.rt.StartQuery(qs.Ident, qs.Shape)
	n.bind(s.c, s.idx)
	n.Read()
	return n
}

// Ready implements Slot.
func (s *QuerySlot) Ready() bool { return s.node.Ready() }

// Value implements Slot.
func (s *QuerySlot) Value() any { return s.node.Value() }

// DepsChanged implements Slot: the spec was re-evaluated, so the node is
// replaced wholesale and the results compared.
func (s *QuerySlot) DepsChanged(next any) bool {
	qs, ok := next.(QuerySpec)
	if !ok {
		return false
	}
	prev := s.node.Value()
	s.node.Destroy()
	s.node = s.buildNode(qs)
	return !reflect.DeepEqual(prev, s.node.Value())
}

// Invalidated implements Slot: re-read without new dependency hints.
func (s *QuerySlot) Invalidated() bool {
	return s.node.Invalidated()
}

// Destroy implements Slot.
func (s *QuerySlot) Destroy() {
	if s.node != nil {
		s.node.Destroy()
	}
}
