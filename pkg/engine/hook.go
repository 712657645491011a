package engine

import "reflect"

// Slot is the uniform contract every hook variant implements. A slot is
// one entry in a component's ordered hook array; the component drives it
// strictly through this interface.
//
// Init runs once, when the component's work pass first reaches the
// slot's index. Ready reports whether later slots may run; a slot that
// returns false suspends the component at its index until an explicit
// ready signal arrives. DepsChanged delivers a freshly evaluated
// defining expression when an upstream dependency updated; Invalidated
// signals "re-check yourself, nothing upstream changed". Both return
// whether the slot's value actually changed, which is what gates the
// downstream dirty cascade and the render decision.
type Slot interface {
	Init(c *Component, idx int)
	Ready() bool
	Value() any
	DepsChanged(next any) bool
	Invalidated() bool
	Destroy()
}

// SlotDescriptor declares one hook of a component config: how to build
// its slot, how to re-evaluate its defining expression, and which other
// hook indices it is wired to.
type SlotDescriptor struct {
	// Name identifies the hook in logs and the inspector.
	Name string

	// DependsOn holds the indices of earlier hooks whose updates force
	// this hook's expression to be re-evaluated.
	DependsOn Mask

	// Affects holds the indices of later hooks marked dirty when this
	// hook's value changes.
	Affects Mask

	// RenderDep marks the hook as a render input: a value change sets
	// the component's needs-render flag.
	RenderDep bool

	// Build constructs the slot. When nil, the hook is a plain value
	// backed by Expr.
	Build func(c *Component) Slot

	// Expr evaluates the hook's defining expression. The component
	// calls it when dependencies updated and feeds the result to the
	// slot's DepsChanged.
	Expr func(c *Component) any
}

// ValueHook declares a plain-value hook computed by expr. The fallback
// variant of the slot protocol: always ready, re-computed only when a
// dependency or tagged argument changes.
func ValueHook(name string, expr func(c *Component) any) SlotDescriptor {
	return SlotDescriptor{Name: name, Expr: expr}
}

// StaticSlot is the plain-value slot variant backing ValueHook.
type StaticSlot struct {
	expr  func(c *Component) any
	value any
}

// Init implements Slot.
func (s *StaticSlot) Init(c *Component, idx int) {
	if s.expr != nil {
		s.value = s.expr(c)
	}
}

// Ready implements Slot. Plain values are always ready.
func (s *StaticSlot) Ready() bool { return true }

// Value implements Slot.
func (s *StaticSlot) Value() any { return s.value }

// DepsChanged implements Slot.
func (s *StaticSlot) DepsChanged(next any) bool {
	changed := !reflect.DeepEqual(s.value, next)
	s.value = next
	return changed
}

// Invalidated implements Slot. A plain value has no external source, so
// an invalidation without new dependency hints never changes it.
func (s *StaticSlot) Invalidated() bool { return false }

// Destroy implements Slot.
func (s *StaticSlot) Destroy() {}
