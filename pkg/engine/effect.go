package engine

import "reflect"

// Cleanup is returned by an effect function to release whatever the
// effect set up. It runs before the effect re-runs and on destroy.
type Cleanup func()

// EffectHook declares a side-effect hook. The effect runs after the
// component's render pass — first on mount, then again whenever deps
// (re-evaluated from the hook's dependencies) change. Effects never feed
// rendering; their value is always nil.
func EffectHook(name string, deps func(c *Component) any, fn func(c *Component) Cleanup) SlotDescriptor {
	return SlotDescriptor{
		Name: name,
		Build: func(c *Component) Slot {
			return &EffectSlot{fn: fn, depsFn: deps}
		},
		Expr: deps,
	}
}

// EffectSlot runs a side effect after render when its deps change.
type EffectSlot struct {
	c       *Component
	idx     int
	fn      func(c *Component) Cleanup
	depsFn  func(c *Component) any
	deps    any
	cleanup Cleanup
}

// Init implements Slot: captures the initial deps value and queues the
// first run for after the mount render.
func (s *EffectSlot) Init(c *Component, idx int) {
	s.c = c
	s.idx = idx
	if s.depsFn != nil {
		s.deps = s.depsFn(c)
	}
	c.queueAfterRender(s.run)
}

// Ready implements Slot.
func (s *EffectSlot) Ready() bool { return true }

// Value implements Slot. Effects carry no value.
func (s *EffectSlot) Value() any { return nil }

// DepsChanged implements Slot: a re-run is queued only when the deps
// value actually moved. Effects never mark downstream hooks dirty, so
// this always reports no value change.
func (s *EffectSlot) DepsChanged(next any) bool {
	if reflect.DeepEqual(s.deps, next) {
		return false
	}
	s.deps = next
	s.c.queueAfterRender(s.run)
	return false
}

// Invalidated implements Slot.
func (s *EffectSlot) Invalidated() bool { return false }

// Destroy implements Slot: runs the outstanding cleanup.
func (s *EffectSlot) Destroy() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

func (s *EffectSlot) run() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	s.cleanup = s.fn(s.c)
}
