package engine

import (
	"errors"
	"fmt"
	"testing"
)

func newTestRuntime(opts ...Option) *Runtime {
	sched := NewScheduler(WithTick(swallowTick))
	return NewRuntime(append([]Option{WithScheduler(sched)}, opts...)...)
}

// asyncSlot suspends its component until Resolve is called.
type asyncSlot struct {
	c     *Component
	idx   int
	ready bool
	value any
}

func (s *asyncSlot) Init(c *Component, idx int) {
	s.c = c
	s.idx = idx
}
func (s *asyncSlot) Ready() bool { return s.ready }
func (s *asyncSlot) Value() any  { return s.value }
func (s *asyncSlot) DepsChanged(next any) bool {
	s.value = next
	return true
}
func (s *asyncSlot) Invalidated() bool { return false }
func (s *asyncSlot) Destroy()          {}

// Resolve delivers the awaited value and signals readiness.
func (s *asyncSlot) Resolve(v any) {
	s.value = v
	s.ready = true
	s.c.ReadyHook(s.idx)
}

func asyncHook(name string, out **asyncSlot) SlotDescriptor {
	return SlotDescriptor{
		Name: name,
		Build: func(c *Component) Slot {
			s := &asyncSlot{}
			*out = s
			return s
		},
	}
}

// counterConfig wires two chained value hooks into a render:
// hook 0 reads args, hook 1 doubles it, render formats hook 1.
func counterConfig() *Config {
	base := ValueHook("base", func(c *Component) any {
		n, _ := c.Args().(int)
		return n
	})
	base.Affects = Bits(1)

	doubled := ValueHook("doubled", func(c *Component) any {
		n, _ := c.HookValue(0).(int)
		return n * 2
	})
	doubled.DependsOn = Bits(0)
	doubled.RenderDep = true

	return &Config{
		Name:       "counter",
		Slots:      []SlotDescriptor{base, doubled},
		ArgsAffect: Bits(0),
		Render: func(c *Component) any {
			return fmt.Sprintf("doubled=%v", c.HookValue(1))
		},
	}
}

func TestMountRendersOnce(t *testing.T) {
	rt := newTestRuntime()
	target := &RecordingTarget{}

	c, err := rt.MountComponent(counterConfig(), WithTarget(target), WithArgs(3))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	updates := target.Updates()
	if len(updates) != 1 {
		t.Fatalf("expected 1 render on mount, got %d", len(updates))
	}
	if updates[0] != "doubled=6" {
		t.Errorf("expected doubled=6, got %v", updates[0])
	}
	if c.RenderCount() != 1 {
		t.Errorf("expected render count 1, got %d", c.RenderCount())
	}
}

func TestSetArgsCascadesAndRendersOnce(t *testing.T) {
	rt := newTestRuntime()
	target := &RecordingTarget{}
	c, err := rt.MountComponent(counterConfig(), WithTarget(target), WithArgs(3))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	c.SetArgs(5)
	rt.Scheduler().Flush()

	updates := target.Updates()
	if len(updates) != 2 {
		t.Fatalf("expected 2 renders total, got %d", len(updates))
	}
	if updates[1] != "doubled=10" {
		t.Errorf("expected doubled=10, got %v", updates[1])
	}
}

func TestSetArgsEqualValueIsNoop(t *testing.T) {
	rt := newTestRuntime()
	target := &RecordingTarget{}
	c, _ := rt.MountComponent(counterConfig(), WithTarget(target), WithArgs(3))

	c.SetArgs(3)
	rt.Scheduler().Flush()

	if len(target.Updates()) != 1 {
		t.Errorf("equal args should not re-render, got %d updates", len(target.Updates()))
	}
}

func TestInvalidateWithoutChangeSkipsRender(t *testing.T) {
	rt := newTestRuntime()
	target := &RecordingTarget{}
	c, _ := rt.MountComponent(counterConfig(), WithTarget(target), WithArgs(3))

	// A plain value hook re-checked without upstream changes reports no
	// change, so the pass completes without rendering.
	c.InvalidateHook(1)
	rt.Scheduler().Flush()

	if len(target.Updates()) != 1 {
		t.Errorf("unchanged invalidation should not render, got %d updates", len(target.Updates()))
	}
	if c.RenderSkips() != 1 {
		t.Errorf("expected 1 render skip, got %d", c.RenderSkips())
	}
}

func TestSuspendAndResume(t *testing.T) {
	rt := newTestRuntime()
	target := &RecordingTarget{}

	var async *asyncSlot
	waiting := asyncHook("awaited", &async)
	waiting.Affects = Bits(1)

	shown := ValueHook("shown", func(c *Component) any {
		return c.HookValue(0)
	})
	shown.DependsOn = Bits(0)
	shown.RenderDep = true

	cfg := &Config{
		Name:  "loader",
		Slots: []SlotDescriptor{waiting, shown},
		Render: func(c *Component) any {
			return c.HookValue(1)
		},
	}

	c, err := rt.MountComponent(cfg, WithTarget(target))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	if !c.Suspended() {
		t.Fatalf("component should suspend at the unready hook")
	}
	if len(target.Updates()) != 0 {
		t.Fatalf("suspended component must not render, got %d updates", len(target.Updates()))
	}

	async.Resolve("loaded")
	rt.Scheduler().Flush()

	if c.Suspended() {
		t.Fatalf("component should have resumed")
	}
	updates := target.Updates()
	if len(updates) != 1 || updates[0] != "loaded" {
		t.Errorf("expected single render with loaded, got %v", updates)
	}
}

func TestStaleResumeIgnored(t *testing.T) {
	rt := newTestRuntime()
	c, _ := rt.MountComponent(counterConfig(), WithArgs(1))

	before := c.RenderCount()
	c.ReadyHook(5)
	rt.Scheduler().Flush()

	if c.Suspended() {
		t.Errorf("stale resume must not change suspension state")
	}
	if c.RenderCount() != before {
		t.Errorf("stale resume must not trigger work")
	}
}

func TestHookPanicFailsComponent(t *testing.T) {
	boom := errors.New("hook exploded")
	var failedComp *Component
	var failedErr error

	rt := newTestRuntime(WithErrorHandler(func(c *Component, err error) {
		failedComp = c
		failedErr = err
	}))

	cfg := &Config{
		Name: "fragile",
		Slots: []SlotDescriptor{
			ValueHook("bad", func(c *Component) any { panic(boom) }),
		},
		Render: func(c *Component) any { return nil },
	}

	c, err := rt.MountComponent(cfg)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	if !c.Failed() {
		t.Fatalf("component should be marked failed")
	}
	if failedComp != c {
		t.Errorf("error handler should receive the failed component")
	}
	if failedErr == nil || !errors.Is(failedErr, boom) {
		t.Errorf("error handler should wrap the panic value, got %v", failedErr)
	}

	// Failed components ignore further work.
	c.InvalidateHook(0)
	rt.Scheduler().Flush()
	if c.RenderCount() != 0 {
		t.Errorf("failed component must not render")
	}
}

func TestDestroyTearsDown(t *testing.T) {
	rt := newTestRuntime()
	target := &RecordingTarget{}
	c, _ := rt.MountComponent(counterConfig(), WithTarget(target), WithArgs(1))

	c.Destroy()

	if !c.Destroyed() {
		t.Fatalf("component should be destroyed")
	}
	if !target.Destroyed() {
		t.Errorf("render target should be destroyed")
	}
	if rt.Component(c.ID()) != nil {
		t.Errorf("destroyed component should leave the runtime registry")
	}

	c.InvalidateHook(0)
	rt.Scheduler().Flush()
	if len(target.Updates()) != 1 {
		t.Errorf("destroyed component must not render again")
	}
}

func TestTooManyHooks(t *testing.T) {
	slots := make([]SlotDescriptor, MaxHooks+1)
	for i := range slots {
		slots[i] = ValueHook(fmt.Sprintf("h%d", i), nil)
	}
	cfg := &Config{Name: "wide", Slots: slots, Render: func(c *Component) any { return nil }}

	rt := newTestRuntime()
	if _, err := rt.MountComponent(cfg); !errors.Is(err, ErrTooManyHooks) {
		t.Errorf("expected ErrTooManyHooks, got %v", err)
	}
}

func TestEventBubbling(t *testing.T) {
	rt := newTestRuntime()

	var handledBy string
	parentCfg := &Config{
		Name:   "parent",
		Render: func(c *Component) any { return nil },
		Events: map[EventID]HandlerFunc{
			"save": func(c *Component, ev Event) { handledBy = "parent" },
		},
	}
	childCfg := &Config{
		Name:   "child",
		Render: func(c *Component) any { return nil },
	}

	parent, _ := rt.MountComponent(parentCfg)
	child, _ := rt.MountComponent(childCfg, WithParent(parent))

	child.Dispatch(Event{ID: "save"})
	if handledBy != "parent" {
		t.Errorf("event should bubble to the parent handler, got %q", handledBy)
	}
}
