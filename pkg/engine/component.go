package engine

import (
	"fmt"
	"reflect"

	rterrors "github.com/strandui/strand/internal/errors"
)

// Config declares a component: its ordered hook slots, the render
// function, and its event handlers. Configs are stable; one Config
// typically backs many component instances.
type Config struct {
	// Name identifies the component in logs, traces, and the inspector.
	Name string

	// Slots are the hook descriptors, evaluated in index order.
	Slots []SlotDescriptor

	// ArgsAffect holds the hook indices re-evaluated when the
	// component's args change.
	ArgsAffect Mask

	// Render produces the component's output from its hook values. May
	// be nil for headless components.
	Render func(c *Component) any

	// Events maps event identifiers to this component's handlers.
	// Events not found here bubble to the parent, then to the runtime.
	Events map[EventID]HandlerFunc
}

// Validate checks the config against the engine's structural limits.
func (cfg *Config) Validate() error {
	if len(cfg.Slots) > MaxHooks {
		return fmt.Errorf("%w: %q declares %d slots, limit %d",
			ErrTooManyHooks, cfg.Name, len(cfg.Slots), MaxHooks)
	}
	if cfg.Render == nil && len(cfg.Slots) == 0 {
		return fmt.Errorf("%w: %q", ErrNilRender, cfg.Name)
	}
	return nil
}

// Component is one live instance of a Config: the ordered slot array,
// the dirty/updated bitmasks, and the work pass that keeps them
// consistent. All methods must be called from the engine's single
// logical execution context.
type Component struct {
	id     uint64
	cfg    *Config
	rt     *Runtime
	parent *Component
	depth  int
	target RenderTarget

	args        any
	argsChanged bool

	// slots is positional; entries are built lazily, one per
	// descriptor, the first time the work pass reaches their index.
	slots []Slot

	// current is the work pass position. Invalidation below current
	// rewinds it; the pass restarts from there.
	current int

	dirty       Mask
	updated     Mask
	needsRender bool

	suspended bool
	destroyed bool
	failed    bool

	afterRender []func()

	renderCount int
	renderSkips int
}

// ID returns the component's unique id.
func (c *Component) ID() uint64 { return c.id }

// Name returns the config name.
func (c *Component) Name() string { return c.cfg.Name }

// Runtime returns the owning runtime.
func (c *Component) Runtime() *Runtime { return c.rt }

// Args returns the component's current args.
func (c *Component) Args() any { return c.args }

// Destroyed reports whether the component has been torn down.
func (c *Component) Destroyed() bool { return c.destroyed }

// Suspended reports whether the work pass is halted at an unready slot.
func (c *Component) Suspended() bool { return c.suspended }

// Failed reports whether a hook or render panic marked the component
// failed.
func (c *Component) Failed() bool { return c.failed }

// RenderCount returns how many times the component actually rendered.
func (c *Component) RenderCount() int { return c.renderCount }

// RenderSkips returns how many passes completed without rendering
// because no render input changed. Skips are deliberate, not errors.
func (c *Component) RenderSkips() int { return c.renderSkips }

// HookValue returns the value of the slot at idx. Only valid for slots
// at or below the current work position.
func (c *Component) HookValue(idx int) any {
	if idx < 0 || idx >= len(c.slots) || c.slots[idx] == nil {
		return nil
	}
	return c.slots[idx].Value()
}

// WorkID implements Work.
func (c *Component) WorkID() uint64 { return c.id }

// WorkDepth implements Work.
func (c *Component) WorkDepth() int { return c.depth }

// RunWork implements Work: one full pass over the hook array, then at
// most one render. A hook or render panic is caught here, routed to the
// runtime's error handler, and marks the component failed without
// touching siblings or the scheduler.
func (c *Component) RunWork() {
	if c.destroyed || c.failed {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			c.fail(rec)
		}
	}()

	for !c.suspended && !c.destroyed && c.current < len(c.cfg.Slots) {
		c.processSlot(c.current)
	}
	if c.suspended || c.destroyed {
		return
	}

	c.finishPass()
}

// processSlot handles one index of the work pass: build on first visit,
// re-evaluate or re-check when dirty, otherwise advance.
func (c *Component) processSlot(i int) {
	desc := &c.cfg.Slots[i]
	slot := c.slots[i]

	if slot == nil {
		slot = c.buildSlot(desc)
		c.slots[i] = slot
		slot.Init(c, i)
		c.dirty = c.dirty.Clear(i)
		c.markUpdated(i, desc)
		if !slot.Ready() {
			c.suspend()
			return
		}
		c.current = i + 1
		return
	}

	if c.dirty.Has(i) {
		var changed bool
		if c.updated&desc.DependsOn != 0 || (c.argsChanged && c.cfg.ArgsAffect.Has(i)) {
			changed = slot.DepsChanged(c.evalExpr(desc))
		} else {
			changed = slot.Invalidated()
		}
		c.dirty = c.dirty.Clear(i)
		if changed {
			c.markUpdated(i, desc)
		}
		if !slot.Ready() {
			c.suspend()
			return
		}
	}

	c.current = i + 1
}

func (c *Component) buildSlot(desc *SlotDescriptor) Slot {
	if desc.Build != nil {
		return desc.Build(c)
	}
	return &StaticSlot{expr: desc.Expr}
}

func (c *Component) evalExpr(desc *SlotDescriptor) any {
	if desc.Expr == nil {
		return nil
	}
	return desc.Expr(c)
}

// markUpdated records a value change at index i and cascades the dirty
// bits into the hooks it affects.
func (c *Component) markUpdated(i int, desc *SlotDescriptor) {
	c.updated = c.updated.Set(i)
	c.dirty |= desc.Affects
	if desc.RenderDep {
		c.needsRender = true
	}
}

// finishPass renders (at most once) and resets the per-pass state.
// Terminal stability: after this returns, dirty == 0 and needsRender is
// false.
func (c *Component) finishPass() {
	if c.needsRender && c.cfg.Render != nil {
		out := c.cfg.Render(c)
		c.target.Update(out)
		c.renderCount++
		c.rt.noteRender(c, false)
	} else if c.needsRender || c.cfg.Render != nil {
		c.renderSkips++
		c.rt.noteRender(c, true)
	}

	c.updated = 0
	c.argsChanged = false
	c.needsRender = false

	c.rt.sched.DidFinish(c)
	c.runAfterRender()
}

// suspend halts the pass at the current index. Only reachable from
// processSlot, so the halted index is always the slot being evaluated.
func (c *Component) suspend() {
	c.suspended = true
	c.rt.metrics.noteSuspension()
	c.rt.sched.DidSuspend(c)
}

// ReadyHook resumes a component suspended at exactly index idx. A ready
// signal for any other index is stale: logged, state untouched.
func (c *Component) ReadyHook(idx int) {
	if c.destroyed {
		return
	}
	if !c.suspended || c.current != idx {
		c.rt.log.Warn("stale suspend resume",
			"component", c.cfg.Name, "index", idx, "current", c.current,
			"suspended", c.suspended, "code", "E040")
		return
	}

	c.suspended = false
	desc := &c.cfg.Slots[idx]
	c.dirty = c.dirty.Clear(idx)
	c.markUpdated(idx, desc)
	c.current = idx + 1
	c.rt.sched.Schedule(c)
}

// InvalidateHook marks the slot at idx dirty and schedules the
// component. Invalidating an index below the current work position
// rewinds the pass so the request is never skipped; a suspended
// component rewound below its suspension point resumes working (it will
// re-suspend when it reaches the unready slot again).
func (c *Component) InvalidateHook(idx int) {
	if c.destroyed || c.failed {
		return
	}
	c.dirty = c.dirty.Set(idx)
	if idx < c.current {
		c.current = idx
		c.suspended = false
	}
	c.rt.sched.Schedule(c)
}

// SetArgs replaces the component's args. Hooks tagged in ArgsAffect are
// marked dirty and the pass rewinds to the lowest affected index.
func (c *Component) SetArgs(args any) {
	if c.destroyed {
		return
	}
	if reflect.DeepEqual(c.args, args) {
		return
	}
	c.args = args
	c.argsChanged = true
	if c.cfg.ArgsAffect.Any() {
		c.dirty |= c.cfg.ArgsAffect
		if low := c.cfg.ArgsAffect.Lowest(); low < c.current {
			c.current = low
			c.suspended = false
		}
		c.rt.sched.Schedule(c)
	}
}

// Destroy tears the component down: unschedules it, destroys every
// built slot, then the render target. Destroyed components ignore all
// further scheduling and invalidation.
func (c *Component) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.rt.sched.Unschedule(c)

	for _, s := range c.slots {
		if s != nil {
			s.Destroy()
		}
	}
	c.afterRender = nil

	if c.target != nil {
		c.target.Destroy(true)
	}
	c.rt.dropComponent(c)
}

// queueAfterRender defers fn to the end of the current pass. Effect
// slots use this so their side effects run after the render, never
// during hook evaluation.
func (c *Component) queueAfterRender(fn func()) {
	c.afterRender = append(c.afterRender, fn)
}

func (c *Component) runAfterRender() {
	fns := c.afterRender
	c.afterRender = nil
	for _, fn := range fns {
		if c.destroyed || c.failed {
			return
		}
		fn()
	}
}

// fail marks the component failed and routes the panic value to the
// runtime's error handler. The component will not render again.
func (c *Component) fail(rec any) {
	c.failed = true
	c.rt.sched.DidFinish(c)

	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", rec)
	}
	ee := rterrors.FromError(err, "E041").
		WithDetail(fmt.Sprintf("component %q failed at hook index %d", c.cfg.Name, c.current))

	c.rt.metrics.noteComponentFailure()
	c.rt.reportFailure(c, ee)
}
