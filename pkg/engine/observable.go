package engine

import (
	"reflect"
	"sync"
)

// Observable is an external cell components can watch: a value that
// changes outside the store, such as a clock, a connection status, or a
// stream of measurements. Setting it invalidates every watching hook;
// the resulting work batches onto the scheduler's next tick like any
// other out-of-band invalidation.
type Observable struct {
	mu    sync.Mutex
	value any

	// subs maps subscription ids to notify callbacks. Callbacks must be
	// cheap; they only mark hooks dirty.
	subs   map[uint64]func()
	nextID uint64
}

// NewObservable creates an Observable holding initial.
func NewObservable(initial any) *Observable {
	return &Observable{
		value: initial,
		subs:  make(map[uint64]func()),
	}
}

// Get returns the current value.
func (o *Observable) Get() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set replaces the value and notifies subscribers. Setting an equal
// value still notifies; watching slots compare on their own and absorb
// no-op updates without re-rendering.
func (o *Observable) Set(v any) {
	o.mu.Lock()
	o.value = v
	notify := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		notify = append(notify, fn)
	}
	o.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

// Update applies fn to the current value under the lock, then notifies.
func (o *Observable) Update(fn func(old any) any) {
	o.mu.Lock()
	o.value = fn(o.value)
	notify := make([]func(), 0, len(o.subs))
	for _, sub := range o.subs {
		notify = append(notify, sub)
	}
	o.mu.Unlock()

	for _, sub := range notify {
		sub()
	}
}

func (o *Observable) subscribe(fn func()) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.subs[o.nextID] = fn
	return o.nextID
}

func (o *Observable) unsubscribe(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subs, id)
}

// =============================================================================
// WatchSlot — the hook variant subscribing to an Observable
// =============================================================================

// WatchHook declares a hook whose value tracks an Observable. source is
// re-evaluated when dependencies change; returning a different
// Observable re-subscribes the slot.
func WatchHook(name string, source func(c *Component) *Observable) SlotDescriptor {
	return SlotDescriptor{
		Name: name,
		Build: func(c *Component) Slot {
			return &WatchSlot{}
		},
		Expr: func(c *Component) any {
			return source(c)
		},
	}
}

// WatchSlot adapts an Observable to the Slot contract. The subscription
// callback only invalidates the owning hook; the actual value pull
// happens inside the component's work pass, on the engine's execution
// context.
type WatchSlot struct {
	c      *Component
	idx    int
	source *Observable
	subID  uint64
	value  any
}

// Init implements Slot: evaluates the source expression and subscribes
// to the Observable it names.
func (s *WatchSlot) Init(c *Component, idx int) {
	s.c = c
	s.idx = idx
	desc := &c.cfg.Slots[idx]
	if desc.Expr != nil {
		if obs, ok := desc.Expr(c).(*Observable); ok {
			s.attach(obs)
		}
	}
}

func (s *WatchSlot) attach(obs *Observable) {
	if s.source != nil {
		s.source.unsubscribe(s.subID)
	}
	s.source = obs
	if obs == nil {
		s.value = nil
		return
	}
	c, idx := s.c, s.idx
	s.subID = obs.subscribe(func() { c.InvalidateHook(idx) })
	s.value = obs.Get()
}

// Ready implements Slot.
func (s *WatchSlot) Ready() bool { return true }

// Value implements Slot.
func (s *WatchSlot) Value() any { return s.value }

// DepsChanged implements Slot: the source expression was re-evaluated.
// A different Observable means re-subscribe; the same one means pull.
func (s *WatchSlot) DepsChanged(next any) bool {
	obs, _ := next.(*Observable)
	prev := s.value
	if obs != s.source {
		s.attach(obs)
	} else if obs != nil {
		s.value = obs.Get()
	}
	return !reflect.DeepEqual(prev, s.value)
}

// Invalidated implements Slot: pull the current value and report
// whether it moved.
func (s *WatchSlot) Invalidated() bool {
	if s.source == nil {
		return false
	}
	next := s.source.Get()
	if reflect.DeepEqual(s.value, next) {
		return false
	}
	s.value = next
	return true
}

// Destroy implements Slot: drops the subscription.
func (s *WatchSlot) Destroy() {
	if s.source != nil {
		s.source.unsubscribe(s.subID)
		s.source = nil
	}
}
