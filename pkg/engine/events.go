package engine

// EventID is a symbolic event identifier. Symbolic events bubble from
// the component that raised them up the parent chain and finally to the
// runtime, which treats them as transaction requests.
type EventID string

// Event is a dispatched occurrence: an identifier plus its payload.
type Event struct {
	ID      EventID
	Payload map[string]any
}

// HandlerFunc handles an event at the component level.
type HandlerFunc func(c *Component, ev Event)

// Dispatch offers the event to this component's own handler, then
// bubbles up the parent chain, and finally hands it to the runtime as a
// transaction request. Handlers run synchronously: dispatch is
// input-triggered work, so the scheduler drains before Dispatch
// returns.
func (c *Component) Dispatch(ev Event) {
	if c.destroyed {
		return
	}

	for comp := c; comp != nil; comp = comp.parent {
		if comp.destroyed {
			continue
		}
		if h, ok := comp.cfg.Events[ev.ID]; ok {
			target := comp
			c.rt.sched.RunNow(func() { h(target, ev) }, "event:"+string(ev.ID))
			return
		}
	}

	c.rt.dispatchRootEvent(ev, c)
}

// DispatchFunc runs an inline handler. Inline functions never bubble;
// they are the handler.
func (c *Component) DispatchFunc(fn func(c *Component)) {
	if c.destroyed {
		return
	}
	c.rt.sched.RunNow(func() { fn(c) }, "event:inline")
}

// dispatchRootEvent is the end of the bubble chain: the runtime treats
// the event as a transaction request. No registered transaction handler
// means the event is dropped with a diagnostic — a single bad event
// must not halt the UI.
func (rt *Runtime) dispatchRootEvent(ev Event, origin *Component) {
	rt.mu.Lock()
	_, known := rt.handlers[ev.ID]
	rt.mu.Unlock()

	if !known {
		rt.log.Warn("unhandled component event",
			"event", ev.ID, "origin", origin.cfg.Name, "code", "E021")
		rt.metrics.noteDroppedEvent()
		return
	}

	rt.sched.RunNow(func() { rt.RunTransaction(ev, origin) }, "tx:"+string(ev.ID))
}
