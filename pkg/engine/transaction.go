package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/strandui/strand/pkg/store"
)

// EffectRequest is a side effect a transaction handler wants performed
// after commit: an HTTP call, a timer, a navigation. Handlers stay pure
// over the store; requested effects run through the runtime's effect
// sink once the data change is durable.
type EffectRequest struct {
	Name    string
	Payload map[string]any
}

// TxEnv is the environment a transaction handler operates in. Handlers
// receive it, thread the transaction handle through their writes, and
// return it.
type TxEnv struct {
	// DB is the open transaction over the pre-event snapshot.
	DB store.Tx

	// Effects accumulates post-commit effect requests.
	Effects []EffectRequest
}

// Effect appends a post-commit effect request.
func (env TxEnv) Effect(name string, payload map[string]any) TxEnv {
	env.Effects = append(env.Effects, EffectRequest{Name: name, Payload: payload})
	return env
}

// TxHandler turns one event into store writes and effect requests.
// Handlers run on the engine's execution context with exclusive store
// access; they must not block.
type TxHandler func(env TxEnv, ev Event) TxEnv

// Submit hands an externally produced event to the runtime: a websocket
// message, a timer firing, a test driving the engine. Unknown events
// are dropped with a diagnostic.
func (rt *Runtime) Submit(ev Event) {
	rt.mu.Lock()
	_, known := rt.handlers[ev.ID]
	rt.mu.Unlock()

	if !known {
		rt.log.Warn("unknown event", "event", ev.ID, "code", "E020")
		rt.metrics.noteDroppedEvent()
		return
	}
	rt.sched.RunNow(func() { rt.RunTransaction(ev, nil) }, "tx:"+string(ev.ID))
}

// RunTransaction executes the handler registered for ev against the
// current snapshot, installs the result, and invalidates every query
// whose read keys intersect the change set. It must run on the
// scheduler's execution context (Dispatch and Submit arrange this).
//
// Handler panics are not recovered here: a transaction handler that
// fails midway has corrupted nothing (the snapshot swap never happened)
// but indicates a data-layer bug the process should surface loudly.
func (rt *Runtime) RunTransaction(ev Event, origin *Component) {
	handler := rt.lookupHandler(ev.ID)
	if handler == nil {
		rt.log.Warn("unknown event", "event", ev.ID, "code", "E020")
		rt.metrics.noteDroppedEvent()
		return
	}

	originName := "external"
	if origin != nil {
		originName = origin.cfg.Name
	}
	_, span := rt.tracer.Start(context.Background(), "strand.tx",
		trace.WithAttributes(
			attribute.String("event", string(ev.ID)),
			attribute.String("origin", originName),
		))
	defer span.End()

	start := time.Now()
	before := rt.Snapshot()

	env := TxEnv{DB: store.NewTx(before)}
	env = handler(env, ev)
	res := env.DB.Commit()

	noop := res.Data == before
	if !noop {
		rt.mu.Lock()
		if rt.snapshot != before {
			rt.mu.Unlock()
			panic(ErrConcurrentMutation)
		}
		rt.snapshot = res.Data
		rt.mu.Unlock()
	}

	refreshed := 0
	if !noop {
		refreshed = rt.fanOut(res.ChangedKeys())
	}

	rt.deliverEffects(env.Effects)

	elapsed := time.Since(start)
	rt.metrics.noteTransaction(noop, elapsed.Seconds(), refreshed)
	span.SetAttributes(
		attribute.Bool("noop", noop),
		attribute.Int("refreshed", refreshed),
		attribute.Int("added", len(res.Added)),
		attribute.Int("updated", len(res.Updated)),
		attribute.Int("removed", len(res.Removed)),
	)

	if len(rt.observers) > 0 {
		rec := TxRecord{
			Event:     ev.ID,
			Origin:    originName,
			Noop:      noop,
			Added:     res.Added.Slice(),
			Updated:   res.Updated.Slice(),
			Removed:   res.Removed.Slice(),
			Refreshed: refreshed,
			Duration:  elapsed,
		}
		for _, o := range rt.observers {
			o.ObserveTx(rec)
		}
	}

	rt.log.Debug("transaction committed",
		"event", ev.ID, "origin", originName, "noop", noop,
		"changed", len(res.Added)+len(res.Updated)+len(res.Removed),
		"refreshed", refreshed, "elapsed", elapsed)
}

func (rt *Runtime) lookupHandler(id EventID) TxHandler {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.handlers[id]
}

// fanOut checks every live query node against every changed key and
// refreshes the affected ones. Deliberately a linear scan; see
// QueryNode.
func (rt *Runtime) fanOut(changed store.KeySet) int {
	rt.mu.Lock()
	nodes := make([]*QueryNode, 0, len(rt.queries))
	for _, n := range rt.queries {
		nodes = append(nodes, n)
	}
	rt.mu.Unlock()

	refreshed := 0
	for _, n := range nodes {
		for key := range changed {
			if n.AffectedBy(key) {
				n.Refresh()
				refreshed++
				break
			}
		}
	}
	return refreshed
}

func (rt *Runtime) deliverEffects(effects []EffectRequest) {
	for _, req := range effects {
		if rt.effectSink == nil {
			rt.log.Warn("effect requested without a sink", "effect", req.Name)
			continue
		}
		rt.effectSink(req)
	}
}
