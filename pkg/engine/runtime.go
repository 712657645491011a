package engine

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/strandui/strand/pkg/query"
	"github.com/strandui/strand/pkg/store"
)

// Runtime owns everything the engine shares: the current store
// snapshot, the live query nodes, the mounted components, the
// registered transaction handlers, and the scheduler that serializes
// all of their work.
//
// All engine work — hook evaluation, rendering, transactions — runs on
// the scheduler's single logical execution context. The runtime's mutex
// only guards the registries touched from outside it (snapshot reads,
// handler registration, observable notifications).
type Runtime struct {
	mu       sync.Mutex
	snapshot *store.Snapshot

	queries    map[uint64]*QueryNode
	components map[uint64]*Component
	handlers   map[EventID]TxHandler

	sched    *Scheduler
	log      *slog.Logger
	exec     query.Executor
	queryEnv any

	metrics      *Metrics
	tracer       trace.Tracer
	errorHandler func(c *Component, err error)
	observers    []Observer
	effectSink   func(req EffectRequest)
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(rt *Runtime) { rt.log = log }
}

// WithScheduler replaces the scheduler. Tests use this to install a
// manual tick.
func WithScheduler(s *Scheduler) Option {
	return func(rt *Runtime) { rt.sched = s }
}

// WithExecutor replaces the query executor. Defaults to PullExecutor.
func WithExecutor(exec query.Executor) Option {
	return func(rt *Runtime) { rt.exec = exec }
}

// WithQueryEnv sets the opaque environment handed to every query
// execution.
func WithQueryEnv(env any) Option {
	return func(rt *Runtime) { rt.queryEnv = env }
}

// WithInitialData seeds the store. The map is copied.
func WithInitialData(data map[any]any) Option {
	return func(rt *Runtime) { rt.snapshot = store.SnapshotOf(data) }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *Metrics) Option {
	return func(rt *Runtime) { rt.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer; transactions become
// spans.
func WithTracer(t trace.Tracer) Option {
	return func(rt *Runtime) { rt.tracer = t }
}

// WithErrorHandler sets the callback invoked when a component fails.
// The default logs the failure.
func WithErrorHandler(fn func(c *Component, err error)) Option {
	return func(rt *Runtime) { rt.errorHandler = fn }
}

// WithObserver registers a lifecycle observer. May be given multiple
// times.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) { rt.observers = append(rt.observers, o) }
}

// WithEffectSink sets the consumer for effect requests returned by
// transaction handlers. Without one, requested effects are logged and
// dropped.
func WithEffectSink(fn func(req EffectRequest)) Option {
	return func(rt *Runtime) { rt.effectSink = fn }
}

// NewRuntime creates a Runtime with an empty store.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		snapshot:   store.NewSnapshot(),
		queries:    make(map[uint64]*QueryNode),
		components: make(map[uint64]*Component),
		handlers:   make(map[EventID]TxHandler),
		log:        slog.Default(),
		exec:       query.PullExecutor{},
		tracer:     noop.NewTracerProvider().Tracer("strand"),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.sched == nil {
		rt.sched = NewScheduler(WithSchedulerLogger(rt.log))
	}
	return rt
}

// Scheduler returns the runtime's scheduler.
func (rt *Runtime) Scheduler() *Scheduler { return rt.sched }

// AddObserver registers a lifecycle observer after construction. The
// inspector registers its hub this way: the hub needs the runtime to
// exist first.
func (rt *Runtime) AddObserver(o Observer) {
	rt.observers = append(rt.observers, o)
}

// Snapshot returns the current store snapshot. Snapshots are immutable;
// callers may hold them across ticks and compare them by pointer.
func (rt *Runtime) Snapshot() *store.Snapshot {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.snapshot
}

// RegisterEventHandler binds a transaction handler to an event id.
// Events reaching the runtime root without a binding are dropped with a
// diagnostic.
func (rt *Runtime) RegisterEventHandler(id EventID, h TxHandler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.handlers[id] = h
}

// =============================================================================
// Component lifecycle
// =============================================================================

// MountOption configures a mount.
type MountOption func(*mountConfig)

type mountConfig struct {
	parent *Component
	target RenderTarget
	args   any
}

// WithParent mounts the component under parent; it inherits
// parent.depth+1 and bubbles events to it.
func WithParent(p *Component) MountOption {
	return func(m *mountConfig) { m.parent = p }
}

// WithTarget sets the render target. Defaults to NoopTarget.
func WithTarget(t RenderTarget) MountOption {
	return func(m *mountConfig) { m.target = t }
}

// WithArgs sets the component's initial args.
func WithArgs(args any) MountOption {
	return func(m *mountConfig) { m.args = args }
}

// MountComponent instantiates cfg, registers the component, and runs
// its first work pass synchronously. The component always renders on
// mount (unless it suspends first): an unrendered mounted component is
// not a valid state.
func (rt *Runtime) MountComponent(cfg *Config, opts ...MountOption) (*Component, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var mc mountConfig
	for _, opt := range opts {
		opt(&mc)
	}
	if mc.target == nil {
		mc.target = NoopTarget{}
	}

	c := &Component{
		id:          nextID(),
		cfg:         cfg,
		rt:          rt,
		parent:      mc.parent,
		target:      mc.target,
		args:        mc.args,
		slots:       make([]Slot, len(cfg.Slots)),
		needsRender: cfg.Render != nil,
	}
	if mc.parent != nil {
		c.depth = mc.parent.depth + 1
	}

	rt.mu.Lock()
	rt.components[c.id] = c
	rt.mu.Unlock()
	rt.metrics.noteComponentCount(1)

	rt.sched.RunNow(func() {
		rt.sched.Schedule(c)
	}, "mount:"+cfg.Name)

	return c, nil
}

// Component returns the mounted component with the given id, or nil.
func (rt *Runtime) Component(id uint64) *Component {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.components[id]
}

// Components returns a snapshot of all mounted components.
func (rt *Runtime) Components() []*Component {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]*Component, 0, len(rt.components))
	for _, c := range rt.components {
		out = append(out, c)
	}
	return out
}

func (rt *Runtime) dropComponent(c *Component) {
	rt.mu.Lock()
	_, present := rt.components[c.id]
	delete(rt.components, c.id)
	rt.mu.Unlock()
	if present {
		rt.metrics.noteComponentCount(-1)
	}
}

func (rt *Runtime) noteRender(c *Component, skipped bool) {
	rt.metrics.noteRender(skipped)
	rec := RenderRecord{Component: c.cfg.Name, ID: c.id, Skipped: skipped}
	for _, o := range rt.observers {
		o.ObserveRender(rec)
	}
}

func (rt *Runtime) reportFailure(c *Component, err error) {
	if rt.errorHandler != nil {
		rt.errorHandler(c, err)
	} else {
		rt.log.Error("component failed",
			"component", c.cfg.Name, "id", c.id, "error", err)
	}
	for _, o := range rt.observers {
		o.ObserveFailure(c.cfg.Name, err)
	}
}

// =============================================================================
// Query registry
// =============================================================================

func (rt *Runtime) addQuery(n *QueryNode) {
	rt.mu.Lock()
	rt.queries[n.id] = n
	rt.mu.Unlock()
	rt.metrics.noteQueryCount(1)
}

func (rt *Runtime) removeQuery(id uint64) {
	rt.mu.Lock()
	_, present := rt.queries[id]
	delete(rt.queries, id)
	rt.mu.Unlock()
	if present {
		rt.metrics.noteQueryCount(-1)
	}
}

// Queries returns a snapshot of the live query nodes.
func (rt *Runtime) Queries() []*QueryNode {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]*QueryNode, 0, len(rt.queries))
	for _, n := range rt.queries {
		out = append(out, n)
	}
	return out
}
