package engine

import (
	"log/slog"
	"runtime"
	"sync"
)

// Work is a schedulable unit — in practice a Component. Depth orders the
// pending set so parents run before the children they might destroy.
type Work interface {
	RunWork()
	WorkDepth() int
	WorkID() uint64
}

// TickFunc schedules a deferred drain. The default runs it on a fresh
// goroutine, the nearest equivalent of a microtask; tests install a
// manual tick to control exactly when batched work runs.
type TickFunc func(drain func())

// Scheduler collects dirty components and drains them one at a time,
// shallowest first. Two modes: RunNow executes an action and drains all
// resulting work before returning (input-triggered updates); Schedule
// adds to the pending set and batches the drain onto the next tick
// (invalidations arriving outside an input event).
//
// Exactly one logical pass runs at a time. The busy flag plus its
// condition variable serialize entry across goroutines: a RunNow
// arriving while another goroutine owns the drain waits for it to
// finish. Only calls from the owning goroutine itself (an event handler
// dispatching another event mid-drain) take the inline re-entrant path.
type Scheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending map[uint64]Work

	// busy is true while a drain (or RunNow action) owns the logical
	// execution context; owner is the goroutine holding it.
	busy  bool
	owner uint64

	// tickArmed is true while a deferred drain is waiting to run.
	tickArmed bool

	tick TickFunc
	log  *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTick replaces the deferred-drain trigger.
func WithTick(tick TickFunc) SchedulerOption {
	return func(s *Scheduler) { s.tick = tick }
}

// WithSchedulerLogger sets the scheduler's logger.
func WithSchedulerLogger(log *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = log }
}

// NewScheduler creates a Scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pending: make(map[uint64]Work),
		tick:    func(drain func()) { go drain() },
		log:     slog.Default(),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// goroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header ("goroutine <id> ..."). An
// implementation detail of re-entrancy detection, never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// Schedule adds work to the pending set. Outside a drain, it arms the
// deferred tick; during a drain, the owner picks the work up before it
// releases the execution context, so nothing else is needed.
func (s *Scheduler) Schedule(w Work) {
	s.mu.Lock()
	s.pending[w.WorkID()] = w
	if s.busy || s.tickArmed {
		s.mu.Unlock()
		return
	}
	s.tickArmed = true
	tick := s.tick
	s.mu.Unlock()

	tick(s.drainTick)
}

// Unschedule removes work from the pending set. Destroyed components
// call this so in-flight invalidations stop reaching them.
func (s *Scheduler) Unschedule(w Work) {
	s.mu.Lock()
	delete(s.pending, w.WorkID())
	s.mu.Unlock()
}

// DidSuspend removes suspended work from the pending set; it re-enters
// via Schedule when its ready signal arrives.
func (s *Scheduler) DidSuspend(w Work) {
	s.Unschedule(w)
}

// DidFinish removes completed work from the pending set.
func (s *Scheduler) DidFinish(w Work) {
	s.Unschedule(w)
}

// RunNow runs an action synchronously and drains all pending work before
// returning. trigger names the cause for logging. A re-entrant call from
// the goroutine that already owns the execution context runs the action
// inline and leaves the drain to the outer call; a call from any other
// goroutine waits until the context is free.
func (s *Scheduler) RunNow(action func(), trigger string) {
	gid := goroutineID()

	s.mu.Lock()
	if s.busy && s.owner == gid {
		s.mu.Unlock()
		action()
		return
	}
	for s.busy {
		s.cond.Wait()
	}
	s.busy = true
	s.owner = gid
	s.mu.Unlock()

	s.log.Debug("scheduler run-now", "trigger", trigger)
	action()
	s.drain()
	s.release()
}

// Flush drains pending work synchronously, as if the deferred tick fired
// immediately. Tests and embedders driving their own loop use this.
func (s *Scheduler) Flush() {
	s.drainTick()
}

// HasPending reports whether any work is waiting.
func (s *Scheduler) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// drainTick is the deferred entry point.
func (s *Scheduler) drainTick() {
	gid := goroutineID()

	s.mu.Lock()
	s.tickArmed = false
	if s.busy {
		// The current owner re-checks pending before releasing, so
		// whatever this tick was armed for will be drained.
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.owner = gid
	s.mu.Unlock()

	s.drain()
	s.release()
}

// release gives up the execution context. Work scheduled by another
// goroutine can land between the drain's last empty check and this
// point; re-checking pending under the same lock that clears busy
// closes that window.
func (s *Scheduler) release() {
	s.mu.Lock()
	for len(s.pending) > 0 {
		s.mu.Unlock()
		s.drain()
		s.mu.Lock()
	}
	s.busy = false
	s.owner = 0
	s.cond.Broadcast()
	s.mu.Unlock()
}

// drain runs pending work until the set is empty, always picking the
// shallowest component first (ties broken by creation order). The set
// may grow while draining; the loop re-checks every iteration.
func (s *Scheduler) drain() {
	for {
		w := s.takeNext()
		if w == nil {
			return
		}
		w.RunWork()
	}
}

// takeNext removes and returns the shallowest pending work item.
func (s *Scheduler) takeNext() Work {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best Work
	for _, w := range s.pending {
		if best == nil {
			best = w
			continue
		}
		if w.WorkDepth() < best.WorkDepth() ||
			(w.WorkDepth() == best.WorkDepth() && w.WorkID() < best.WorkID()) {
			best = w
		}
	}
	if best != nil {
		delete(s.pending, best.WorkID())
	}
	return best
}
