package engine

import "sync"

// RenderTarget consumes a component's render output. DOM construction
// and diffing live behind this interface; the engine only hands over the
// raw render result and lifecycle signals.
type RenderTarget interface {
	// Update receives the render function's return value after a pass
	// in which render inputs changed.
	Update(out any)

	// Destroy tears the target down. immediate suppresses any exit
	// animation the target might otherwise run.
	Destroy(immediate bool)

	// DOMFirst returns the target's first DOM node, or nil.
	DOMFirst() any

	// DOMInsert places the target's nodes under parent before anchor.
	DOMInsert(parent, anchor any)

	// DOMEntered signals that the target's nodes are live in the
	// document.
	DOMEntered()
}

// NoopTarget discards render output. It is the default target for
// headless components and tests that only care about engine behavior.
type NoopTarget struct{}

func (NoopTarget) Update(out any)            {}
func (NoopTarget) Destroy(immediate bool)    {}
func (NoopTarget) DOMFirst() any             { return nil }
func (NoopTarget) DOMInsert(parent, anchor any) {}
func (NoopTarget) DOMEntered()               {}

// RecordingTarget captures every update for inspection. Used by tests
// and the CLI demo.
type RecordingTarget struct {
	mu        sync.Mutex
	updates   []any
	destroyed bool
}

// Update implements RenderTarget.
func (t *RecordingTarget) Update(out any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updates = append(t.updates, out)
}

// Destroy implements RenderTarget.
func (t *RecordingTarget) Destroy(immediate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
}

func (t *RecordingTarget) DOMFirst() any             { return nil }
func (t *RecordingTarget) DOMInsert(parent, anchor any) {}
func (t *RecordingTarget) DOMEntered()               {}

// Updates returns a copy of all captured render outputs.
func (t *RecordingTarget) Updates() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]any, len(t.updates))
	copy(out, t.updates)
	return out
}

// Destroyed reports whether the target has been torn down.
func (t *RecordingTarget) Destroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}
