package engine

import "time"

// TxRecord describes one committed (or no-op) transaction for
// observers: what triggered it, what it changed, and who it woke up.
type TxRecord struct {
	Event     EventID
	Origin    string
	Noop      bool
	Added     []any
	Updated   []any
	Removed   []any
	Refreshed int
	Duration  time.Duration
}

// RenderRecord describes one completed work pass.
type RenderRecord struct {
	Component string
	ID        uint64
	Skipped   bool
}

// Observer receives engine lifecycle notifications. Implementations
// must be fast and must not call back into the runtime synchronously;
// the inspector's websocket hub is the canonical consumer.
type Observer interface {
	ObserveTx(rec TxRecord)
	ObserveRender(rec RenderRecord)
	ObserveFailure(component string, err error)
}
