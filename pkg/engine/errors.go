package engine

import "errors"

// ErrConcurrentMutation is the panic value raised when the store
// snapshot changed while a transaction was in flight. The store is
// single-writer-at-a-time by contract; a concurrent mutation is a fatal
// programming error, never merged.
var ErrConcurrentMutation = errors.New("engine: store mutated during transaction")

// ErrTooManyHooks is returned when a component config declares more hook
// slots than the dirty-bit mask can address (MaxHooks).
var ErrTooManyHooks = errors.New("engine: component exceeds hook slot limit")

// ErrNilRender is returned when a component config has neither a render
// function nor any hook slots; such a component could never do work.
var ErrNilRender = errors.New("engine: component config is empty")
