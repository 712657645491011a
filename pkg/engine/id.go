package engine

import "sync/atomic"

// globalIDCounter is the source of unique IDs for components, query
// nodes, and observables. Atomic so ID generation never needs a lock.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are monotonically increasing
// and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
