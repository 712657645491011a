// Package engine implements the strand reactive update engine: the
// component/hook execution model, its scheduler, and the transaction
// machinery that drives query invalidation.
//
// A Component owns an ordered array of hook slots. Each slot implements
// the Slot contract (Init, Ready, Value, DepsChanged, Invalidated,
// Destroy); a per-slot bitmask records which earlier slots it depends on
// and which later slots it affects. When a transaction changes store keys
// that a QueryNode read, the node marks its owning component's slot dirty
// and the component is scheduled. The component's work pass then
// re-evaluates exactly the dirty slots, cascades through the affect
// masks, and renders at most once.
//
// Everything runs cooperatively: one logical pass at a time, either
// synchronously (RunNow, for input-triggered work) or batched on the
// scheduler's next tick (for invalidations arriving outside an input
// event).
package engine
