package jotai

import "sync/atomic"

// idCounter is a global counter for generating unique IDs for atoms and
// subscriptions. Atom identity, dependency edges and notification
// ordering are all keyed by these IDs.
var idCounter atomic.Uint64

// nextID returns a process-unique, monotonically increasing ID.
func nextID() uint64 {
	return idCounter.Add(1)
}
