package jotai

import "time"

// Observer receives hooks for store activity. Implementations must be
// fast and non-blocking: hooks other than OnNotify run while the store
// lock is held, and none of them may call back into the store.
//
// The observe package provides logging, Prometheus and OpenTelemetry
// implementations; the devtools package streams these events over a
// websocket.
type Observer interface {
	// OnGet fires for every read of an atom. hit reports whether the
	// cached value was fresh, so no computation ran.
	OnGet(a AnyAtom, hit bool)

	// OnCompute fires after a synchronous computation finishes, with
	// its duration and outcome.
	OnCompute(a AnyAtom, d time.Duration, err error)

	// OnSet fires after a write to an atom is applied.
	OnSet(a AnyAtom)

	// OnInvalidate fires when an atom is invalidated, with the number
	// of (transitive) dependents marked stale alongside it.
	OnInvalidate(a AnyAtom, dependents int)

	// OnNotify fires when an atom's subscribers are notified, after the
	// store lock is released.
	OnNotify(a AnyAtom, subscribers int)

	// OnSettle fires when an asynchronous computation finishes.
	// superseded reports that the result was discarded because a newer
	// computation or write took over in the meantime.
	OnSettle(a AnyAtom, d time.Duration, superseded bool, err error)
}

// noopObserver is the default observer; the store never carries a nil
// one.
type noopObserver struct{}

func (noopObserver) OnGet(AnyAtom, bool)                          {}
func (noopObserver) OnCompute(AnyAtom, time.Duration, error)      {}
func (noopObserver) OnSet(AnyAtom)                                {}
func (noopObserver) OnInvalidate(AnyAtom, int)                    {}
func (noopObserver) OnNotify(AnyAtom, int)                        {}
func (noopObserver) OnSettle(AnyAtom, time.Duration, bool, error) {}

// obsEntry pairs an observer with the registration ID AddObserver hands
// back for removal.
type obsEntry struct {
	id uint64
	o  Observer
}

// observers fans hooks out to a set of observers. The store rebuilds
// the slice on AddObserver, so dispatch iterates a stable snapshot.
type observers []obsEntry

func (os observers) OnGet(a AnyAtom, hit bool) {
	for _, e := range os {
		e.o.OnGet(a, hit)
	}
}

func (os observers) OnCompute(a AnyAtom, d time.Duration, err error) {
	for _, e := range os {
		e.o.OnCompute(a, d, err)
	}
}

func (os observers) OnSet(a AnyAtom) {
	for _, e := range os {
		e.o.OnSet(a)
	}
}

func (os observers) OnInvalidate(a AnyAtom, dependents int) {
	for _, e := range os {
		e.o.OnInvalidate(a, dependents)
	}
}

func (os observers) OnNotify(a AnyAtom, subscribers int) {
	for _, e := range os {
		e.o.OnNotify(a, subscribers)
	}
}

func (os observers) OnSettle(a AnyAtom, d time.Duration, superseded bool, err error) {
	for _, e := range os {
		e.o.OnSettle(a, d, superseded, err)
	}
}
