package jotai

// Status describes the lifecycle of an atom's cache entry within a
// store.
type Status uint8

const (
	// StatusStale marks an entry whose value may be out of date; the
	// next read verifies its dependencies and recomputes if any
	// changed. New entries start stale.
	StatusStale Status = iota

	// StatusFresh marks an entry whose value is current and served
	// without recomputation.
	StatusFresh

	// StatusComputing marks an asynchronous entry whose resolver has
	// not settled. Reads return ErrPending.
	StatusComputing

	// StatusError marks an entry whose last computation failed. The
	// error is served until the atom is invalidated.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStale:
		return "stale"
	case StatusFresh:
		return "fresh"
	case StatusComputing:
		return "computing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status for JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// depEdge records one dependency of an atom's most recent computation:
// which atom was read and the epoch its value had at that point. A
// later read can tell whether the dependency changed by comparing
// epochs.
type depEdge struct {
	id    uint64
	epoch uint64
}

// atomState is an atom's cache entry within one store. All fields are
// guarded by the store mutex.
type atomState struct {
	// ref is the atom this entry belongs to.
	ref AnyAtom

	value       any
	err         error
	status      Status
	initialized bool

	// epoch increments every time a distinct value is committed.
	// Dependents compare it against the epoch recorded on their edge to
	// decide whether they must recompute.
	epoch uint64

	// deps holds the dependencies of the most recent computation, in
	// the order they were first read.
	deps []depEdge

	// dependents is the reverse index: IDs of atoms whose committed
	// dependency sets include this one.
	dependents map[uint64]struct{}

	// gen identifies the current asynchronous computation. Settlements
	// carrying an older generation are discarded.
	gen uint64

	// settle is non-nil while an asynchronous computation is in flight
	// and closed when it finishes or is superseded.
	settle chan struct{}

	subs []*subscription
}

type subscription struct {
	id uint64
	fn func()
}

// dropSub removes the subscription with the given ID, preserving
// registration order.
func (st *atomState) dropSub(id uint64) {
	for i, sub := range st.subs {
		if sub.id == id {
			st.subs = append(st.subs[:i], st.subs[i+1:]...)
			return
		}
	}
}
