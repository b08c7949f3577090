package jotai

// Refreshable is an atom that can be forced to recompute without any of
// its tracked dependencies changing. The refreshable package builds
// them by pairing a read function with a hidden trigger atom; Refresh
// bumps the trigger, invalidating the atom, and the next read runs the
// read function again.
type Refreshable interface {
	AnyAtom

	// Refresh forces the next read to recompute. It participates in the
	// caller's batch like any other write.
	Refresh(s Setter) error
}

// Refresh forces r to recompute on its next read. The external value
// and write behavior of the atom are unchanged; only its staleness is.
func Refresh(s Setter, r Refreshable) error {
	return r.Refresh(s)
}
