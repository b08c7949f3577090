package jotai

// ResetOr is the write argument of resettable atoms: either a value of
// type V or a reset signal. The zero value carries V's zero value, not
// a reset; build arguments with WithValue and ResetSignal.
//
// Write functions that forward a ResetOr argument to another resettable
// atom unchanged preserve the reset signal, so reset composes through
// wrapper atoms.
type ResetOr[V any] struct {
	val   V
	reset bool
}

// WithValue returns a ResetOr carrying v.
func WithValue[V any](v V) ResetOr[V] {
	return ResetOr[V]{val: v}
}

// ResetSignal returns the reset variant of ResetOr[V].
func ResetSignal[V any]() ResetOr[V] {
	return ResetOr[V]{reset: true}
}

// Value returns the carried value. ok is false for the reset variant.
func (r ResetOr[V]) Value() (v V, ok bool) {
	return r.val, !r.reset
}

// IsReset reports whether r carries the reset signal.
func (r ResetOr[V]) IsReset() bool { return r.reset }

// resetVariant implements resetCarrier; it lets the store build a reset
// argument for an atom known only through its type-erased handle.
func (r ResetOr[V]) resetVariant() any {
	return ResetOr[V]{reset: true}
}

// resetCarrier is satisfied by write argument types that can carry a
// reset signal. Only ResetOr implements it.
type resetCarrier interface {
	resetVariant() any
}

// resetArgFor returns a constructor for A's reset variant, or nil when
// A cannot carry a reset signal.
func resetArgFor[A any]() func() any {
	var zero A
	if c, ok := any(zero).(resetCarrier); ok {
		return c.resetVariant
	}
	return nil
}

// Reset writes the reset signal to a resettable atom. What resetting
// means is up to the atom's write function; the resettable package
// builds atoms that restore an initial value or re-enable a computed
// default.
func Reset[V any](s Setter, a Writable[ResetOr[V]]) error {
	return Set(s, a, ResetSignal[V]())
}

// ResetAny resets an atom known only through its type-erased handle,
// as the devtools inspector holds them. It fails with
// ErrUnsupportedReset when the atom's write argument type cannot carry
// a reset signal or the atom has no write function to interpret it.
func (s *Store) ResetAny(a AnyAtom) error {
	b := a.base()
	if b.resetArg == nil || b.write == nil {
		return &resetError{label: a.Label()}
	}
	return s.writeAtom(a, b.resetArg())
}

// resetError wraps ErrUnsupportedReset with the atom's label.
type resetError struct {
	label string
}

func (e *resetError) Error() string {
	return "jotai: " + e.label + " does not support reset"
}

func (e *resetError) Unwrap() error { return ErrUnsupportedReset }
