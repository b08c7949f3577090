package refreshable

import (
	"github.com/leobastiani/jotai/pkg/jotai"
)

// RefreshAtom is a read-only atom that can be forced to recompute. It
// pairs the read function with a hidden counter atom the computation
// depends on; Refresh bumps the counter, which invalidates the atom
// without touching anything else, and the next read runs the read
// function again.
type RefreshAtom[T any] struct {
	*jotai.Atom[T]
	trigger *jotai.WritableAtom[uint64, uint64]
}

var _ jotai.Refreshable = (*RefreshAtom[int])(nil)

// Refresh forces the next read to recompute, even if no tracked
// dependency changed.
func (r *RefreshAtom[T]) Refresh(s jotai.Setter) error {
	return bump(s, r.trigger)
}

// New creates a refreshable read-only atom.
func New[T any](read jotai.ReadFunc[T], opts ...jotai.AtomOption) *RefreshAtom[T] {
	trigger := newTrigger()
	return &RefreshAtom[T]{
		Atom:    jotai.NewDerived(wrapRead(trigger, read), opts...),
		trigger: trigger,
	}
}

// WritableRefreshAtom is the writable variant of RefreshAtom. Writes
// reach the user write function untouched; only Refresh goes through
// the hidden trigger.
type WritableRefreshAtom[T, A any] struct {
	*jotai.WritableAtom[T, A]
	trigger *jotai.WritableAtom[uint64, uint64]
}

var _ jotai.Refreshable = (*WritableRefreshAtom[int, int])(nil)

// Refresh forces the next read to recompute without invoking the write
// function.
func (r *WritableRefreshAtom[T, A]) Refresh(s jotai.Setter) error {
	return bump(s, r.trigger)
}

// NewWritable creates a refreshable atom with a write function.
func NewWritable[T, A any](read jotai.ReadFunc[T], write jotai.WriteFunc[A], opts ...jotai.AtomOption) *WritableRefreshAtom[T, A] {
	trigger := newTrigger()
	return &WritableRefreshAtom[T, A]{
		WritableAtom: jotai.NewWritable(wrapRead(trigger, read), write, opts...),
		trigger:      trigger,
	}
}

func newTrigger() *jotai.WritableAtom[uint64, uint64] {
	return jotai.NewAtom(uint64(0))
}

func bump(s jotai.Setter, trigger *jotai.WritableAtom[uint64, uint64]) error {
	return jotai.Update(s, trigger, func(n uint64) uint64 { return n + 1 })
}

// wrapRead makes the trigger a dependency of every computation, so a
// bump invalidates the atom like any dependency change would.
func wrapRead[T any](trigger *jotai.WritableAtom[uint64, uint64], read jotai.ReadFunc[T]) jotai.ReadFunc[T] {
	return func(g jotai.Getter) (T, error) {
		if _, err := jotai.Get(g, trigger); err != nil {
			var zero T
			return zero, err
		}
		return read(g)
	}
}
