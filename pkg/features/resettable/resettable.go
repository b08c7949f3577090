package resettable

import (
	"github.com/leobastiani/jotai/pkg/jotai"
)

// NewResetAtom creates a primitive atom that restores initial when it
// receives the reset signal. Ordinary writes carry the new value in the
// ResetOr argument:
//
//	count := resettable.NewResetAtom(0)
//	jotai.Set(store, count, jotai.WithValue(7))
//	jotai.Reset(store, count) // back to 0
func NewResetAtom[T any](initial T, opts ...jotai.AtomOption) *jotai.WritableAtom[T, jotai.ResetOr[T]] {
	var self *jotai.WritableAtom[T, jotai.ResetOr[T]]
	self = jotai.NewPrimitive(initial, func(s jotai.Setter, arg jotai.ResetOr[T]) error {
		if arg.IsReset() {
			return jotai.SetValue(s, self, initial)
		}
		v, _ := arg.Value()
		return jotai.SetValue(s, self, v)
	}, opts...)
	return self
}

// override is the companion state of a default atom: the user-written
// value, if any. The zero value means "not overridden".
type override[T any] struct {
	val T
	set bool
}

// NewDefaultAtom creates a writable atom whose default is computed by
// read. Writes override the computed value; the reset signal clears the
// override, so the next read re-runs read against the current values of
// its dependencies rather than restoring a frozen snapshot.
func NewDefaultAtom[T any](read jotai.ReadFunc[T], opts ...jotai.AtomOption) *jotai.WritableAtom[T, jotai.ResetOr[T]] {
	ov := jotai.NewAtom(override[T]{})

	return jotai.NewWritable(
		func(g jotai.Getter) (T, error) {
			o, err := jotai.Get(g, ov)
			if err != nil {
				var zero T
				return zero, err
			}
			if o.set {
				return o.val, nil
			}
			return read(g)
		},
		func(s jotai.Setter, arg jotai.ResetOr[T]) error {
			if arg.IsReset() {
				return jotai.Set(s, ov, override[T]{})
			}
			v, _ := arg.Value()
			return jotai.Set(s, ov, override[T]{val: v, set: true})
		},
		opts...,
	)
}
