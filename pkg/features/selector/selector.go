// Package selector provides projection atoms: derived atoms that pick
// part of a source value and only propagate when the picked part
// actually changed, so dependents of a small slice of a large value are
// not invalidated by unrelated churn in the rest of it.
package selector

import (
	"reflect"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// Select creates an atom holding pick(source). Its committed values are
// compared with reflect.DeepEqual; when a recomputation picks an equal
// value, dependents and subscribers downstream see nothing.
func Select[T, U any](source jotai.Readable[T], pick func(T) U, opts ...jotai.AtomOption) *jotai.Atom[U] {
	return SelectEqual(source, pick, func(a, b U) bool {
		return reflect.DeepEqual(a, b)
	}, opts...)
}

// SelectEqual is Select with a custom equality function for the picked
// values.
func SelectEqual[T, U any](source jotai.Readable[T], pick func(T) U, eq func(a, b U) bool, opts ...jotai.AtomOption) *jotai.Atom[U] {
	opts = append([]jotai.AtomOption{jotai.EqualFunc(eq)}, opts...)
	return jotai.NewDerived(func(g jotai.Getter) (U, error) {
		v, err := jotai.Get(g, source)
		if err != nil {
			var zero U
			return zero, err
		}
		return pick(v), nil
	}, opts...)
}
