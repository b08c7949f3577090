// Package family provides keyed collections of atoms: one atom per
// key, created on first use and stable for the family's lifetime, so
// every caller asking for the same key shares the same state.
package family

import (
	"sync"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// Family maps keys to atoms, creating each atom once, on first access.
// Atom identity is what stores key their state by, so handing back the
// same atom for the same key is what makes per-key state shared.
//
// A is the concrete atom type the create function returns, typically
// *jotai.WritableAtom or *jotai.Atom.
type Family[K comparable, A jotai.AnyAtom] struct {
	create func(K) A

	mu    sync.Mutex
	atoms map[K]A
}

// New creates a family. create is invoked at most once per key.
func New[K comparable, A jotai.AnyAtom](create func(K) A) *Family[K, A] {
	return &Family[K, A]{
		create: create,
		atoms:  make(map[K]A),
	}
}

// Get returns the atom for key, creating it on first access.
func (f *Family[K, A]) Get(key K) A {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.atoms[key]
	if !ok {
		a = f.create(key)
		f.atoms[key] = a
	}
	return a
}

// Has reports whether an atom for key has been created.
func (f *Family[K, A]) Has(key K) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.atoms[key]
	return ok
}

// Remove forgets the atom for key. A later Get creates a fresh atom
// with a new identity; stores still holding state for the old one keep
// it until they are closed.
func (f *Family[K, A]) Remove(key K) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.atoms, key)
}

// Clear forgets all members.
func (f *Family[K, A]) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.atoms)
}

// Len returns the number of atoms created so far.
func (f *Family[K, A]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.atoms)
}

// Range calls fn for each member until fn returns false. The order is
// unspecified; fn must not call back into the family.
func (f *Family[K, A]) Range(fn func(key K, a A) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, a := range f.atoms {
		if !fn(k, a) {
			return
		}
	}
}
