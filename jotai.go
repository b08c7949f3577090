// Package jotai provides the public API for the jotai atom store.
//
// This is the recommended import for most applications:
//
//	import "github.com/leobastiani/jotai"
//
// Usage:
//
//	store := jotai.NewStore()
//	count := jotai.NewAtom(0)
//	double := jotai.NewDerived(func(g jotai.Getter) (int, error) {
//	    n, err := jotai.Get(g, count)
//	    return n * 2, err
//	})
//	jotai.Set(store, count, 21)
//	v, _ := jotai.Get(store, double) // 42
//
// The subpackages remain importable directly: pkg/jotai holds the
// store, pkg/features the atom combinators, pkg/storage the
// persistence backends, pkg/observe the observers and pkg/devtools the
// inspector.
package jotai

import (
	"context"

	"github.com/leobastiani/jotai/pkg/features/family"
	"github.com/leobastiani/jotai/pkg/features/refreshable"
	"github.com/leobastiani/jotai/pkg/features/resettable"
	"github.com/leobastiani/jotai/pkg/features/selector"
	corejotai "github.com/leobastiani/jotai/pkg/jotai"
)

// =============================================================================
// Core types (re-export from pkg/jotai)
// =============================================================================

// Atom is a read-only atom definition with value type T.
type Atom[T any] = corejotai.Atom[T]

// WritableAtom is an atom that additionally accepts writes of type A.
type WritableAtom[T, A any] = corejotai.WritableAtom[T, A]

// Store holds atom values, the dependency graph and subscriptions.
type Store = corejotai.Store

// Getter is the read access handed to read functions; reads through it
// are tracked as dependencies.
type Getter = corejotai.Getter

// Setter is the write access handed to write functions; reads and
// writes through it are untracked.
type Setter = corejotai.Setter

// AnyAtom is the type-erased identity of an atom.
type AnyAtom = corejotai.AnyAtom

// Readable is any atom whose value has type T.
type Readable[T any] = corejotai.Readable[T]

// Writable is any atom accepting writes of type A.
type Writable[A any] = corejotai.Writable[A]

// ReadWritable is any atom reading and writing the same type.
type ReadWritable[T any] = corejotai.ReadWritable[T]

// Function types for atom constructors.
type (
	ReadFunc[T any]      = corejotai.ReadFunc[T]
	WriteFunc[A any]     = corejotai.WriteFunc[A]
	AsyncReadFunc[T any] = corejotai.AsyncReadFunc[T]
	ResolveFunc[T any]   = corejotai.ResolveFunc[T]
)

// Options.
type (
	AtomOption  = corejotai.AtomOption
	StoreOption = corejotai.StoreOption
)

var (
	// NewStore creates an empty store.
	NewStore = corejotai.NewStore

	// WithName names a store for its log lines.
	WithName = corejotai.WithName

	// WithLogger sets the store's slog logger.
	WithLogger = corejotai.WithLogger

	// WithObserver attaches an observer at construction.
	WithObserver = corejotai.WithObserver

	// WithLabel sets an atom's debug label.
	WithLabel = corejotai.WithLabel
)

// EqualFunc overrides change detection for an atom's values.
func EqualFunc[T any](eq func(a, b T) bool) AtomOption {
	return corejotai.EqualFunc(eq)
}

// =============================================================================
// Constructors (re-export from pkg/jotai)
// =============================================================================

// NewAtom creates a primitive atom holding initial until written.
func NewAtom[T any](initial T, opts ...AtomOption) *WritableAtom[T, T] {
	return corejotai.NewAtom(initial, opts...)
}

// NewPrimitive creates a primitive atom with a custom write function.
func NewPrimitive[T, A any](initial T, write WriteFunc[A], opts ...AtomOption) *WritableAtom[T, A] {
	return corejotai.NewPrimitive(initial, write, opts...)
}

// NewDerived creates a read-only atom computed from other atoms.
func NewDerived[T any](read ReadFunc[T], opts ...AtomOption) *Atom[T] {
	return corejotai.NewDerived(read, opts...)
}

// NewWritable creates a derived atom with write support.
func NewWritable[T, A any](read ReadFunc[T], write WriteFunc[A], opts ...AtomOption) *WritableAtom[T, A] {
	return corejotai.NewWritable(read, write, opts...)
}

// NewAsync creates an atom whose value settles asynchronously.
func NewAsync[T any](read AsyncReadFunc[T], opts ...AtomOption) *Atom[T] {
	return corejotai.NewAsync(read, opts...)
}

// =============================================================================
// Access (re-export from pkg/jotai)
// =============================================================================

// Get reads the current value of a through g, computing it if needed.
func Get[T any](g Getter, a Readable[T]) (T, error) {
	return corejotai.Get(g, a)
}

// Set writes arg to a through s.
func Set[A any](s Setter, a Writable[A], arg A) error {
	return corejotai.Set(s, a, arg)
}

// SetValue stores v as a's value directly, bypassing its write
// function.
func SetValue[T any](s Setter, a Readable[T], v T) error {
	return corejotai.SetValue(s, a, v)
}

// Update applies fn to a's current value and writes the result back.
func Update[T any](s Setter, a ReadWritable[T], fn func(T) T) error {
	return corejotai.Update(s, a, fn)
}

// Peek returns a's cached value without computing or tracking.
func Peek[T any](s *Store, a Readable[T]) (T, bool) {
	return corejotai.Peek(s, a)
}

// Wait blocks until an asynchronous atom settles, then returns its
// value.
func Wait[T any](ctx context.Context, s *Store, a Readable[T]) (T, error) {
	return corejotai.Wait(ctx, s, a)
}

// Load reads an asynchronous atom without blocking, reporting loading,
// ready or error state.
func Load[T any](s *Store, a Readable[T]) Loadable[T] {
	return corejotai.Load(s, a)
}

// Loadable is the non-blocking view of an asynchronous atom.
type Loadable[T any] = corejotai.Loadable[T]

// LoadState enumerates Loadable states.
type LoadState = corejotai.LoadState

const (
	StateLoading = corejotai.StateLoading
	StateReady   = corejotai.StateReady
	StateError   = corejotai.StateError
)

// =============================================================================
// Reset & refresh (re-export from pkg/jotai and pkg/features)
// =============================================================================

// ResetOr carries either an explicit value or the reset signal as a
// write argument.
type ResetOr[V any] = corejotai.ResetOr[V]

// WithValue wraps v as an ordinary write argument.
func WithValue[V any](v V) ResetOr[V] {
	return corejotai.WithValue(v)
}

// ResetSignal returns the reset-carrying write argument.
func ResetSignal[V any]() ResetOr[V] {
	return corejotai.ResetSignal[V]()
}

// Reset sends the reset signal to a resettable atom.
func Reset[V any](s Setter, a Writable[ResetOr[V]]) error {
	return corejotai.Reset[V](s, a)
}

// Refreshable is an atom that can be forced to refetch.
type Refreshable = corejotai.Refreshable

// Refresh forces r to recompute on its next read.
func Refresh(s Setter, r Refreshable) error {
	return corejotai.Refresh(s, r)
}

// NewResetAtom creates a primitive atom that restores its initial
// value when it receives the reset signal.
func NewResetAtom[T any](initial T, opts ...AtomOption) *WritableAtom[T, ResetOr[T]] {
	return resettable.NewResetAtom(initial, opts...)
}

// NewDefaultAtom creates a resettable derived atom: reads follow read
// until overridden by a write, and reset drops the override.
func NewDefaultAtom[T any](read ReadFunc[T], opts ...AtomOption) *WritableAtom[T, ResetOr[T]] {
	return resettable.NewDefaultAtom(read, opts...)
}

// NewRefreshable wraps read in an atom that Refresh forces to
// recompute even when its dependencies are unchanged.
func NewRefreshable[T any](read ReadFunc[T], opts ...AtomOption) *refreshable.RefreshAtom[T] {
	return refreshable.New(read, opts...)
}

// =============================================================================
// Combinators (re-export from pkg/features)
// =============================================================================

// Family is a keyed collection of atoms created on demand.
type Family[K comparable, A AnyAtom] = family.Family[K, A]

// NewFamily memoizes one atom per key.
func NewFamily[K comparable, A AnyAtom](create func(K) A) *Family[K, A] {
	return family.New(create)
}

// Select derives a narrowed atom from a wider one; dependents only
// recompute when the selected part changes.
func Select[T, U any](source Readable[T], pick func(T) U, opts ...AtomOption) *Atom[U] {
	return selector.Select(source, pick, opts...)
}

// SelectEqual is Select with a custom equality on the selected part.
func SelectEqual[T any, U any](source Readable[T], pick func(T) U, eq func(a, b U) bool, opts ...AtomOption) *Atom[U] {
	return selector.SelectEqual(source, pick, eq, opts...)
}

// =============================================================================
// Observation & errors (re-export from pkg/jotai)
// =============================================================================

// Observer receives store events; see pkg/observe for implementations.
type Observer = corejotai.Observer

// Status describes an atom cache entry's lifecycle.
type Status = corejotai.Status

const (
	StatusStale     = corejotai.StatusStale
	StatusFresh     = corejotai.StatusFresh
	StatusComputing = corejotai.StatusComputing
	StatusError     = corejotai.StatusError
)

// Stats are a store's cumulative counters.
type Stats = corejotai.Stats

// AtomInfo describes one atom's cache entry for inspection.
type AtomInfo = corejotai.AtomInfo

// Errors.
var (
	ErrCycle            = corejotai.ErrCycle
	ErrComputation      = corejotai.ErrComputation
	ErrPending          = corejotai.ErrPending
	ErrUnsupportedReset = corejotai.ErrUnsupportedReset
	ErrStoreClosed      = corejotai.ErrStoreClosed
	ErrWrongType        = corejotai.ErrWrongType
)

// Typed errors for errors.As.
type (
	CycleError       = corejotai.CycleError
	ComputationError = corejotai.ComputationError
	PendingError     = corejotai.PendingError
)
