package jotai

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by store operations. Callers should match
// them with errors.Is; the concrete error types below carry the
// details.
var (
	// ErrCycle is returned when a computation directly or indirectly
	// reads the atom it is computing.
	ErrCycle = errors.New("jotai: cyclic dependency")

	// ErrComputation is returned when an atom's read function fails.
	// The concrete *ComputationError wraps the underlying cause.
	ErrComputation = errors.New("jotai: computation failed")

	// ErrPending is returned when reading an asynchronous atom whose
	// value has not settled yet. Use Wait to block until it does.
	ErrPending = errors.New("jotai: value not ready")

	// ErrUnsupportedReset is returned by Store.ResetAny for atoms whose
	// write argument cannot carry a reset signal.
	ErrUnsupportedReset = errors.New("jotai: atom does not support reset")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("jotai: store is closed")

	// ErrWrongType is returned when a stored value does not match the
	// type the atom was declared with. It indicates a write performed
	// through a mismatched atom handle.
	ErrWrongType = errors.New("jotai: wrong value type")
)

// CycleError reports a cyclic dependency discovered while computing an
// atom. Path holds the labels of the atoms on the cycle, outermost
// first, ending with the atom that closed the loop.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("jotai: cyclic dependency: %s", strings.Join(e.Path, " -> "))
}

// Unwrap makes errors.Is(err, ErrCycle) work.
func (e *CycleError) Unwrap() error { return ErrCycle }

// ComputationError wraps a failure from an atom's read function. The
// store caches it until the atom is invalidated, so repeated reads
// return the same error without re-running the computation.
type ComputationError struct {
	// AtomLabel names the atom whose computation failed.
	AtomLabel string

	cause error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("jotai: computing %s: %v", e.AtomLabel, e.cause)
}

// Unwrap returns the underlying cause from the read function.
func (e *ComputationError) Unwrap() error { return e.cause }

// Is reports whether target is ErrComputation, so both the sentinel and
// the original cause match through errors.Is.
func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

// wrapComputation wraps err for the named atom. Errors that already
// carry computation or cycle context propagate unchanged, so the
// outermost failing atom is the one reported.
func wrapComputation(label string, err error) error {
	var ce *ComputationError
	if errors.As(err, &ce) {
		return err
	}
	var cy *CycleError
	if errors.As(err, &cy) {
		return err
	}
	return &ComputationError{AtomLabel: label, cause: err}
}

// PendingError reports that an asynchronous atom has not settled.
// Settled returns a channel closed when the pending computation
// finishes (or is superseded), at which point the read should be
// retried.
type PendingError struct {
	// AtomLabel names the atom still computing.
	AtomLabel string

	settled <-chan struct{}
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("jotai: %s: value not ready", e.AtomLabel)
}

// Unwrap makes errors.Is(err, ErrPending) work.
func (e *PendingError) Unwrap() error { return ErrPending }

// Settled returns a channel that is closed when the computation that
// caused this error settles. The read must be retried afterwards; the
// settled value may itself be an error or another pending state.
func (e *PendingError) Settled() <-chan struct{} { return e.settled }
