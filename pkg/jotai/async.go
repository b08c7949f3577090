package jotai

import (
	"context"
	"errors"
	"time"
)

// runResolver executes the resolver of an asynchronous computation on
// its own goroutine and commits the settlement if the computation is
// still the current one for its atom. Superseded settlements are
// discarded and logged at debug level; they never reach callers.
func (s *Store) runResolver(st *atomState, gen uint64, start time.Time, resolve func(ctx context.Context) (any, error)) {
	v, err := resolve(s.ctx)

	s.mu.Lock()
	if s.closed || st.gen != gen {
		obs := s.observers()
		s.mu.Unlock()
		obs.OnSettle(st.ref, time.Since(start), true, err)
		s.log.Debug("async result discarded", "atom", st.ref.Label(), "generation", gen, "error", err)
		return
	}
	if err != nil {
		s.failLocked(st, start, err)
		if st.settle != nil {
			close(st.settle)
			st.settle = nil
		}
		obs := s.observers()
		batch := s.drainLocked()
		s.mu.Unlock()
		obs.OnSettle(st.ref, time.Since(start), false, err)
		s.fire(batch)
		return
	}

	if s.commitValueLocked(st, v) {
		s.invalidateDependentsLocked(st)
		s.queueNotifyLocked(st)
	}
	if st.settle != nil {
		close(st.settle)
		st.settle = nil
	}
	obs := s.observers()
	batch := s.drainLocked()
	s.mu.Unlock()
	obs.OnSettle(st.ref, time.Since(start), false, nil)
	s.fire(batch)
}

// Wait reads a, blocking until its value settles. Pending asynchronous
// computations are waited out and the read retried, across generations
// if the atom is superseded while waiting. Non-pending errors are
// returned as Get would return them.
func Wait[T any](ctx context.Context, s *Store, a Readable[T]) (T, error) {
	for {
		v, err := Get[T](s, a)
		if err == nil {
			return v, nil
		}
		var pending *PendingError
		if !errors.As(err, &pending) {
			var zero T
			return zero, err
		}
		select {
		case <-pending.Settled():
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// LoadState classifies a Loadable snapshot.
type LoadState uint8

const (
	// StateLoading means the value has not settled yet.
	StateLoading LoadState = iota
	// StateReady means Value holds the settled value.
	StateReady
	// StateError means the computation failed; Err holds the error.
	StateError
)

func (ls LoadState) String() string {
	switch ls {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Loadable is a non-blocking snapshot of an atom that may still be
// settling. It folds the pending state into data instead of an error,
// so callers can render all three states without special cases.
type Loadable[T any] struct {
	State LoadState
	Value T
	Err   error
}

// Load reads a without blocking and reports its state. A pending
// computation yields StateLoading; other errors yield StateError.
// Reading through Load still triggers computation for stale entries.
func Load[T any](s *Store, a Readable[T]) Loadable[T] {
	v, err := Get[T](s, a)
	switch {
	case err == nil:
		return Loadable[T]{State: StateReady, Value: v}
	case errors.Is(err, ErrPending):
		return Loadable[T]{State: StateLoading}
	default:
		return Loadable[T]{State: StateError, Err: err}
	}
}
