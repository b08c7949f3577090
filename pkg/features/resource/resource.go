package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// State represents the current state of a resource.
type State int

const (
	Pending State = iota // Before the first fetch starts
	Loading              // Fetch in progress
	Ready                // Data successfully loaded
	Error                // Fetch failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Resource manages asynchronous data fetching through an atom. The
// fetch function is caller-supplied and opaque to the store; the
// resource wires it into an asynchronous atom plus a refresh trigger,
// so fetching is lazy (the first read starts it), cached, and a
// superseded fetch is discarded by the store's generation check.
type Resource[T any] struct {
	store   *jotai.Store
	fetch   func(ctx context.Context) (T, error)
	trigger *jotai.WritableAtom[uint64, uint64]
	atom    *jotai.Atom[T]

	staleTime  time.Duration
	retryCount int
	retryDelay time.Duration
	onSuccess  func(T)
	onError    func(error)

	started   atomic.Bool
	mu        sync.Mutex
	lastFetch time.Time
}

// New creates a resource over fetch. Nothing happens until the first
// read (Value, Wait, Loadable, or a derived atom reading Atom).
func New[T any](store *jotai.Store, fetch func(ctx context.Context) (T, error), opts ...Option) *Resource[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Resource[T]{
		store:      store,
		fetch:      fetch,
		trigger:    jotai.NewAtom(uint64(0)),
		staleTime:  cfg.staleTime,
		retryCount: cfg.retryCount,
		retryDelay: cfg.retryDelay,
	}

	var atomOpts []jotai.AtomOption
	if cfg.label != "" {
		atomOpts = append(atomOpts, jotai.WithLabel(cfg.label))
	}
	r.atom = jotai.NewAsync(func(g jotai.Getter) (jotai.ResolveFunc[T], error) {
		if _, err := jotai.Get(g, r.trigger); err != nil {
			return nil, err
		}
		r.started.Store(true)
		return r.resolve, nil
	}, atomOpts...)
	return r
}

// resolve runs the fetch with the configured retry policy. It executes
// on a store-owned goroutine; the context is canceled when the store
// closes.
func (r *Resource[T]) resolve(ctx context.Context) (T, error) {
	var result T
	var err error

	attempts := 1 + r.retryCount
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
		result, err = r.fetch(ctx)
		if err == nil {
			break
		}
	}

	if err != nil {
		if r.onError != nil {
			r.onError(err)
		}
		return result, err
	}

	r.mu.Lock()
	r.lastFetch = time.Now()
	r.mu.Unlock()
	if r.onSuccess != nil {
		r.onSuccess(result)
	}
	return result, nil
}

// Atom returns the underlying atom for composition: derived atoms can
// read it, subscribers can watch it, jotai.Wait and jotai.Load work on
// it.
func (r *Resource[T]) Atom() *jotai.Atom[T] { return r.atom }

// OnSuccess registers a callback invoked after each successful fetch.
// Must be set before the first read.
func (r *Resource[T]) OnSuccess(fn func(T)) *Resource[T] {
	r.onSuccess = fn
	return r
}

// OnError registers a callback invoked after a fetch exhausts its
// retries. Must be set before the first read.
func (r *Resource[T]) OnError(fn func(error)) *Resource[T] {
	r.onError = fn
	return r
}

// Value returns the current data, starting the first fetch if
// necessary. While the fetch is in flight it returns an error matching
// jotai.ErrPending.
func (r *Resource[T]) Value() (T, error) {
	return jotai.Get[T](r.store, r.atom)
}

// Wait blocks until the resource settles and returns the data.
func (r *Resource[T]) Wait(ctx context.Context) (T, error) {
	return jotai.Wait[T](ctx, r.store, r.atom)
}

// Loadable returns a non-blocking snapshot of the resource.
func (r *Resource[T]) Loadable() jotai.Loadable[T] {
	return jotai.Load[T](r.store, r.atom)
}

// State reports the resource's lifecycle state without blocking.
func (r *Resource[T]) State() State {
	if !r.started.Load() {
		return Pending
	}
	switch l := r.Loadable(); l.State {
	case jotai.StateReady:
		return Ready
	case jotai.StateError:
		return Error
	default:
		return Loading
	}
}

// IsLoading reports whether the data is not available yet.
func (r *Resource[T]) IsLoading() bool {
	s := r.State()
	return s == Loading || s == Pending
}

// IsReady reports whether the data is loaded.
func (r *Resource[T]) IsReady() bool { return r.State() == Ready }

// DataOr returns the current data, or fallback while it is not ready.
func (r *Resource[T]) DataOr(fallback T) T {
	if l := r.Loadable(); l.State == jotai.StateReady {
		return l.Value
	}
	return fallback
}

// Refresh triggers a refetch unless the data is still within the
// configured stale time. Use Refetch to bypass the stale window.
func (r *Resource[T]) Refresh() error {
	r.mu.Lock()
	fresh := r.staleTime > 0 && !r.lastFetch.IsZero() && time.Since(r.lastFetch) < r.staleTime
	r.mu.Unlock()
	if fresh {
		return nil
	}
	return r.Refetch()
}

// Refetch forces a refetch. An in-flight fetch is superseded; its
// result will be discarded in favor of the new one.
func (r *Resource[T]) Refetch() error {
	return jotai.Update(r.store, r.trigger, func(n uint64) uint64 { return n + 1 })
}

// Invalidate marks the current data as stale, so the next Refresh
// fetches regardless of the stale window. It does not trigger a fetch
// by itself.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.lastFetch = time.Time{}
	r.mu.Unlock()
}

// Subscribe registers fn to run whenever the resource's state changes:
// fetch started, settled, or failed.
func (r *Resource[T]) Subscribe(fn func()) (unsubscribe func()) {
	return r.store.Subscribe(r.atom, fn)
}
