package jotai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Store holds the values of atoms and the dependency graph between
// them. Stores are independent: the same atom can be used against
// several stores, each keeping its own entry for it.
//
// All methods are safe for concurrent use. Close releases the store;
// subsequent reads and writes return ErrStoreClosed.
type Store struct {
	name string
	log  *slog.Logger

	// ctx is canceled on Close and handed to asynchronous resolvers.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	states map[uint64]*atomState
	closed bool

	// batchDepth counts nested write scopes. Subscriber notifications
	// accumulate in pending and flush when it drops to zero.
	batchDepth int
	pending    map[uint64]*atomState

	obs atomic.Pointer[observers]

	stats storeCounters
}

type storeCounters struct {
	gets          atomic.Uint64
	hits          atomic.Uint64
	computes      atomic.Uint64
	sets          atomic.Uint64
	invalidations atomic.Uint64
	notifications atomic.Uint64
}

// StoreOption configures a Store at construction.
type StoreOption func(*Store)

// WithName sets the store's name, used in logs and stats. Defaults to
// "store<n>".
func WithName(name string) StoreOption {
	return func(s *Store) { s.name = name }
}

// WithLogger sets the logger for store diagnostics. Defaults to
// slog.Default().
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithObserver registers an observer at construction. May be repeated;
// observers run in registration order.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		cur := s.observers()
		next := append(append(observers{}, cur...), obsEntry{id: nextID(), o: o})
		s.obs.Store(&next)
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		name:    fmt.Sprintf("store%d", nextID()),
		log:     slog.Default(),
		states:  make(map[uint64]*atomState),
		pending: make(map[uint64]*atomState),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("store", s.name)
	return s
}

// Name returns the store's name.
func (s *Store) Name() string { return s.name }

// Close releases the store. In-flight asynchronous resolvers are
// canceled and their results discarded; waiters blocked in Wait are
// woken. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	for _, st := range s.states {
		if st.settle != nil {
			close(st.settle)
			st.settle = nil
		}
	}
	clear(s.states)
	clear(s.pending)
	s.mu.Unlock()
	s.log.Debug("store closed")
	return nil
}

// AddObserver attaches an observer to a live store and returns a
// function that detaches it.
func (s *Store) AddObserver(o Observer) (remove func()) {
	id := nextID()
	s.mu.Lock()
	cur := s.observers()
	next := append(append(observers{}, cur...), obsEntry{id: id, o: o})
	s.obs.Store(&next)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur := s.observers()
		next := make(observers, 0, len(cur))
		for _, e := range cur {
			if e.id != id {
				next = append(next, e)
			}
		}
		s.obs.Store(&next)
	}
}

func (s *Store) observers() observers {
	if p := s.obs.Load(); p != nil {
		return *p
	}
	return nil
}

var (
	_ Getter = (*Store)(nil)
	_ Setter = (*Store)(nil)
)

// resolveAtom implements Getter. Reads through the store itself are
// untracked; the common fresh case is served under the read lock.
func (s *Store) resolveAtom(a AnyAtom) (any, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	if st, ok := s.states[a.ID()]; ok && st.status == StatusFresh {
		v := st.value
		obs := s.observers()
		s.mu.RUnlock()
		s.stats.gets.Add(1)
		s.stats.hits.Add(1)
		obs.OnGet(a, true)
		return v, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	st := s.ensureLocked(a)
	v, err := s.resolveLocked(st, nil)
	s.mu.Unlock()
	return v, err
}

// writeAtom implements Setter. The write and everything it invalidates
// form one batch; subscribers are notified after the lock is released.
func (s *Store) writeAtom(a AnyAtom, arg any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.batchDepth++
	err := s.writeLocked(a, arg)
	s.batchDepth--
	batch := s.drainLocked()
	s.mu.Unlock()
	s.fire(batch)
	return err
}

// commitAtom implements the direct-commit path of Setter.
func (s *Store) commitAtom(a AnyAtom, value any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.batchDepth++
	st := s.ensureLocked(a)
	s.commitWriteLocked(st, value)
	s.batchDepth--
	batch := s.drainLocked()
	s.mu.Unlock()
	s.fire(batch)
	return nil
}

// Peek returns a's last committed value in this store without
// computing, tracking or blocking. ok is false if the atom has no
// committed value yet; a stale value is still returned.
func Peek[T any](s *Store, a Readable[T]) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[a.ID()]
	if !ok || !st.initialized {
		var zero T
		return zero, false
	}
	if st.value == nil {
		var zero T
		return zero, true
	}
	v, ok := st.value.(T)
	return v, ok
}

// Subscribe registers fn to run after any write batch that invalidates
// a, directly or through its dependencies, at most once per batch.
// Callbacks run outside the store lock, after the batch settles, in
// ascending atom ID order and registration order within one atom. The
// returned function removes the subscription.
//
// Subscribing does not compute the atom; a typical callback reads it to
// pick up the new value.
//
// Subscribing to a closed store registers nothing: fn never fires and
// the returned function is a no-op. A closed store delivers no
// notifications, so no error return is needed to learn of the state.
func (s *Store) Subscribe(a AnyAtom, fn func()) (unsubscribe func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	st := s.ensureLocked(a)
	sub := &subscription{id: nextID(), fn: fn}
	st.subs = append(st.subs, sub)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		st.dropSub(sub.id)
		s.mu.Unlock()
	}
}

// ensureLocked returns the cache entry for a, creating a stale one on
// first contact.
func (s *Store) ensureLocked(a AnyAtom) *atomState {
	st, ok := s.states[a.ID()]
	if !ok {
		st = &atomState{ref: a, status: StatusStale}
		s.states[a.ID()] = st
	}
	return st
}

// resolveLocked returns the current value of st, recomputing as needed.
// parent is the frame of the computation performing the read, or nil
// for top-level reads.
func (s *Store) resolveLocked(st *atomState, parent *frame) (any, error) {
	s.stats.gets.Add(1)
	switch st.status {
	case StatusFresh:
		s.stats.hits.Add(1)
		s.observers().OnGet(st.ref, true)
		return st.value, nil

	case StatusComputing:
		s.observers().OnGet(st.ref, false)
		return nil, &PendingError{AtomLabel: st.ref.Label(), settled: st.settle}

	case StatusError:
		s.observers().OnGet(st.ref, false)
		// A failure with no committed dependency edges has nothing to
		// wake it up; retry on every read instead of caching it.
		if len(st.deps) > 0 || st.initialized {
			return nil, st.err
		}
		return s.computeLocked(st, parent)

	default: // StatusStale
		s.observers().OnGet(st.ref, false)
		if st.initialized && len(st.deps) > 0 && s.depsUnchangedLocked(st, parent) {
			st.status = StatusFresh
			return st.value, nil
		}
		return s.computeLocked(st, parent)
	}
}

// depsUnchangedLocked reports whether every dependency of st's last
// computation still has the epoch recorded on its edge. Dependencies
// are resolved on the way, so a stale chain is verified bottom-up and
// an atom whose inputs recomputed to equal values is marked fresh
// without running its own read function.
func (s *Store) depsUnchangedLocked(st *atomState, parent *frame) bool {
	for _, edge := range st.deps {
		dep, ok := s.states[edge.id]
		if !ok {
			return false
		}
		if chainContains(parent, dep) {
			// The old edge now points back into the computation stack;
			// recomputing will surface the cycle properly.
			return false
		}
		if _, err := s.resolveLocked(dep, parent); err != nil {
			return false
		}
		if dep.epoch != edge.epoch {
			return false
		}
	}
	return true
}

// computeLocked runs st's read function and commits the result. For
// asynchronous atoms it commits the dependency edges from the
// synchronous phase, spawns the resolver and reports pending.
func (s *Store) computeLocked(st *atomState, parent *frame) (any, error) {
	b := st.ref.base()
	st.gen++
	gen := st.gen
	if st.settle != nil {
		close(st.settle)
		st.settle = nil
	}

	if b.read == nil && b.readAsync == nil {
		// Primitive touched for the first time.
		s.commitValueLocked(st, b.init)
		return st.value, nil
	}

	fr := &frame{store: s, state: st, parent: parent}
	s.stats.computes.Add(1)
	start := time.Now()

	if b.readAsync != nil {
		resolve, err := b.readAsync(fr)
		if err != nil {
			return nil, s.failLocked(st, start, err)
		}
		s.replaceDepsLocked(st, fr.edges)
		st.err = nil
		st.status = StatusComputing
		st.settle = make(chan struct{})
		go s.runResolver(st, gen, start, resolve)
		return nil, &PendingError{AtomLabel: st.ref.Label(), settled: st.settle}
	}

	v, err := b.read(fr)
	if err != nil {
		if errors.Is(err, ErrPending) {
			// The edges read so far are committed so the pending
			// dependency wakes this atom when it settles; the entry
			// stays stale and the read is retried then.
			s.replaceDepsLocked(st, fr.edges)
			st.status = StatusStale
			return nil, err
		}
		return nil, s.failLocked(st, start, err)
	}
	s.replaceDepsLocked(st, fr.edges)
	s.commitValueLocked(st, v)
	s.observers().OnCompute(st.ref, time.Since(start), nil)
	return st.value, nil
}

// failLocked records a failed computation. The previous value and
// dependency edges are kept; only the status and the cached error
// change, so dependents holding fresh values are not disturbed.
func (s *Store) failLocked(st *atomState, start time.Time, err error) error {
	wrapped := wrapComputation(st.ref.Label(), err)
	st.err = wrapped
	st.status = StatusError
	s.observers().OnCompute(st.ref, time.Since(start), wrapped)
	var cycle *CycleError
	if errors.As(wrapped, &cycle) {
		s.log.Warn("cyclic dependency", "atom", st.ref.Label(), "path", cycle.Path)
	} else {
		s.log.Debug("computation failed", "atom", st.ref.Label(), "error", wrapped)
	}
	return wrapped
}

// writeLocked applies a write to a. Atoms with write functions
// interpret the argument themselves through a writeTx; primitives
// commit it directly.
func (s *Store) writeLocked(a AnyAtom, arg any) error {
	b := a.base()
	if b.write != nil {
		if err := b.write(&writeTx{store: s}, arg); err != nil {
			return err
		}
		s.stats.sets.Add(1)
		s.observers().OnSet(a)
		return nil
	}
	st := s.ensureLocked(a)
	s.commitWriteLocked(st, arg)
	s.stats.sets.Add(1)
	s.observers().OnSet(a)
	return nil
}

// commitWriteLocked commits v as st's value and, if it differs from the
// previous one, invalidates dependents and queues notifications. Any
// in-flight asynchronous computation is superseded.
func (s *Store) commitWriteLocked(st *atomState, v any) {
	st.gen++
	if st.settle != nil {
		close(st.settle)
		st.settle = nil
	}
	if s.commitValueLocked(st, v) {
		s.invalidateDependentsLocked(st)
		s.queueNotifyLocked(st)
	}
}

// commitValueLocked stores v as st's current value and reports whether
// it differs from the previous one. Equal values refresh the status but
// keep the epoch, so dependents can skip recomputation.
func (s *Store) commitValueLocked(st *atomState, v any) bool {
	eq := st.ref.base().equals
	if eq == nil {
		eq = defaultEquals
	}
	if st.initialized && eq(st.value, v) {
		st.err = nil
		st.status = StatusFresh
		return false
	}
	st.value = v
	st.err = nil
	st.status = StatusFresh
	st.initialized = true
	st.epoch++
	return true
}

// replaceDepsLocked swaps st's dependency edges for the set collected
// by its latest computation, updating the reverse index on both sides.
func (s *Store) replaceDepsLocked(st *atomState, edges []depEdge) {
	id := st.ref.ID()
	for _, old := range st.deps {
		stillUsed := false
		for _, e := range edges {
			if e.id == old.id {
				stillUsed = true
				break
			}
		}
		if stillUsed {
			continue
		}
		if dep, ok := s.states[old.id]; ok {
			delete(dep.dependents, id)
		}
	}
	for _, e := range edges {
		dep, ok := s.states[e.id]
		if !ok {
			continue
		}
		if dep.dependents == nil {
			dep.dependents = make(map[uint64]struct{}, 2)
		}
		dep.dependents[id] = struct{}{}
	}
	st.deps = edges
}
