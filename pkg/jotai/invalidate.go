package jotai

import "sort"

// invalidateDependentsLocked marks every transitive dependent of st
// stale and queues their subscribers for notification. st itself is not
// touched; callers change its entry first. Each atom is visited once,
// so diamond-shaped graphs queue one notification per atom and batch.
func (s *Store) invalidateDependentsLocked(st *atomState) {
	if len(st.dependents) == 0 {
		s.observers().OnInvalidate(st.ref, 0)
		return
	}
	visited := map[uint64]struct{}{st.ref.ID(): {}}
	count := 0

	var walk func(dep *atomState)
	walk = func(dep *atomState) {
		for id := range dep.dependents {
			if _, done := visited[id]; done {
				continue
			}
			visited[id] = struct{}{}
			next, ok := s.states[id]
			if !ok {
				continue
			}
			count++
			s.markStaleLocked(next)
			walk(next)
		}
	}
	walk(st)

	s.stats.invalidations.Add(uint64(count))
	s.observers().OnInvalidate(st.ref, count)
}

// markStaleLocked transitions one entry to stale and queues its
// subscribers. Fresh values are kept so Peek and equality checks still
// see them; an in-flight asynchronous computation is superseded by
// bumping the generation.
func (s *Store) markStaleLocked(st *atomState) {
	if st.status == StatusComputing {
		st.gen++
		if st.settle != nil {
			close(st.settle)
			st.settle = nil
		}
	}
	st.status = StatusStale
	s.queueNotifyLocked(st)
}

// queueNotifyLocked adds st to the current batch's notification set.
// The map deduplicates by atom ID, so an atom invalidated through
// several paths in one batch notifies once.
func (s *Store) queueNotifyLocked(st *atomState) {
	if len(st.subs) == 0 {
		return
	}
	if s.pending == nil {
		s.pending = make(map[uint64]*atomState)
	}
	s.pending[st.ref.ID()] = st
}

// notifyBatch is the set of callbacks collected from one write batch,
// ready to run outside the store lock.
type notifyBatch []notifyGroup

type notifyGroup struct {
	atom AnyAtom
	fns  []func()
}

// drainLocked collects the pending notifications into a batch if the
// outermost write scope just ended. Groups are ordered by ascending
// atom ID and callbacks by registration order, so notification order is
// deterministic; callbacks are copied out so unsubscribing during
// delivery cannot mutate the slice mid-iteration.
func (s *Store) drainLocked() notifyBatch {
	if s.batchDepth > 0 || len(s.pending) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	batch := make(notifyBatch, 0, len(ids))
	for _, id := range ids {
		st := s.pending[id]
		if len(st.subs) == 0 {
			continue
		}
		fns := make([]func(), len(st.subs))
		for i, sub := range st.subs {
			fns[i] = sub.fn
		}
		batch = append(batch, notifyGroup{atom: st.ref, fns: fns})
	}
	clear(s.pending)
	return batch
}

// fire delivers a drained batch. It must be called without the store
// lock; callbacks are free to read and write the store, which starts a
// new batch of their own.
func (s *Store) fire(batch notifyBatch) {
	for _, g := range batch {
		s.stats.notifications.Add(uint64(len(g.fns)))
		s.observers().OnNotify(g.atom, len(g.fns))
		for _, fn := range g.fns {
			fn()
		}
	}
}

// Batch runs fn with notifications deferred: writes inside fn
// invalidate as usual, but subscribers are notified once, after fn
// returns, with one callback per subscribed atom no matter how many
// writes touched it. Batches nest; only the outermost one delivers.
func (s *Store) Batch(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.batchDepth++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batchDepth--
		batch := s.drainLocked()
		s.mu.Unlock()
		s.fire(batch)
	}()

	fn()
}

// Invalidate marks a stale and propagates to its dependents, like a
// write that changed the value would, without committing a new value.
// The next read recomputes. Subscribers of a and of its dependents are
// notified.
func (s *Store) Invalidate(a AnyAtom) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.batchDepth++
	st := s.ensureLocked(a)
	// Force recomputation even if the dependencies look unchanged. The
	// old edges are retired on both sides; the next computation records
	// a fresh set.
	st.epoch++
	s.replaceDepsLocked(st, nil)
	s.markStaleLocked(st)
	s.invalidateDependentsLocked(st)
	s.batchDepth--
	batch := s.drainLocked()
	s.mu.Unlock()
	s.fire(batch)
}
