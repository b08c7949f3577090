package jotai

import "sort"

// Stats are cumulative operation counters for one store. Counters only
// grow; rates are the caller's business.
type Stats struct {
	Atoms         int    `json:"atoms"`
	Gets          uint64 `json:"gets"`
	Hits          uint64 `json:"hits"`
	Computes      uint64 `json:"computes"`
	Sets          uint64 `json:"sets"`
	Invalidations uint64 `json:"invalidations"`
	Notifications uint64 `json:"notifications"`
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	atoms := len(s.states)
	s.mu.RUnlock()
	return Stats{
		Atoms:         atoms,
		Gets:          s.stats.gets.Load(),
		Hits:          s.stats.hits.Load(),
		Computes:      s.stats.computes.Load(),
		Sets:          s.stats.sets.Load(),
		Invalidations: s.stats.invalidations.Load(),
		Notifications: s.stats.notifications.Load(),
	}
}

// AtomInfo describes one atom's cache entry for inspection. Values of
// reference type are shared with the store and must be treated as
// read-only.
type AtomInfo struct {
	ID          uint64   `json:"id"`
	Label       string   `json:"label"`
	Status      Status   `json:"status"`
	Value       any      `json:"value,omitempty"`
	Error       string   `json:"error,omitempty"`
	Epoch       uint64   `json:"epoch"`
	Deps        []uint64 `json:"deps,omitempty"`
	Dependents  []uint64 `json:"dependents,omitempty"`
	Subscribers int      `json:"subscribers"`
}

// Find returns the atom with the given ID if this store has an entry
// for it.
func (s *Store) Find(id uint64) (AnyAtom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return nil, false
	}
	return st.ref, true
}

// Snapshot returns the state of every atom the store has touched,
// ordered by ascending atom ID. It never computes anything; entries
// that have not been read yet appear as stale with no value.
func (s *Store) Snapshot() []AtomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]AtomInfo, 0, len(s.states))
	for _, st := range s.states {
		info := AtomInfo{
			ID:          st.ref.ID(),
			Label:       st.ref.Label(),
			Status:      st.status,
			Epoch:       st.epoch,
			Subscribers: len(st.subs),
		}
		if st.initialized {
			info.Value = st.value
		}
		if st.err != nil {
			info.Error = st.err.Error()
		}
		for _, e := range st.deps {
			info.Deps = append(info.Deps, e.id)
		}
		for id := range st.dependents {
			info.Dependents = append(info.Dependents, id)
		}
		sort.Slice(info.Dependents, func(i, j int) bool { return info.Dependents[i] < info.Dependents[j] })
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
