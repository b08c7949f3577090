package jotai

// frame tracks one in-flight computation. Frames form a chain through
// parent as computations nest, which doubles as the path for cycle
// detection: the chain can only be observed while the store lock is
// held, so it is exactly the stack of computations leading to the
// current read.
type frame struct {
	store  *Store
	state  *atomState
	parent *frame

	// edges collects the dependencies read so far, in first-read order.
	edges []depEdge
	seen  map[uint64]struct{}
}

var _ Getter = (*frame)(nil)

// resolveAtom reads a dependency on behalf of the computation this
// frame belongs to. The read is recorded as an edge even when it fails,
// so a pending dependency can wake this atom up once it settles.
func (f *frame) resolveAtom(a AnyAtom) (any, error) {
	st := f.store.ensureLocked(a)
	if err := f.checkCycle(st); err != nil {
		return nil, err
	}
	v, err := f.store.resolveLocked(st, f)
	f.record(st)
	return v, err
}

// checkCycle walks the frame chain looking for the atom about to be
// read. Finding it means the computation depends on itself; the
// returned error lists the labels along the loop, outermost first.
func (f *frame) checkCycle(st *atomState) error {
	if !chainContains(f, st) {
		return nil
	}
	var path []string
	for fr := f; fr != nil; fr = fr.parent {
		path = append(path, fr.state.ref.Label())
		if fr.state == st {
			break
		}
	}
	// The chain walks inner to outer; report outermost first and close
	// the loop on the repeated atom.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	path = append(path, st.ref.Label())
	return &CycleError{Path: path}
}

// chainContains reports whether st is one of the computations on the
// frame chain starting at f.
func chainContains(f *frame, st *atomState) bool {
	for fr := f; fr != nil; fr = fr.parent {
		if fr.state == st {
			return true
		}
	}
	return false
}

// record adds st to this frame's dependency set, once per atom, with
// the epoch its value has now that the read resolved.
func (f *frame) record(st *atomState) {
	id := st.ref.ID()
	if f.seen == nil {
		f.seen = make(map[uint64]struct{}, 4)
	}
	if _, dup := f.seen[id]; dup {
		return
	}
	f.seen[id] = struct{}{}
	f.edges = append(f.edges, depEdge{id: id, epoch: st.epoch})
}

// writeTx is the Setter handed to write functions. It operates on a
// store whose lock is already held by the outermost write, so nested
// writes join the same invalidation batch. Reads through it are not
// tracked.
type writeTx struct {
	store *Store
}

var _ Setter = (*writeTx)(nil)

func (tx *writeTx) resolveAtom(a AnyAtom) (any, error) {
	st := tx.store.ensureLocked(a)
	return tx.store.resolveLocked(st, nil)
}

func (tx *writeTx) writeAtom(a AnyAtom, arg any) error {
	return tx.store.writeLocked(a, arg)
}

func (tx *writeTx) commitAtom(a AnyAtom, value any) error {
	st := tx.store.ensureLocked(a)
	tx.store.commitWriteLocked(st, value)
	return nil
}
