package jtest

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// ReadCounter pairs a derived atom with a count of how many times its
// read function actually ran. Use it to assert on caching and
// recomputation behavior.
type ReadCounter[T any] struct {
	// Atom is the derived atom to read through the store under test.
	Atom *jotai.Atom[T]

	n atomic.Int64
}

// NewReadCounter creates a derived atom whose computations are
// counted.
func NewReadCounter[T any](read jotai.ReadFunc[T], opts ...jotai.AtomOption) *ReadCounter[T] {
	c := &ReadCounter[T]{}
	c.Atom = jotai.NewDerived(func(g jotai.Getter) (T, error) {
		c.n.Add(1)
		return read(g)
	}, opts...)
	return c
}

// Count returns how many times the read function has run.
func (c *ReadCounter[T]) Count() int {
	return int(c.n.Load())
}

// Reset zeroes the count.
func (c *ReadCounter[T]) Reset() {
	c.n.Store(0)
}

// Recorder subscribes to atoms and captures every notification it
// receives. Safe for concurrent use; synchronous writes deliver on the
// writing goroutine, async settlements on the resolver goroutine.
type Recorder struct {
	mu     sync.Mutex
	labels []string
	unsubs []func()
}

// NewRecorder subscribes to each atom on store. Close unsubscribes.
func NewRecorder(store *jotai.Store, atoms ...jotai.AnyAtom) *Recorder {
	r := &Recorder{}
	for _, a := range atoms {
		label := a.Label()
		r.unsubs = append(r.unsubs, store.Subscribe(a, func() {
			r.mu.Lock()
			r.labels = append(r.labels, label)
			r.mu.Unlock()
		}))
	}
	return r
}

// Count returns the number of notifications received so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.labels)
}

// Labels returns the labels of all notified atoms in delivery order.
func (r *Recorder) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// SortedLabels returns the notified labels sorted alphabetically, for
// assertions that do not care about delivery order.
func (r *Recorder) SortedLabels() []string {
	out := r.Labels()
	sort.Strings(out)
	return out
}

// Reset clears recorded notifications without unsubscribing.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.labels = r.labels[:0]
	r.mu.Unlock()
}

// Close unsubscribes from all atoms.
func (r *Recorder) Close() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

// settleTimeout bounds WaitSettled. Async tests that take longer than
// this are broken, not slow.
const settleTimeout = 5 * time.Second

// WaitSettled blocks until none of the given atoms is mid-computation
// in store, failing t on timeout. Atoms the store has never seen count
// as settled.
func WaitSettled(t *testing.T, store *jotai.Store, atoms ...jotai.AnyAtom) {
	t.Helper()

	deadline := time.Now().Add(settleTimeout)
	for {
		if allSettled(store, atoms) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("atoms did not settle within %v", settleTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func allSettled(store *jotai.Store, atoms []jotai.AnyAtom) bool {
	pending := make(map[uint64]bool, len(atoms))
	for _, a := range atoms {
		pending[a.ID()] = true
	}
	for _, info := range store.Snapshot() {
		if pending[info.ID] && info.Status == jotai.StatusComputing {
			return false
		}
	}
	return true
}

// ExpectValue reads a through store and fails t unless the value is
// want. Comparison uses reflect.DeepEqual.
func ExpectValue[T any](t *testing.T, store *jotai.Store, a jotai.Readable[T], want T) {
	t.Helper()
	got, err := jotai.Get(store, a)
	if err != nil {
		t.Errorf("reading %s: unexpected error: %v", a.Label(), err)
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reading %s: got %v, want %v", a.Label(), got, want)
	}
}

// ExpectError reads a through store and fails t unless the read
// returns an error. The error is returned for further inspection.
func ExpectError[T any](t *testing.T, store *jotai.Store, a jotai.Readable[T]) error {
	t.Helper()
	_, err := jotai.Get(store, a)
	if err == nil {
		t.Errorf("reading %s: expected an error", a.Label())
	}
	return err
}
