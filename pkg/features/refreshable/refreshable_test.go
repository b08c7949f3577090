package refreshable

import (
	"testing"

	"github.com/leobastiani/jotai/pkg/jotai"
)

func TestRefreshForcesRecompute(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	reads := 0
	now := New(func(g jotai.Getter) (int, error) {
		reads++
		return reads, nil
	})

	if v, _ := jotai.Get(store, now); v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	// Cached without a refresh
	if v, _ := jotai.Get(store, now); v != 1 {
		t.Fatalf("expected cached 1, got %d", v)
	}

	if err := jotai.Refresh(store, now); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if v, _ := jotai.Get(store, now); v != 2 {
		t.Errorf("expected recomputed 2, got %d", v)
	}
}

func TestRefreshWithUnchangedDependencies(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	source := jotai.NewAtom(5)
	reads := 0
	mirror := New(func(g jotai.Getter) (int, error) {
		reads++
		return jotai.Get(g, source)
	})

	jotai.Get(store, mirror)
	jotai.Refresh(store, mirror)
	jotai.Get(store, mirror)
	if reads != 2 {
		t.Errorf("expected refresh to recompute with unchanged deps, got %d reads", reads)
	}
}

func TestWritableRefreshKeepsWriteSemantics(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	backing := jotai.NewAtom("initial")
	reads := 0
	var written []string
	atom := NewWritable(
		func(g jotai.Getter) (string, error) {
			reads++
			return jotai.Get(g, backing)
		},
		func(s jotai.Setter, arg string) error {
			written = append(written, arg)
			return jotai.Set(s, backing, arg)
		},
	)

	if v, _ := jotai.Get(store, atom); v != "initial" {
		t.Fatalf("expected initial, got %q", v)
	}

	// A write goes to the user write function, unchanged, and does not
	// force an extra refresh of its own
	if err := jotai.Set(store, atom, "updated"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(written) != 1 || written[0] != "updated" {
		t.Fatalf("expected write function to receive %q, got %v", "updated", written)
	}
	if v, _ := jotai.Get(store, atom); v != "updated" {
		t.Fatalf("expected updated, got %q", v)
	}

	// Refresh recomputes without touching the write function
	reads = 0
	if err := jotai.Refresh(store, atom); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	jotai.Get(store, atom)
	if reads != 1 {
		t.Errorf("expected 1 recompute after refresh, got %d", reads)
	}
	if len(written) != 1 {
		t.Errorf("refresh must not invoke the write function, got %v", written)
	}
}

func TestRefreshNotifiesSubscribers(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	ticks := New(func(g jotai.Getter) (int, error) { return 0, nil })
	jotai.Get(store, ticks)

	notified := 0
	unsub := store.Subscribe(ticks, func() { notified++ })
	defer unsub()

	jotai.Refresh(store, ticks)
	if notified != 1 {
		t.Errorf("expected 1 notification, got %d", notified)
	}
}
