package resettable

import (
	"testing"

	"github.com/leobastiani/jotai/pkg/jotai"
)

func TestResetAtomRoundTrip(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	count := NewResetAtom(0)

	jotai.Set(store, count, jotai.WithValue(7))
	if v, _ := jotai.Get(store, count); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}

	if err := jotai.Reset(store, count); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v, _ := jotai.Get(store, count); v != 0 {
		t.Errorf("expected 0 after reset, got %d", v)
	}
}

func TestResetAtomNotifiesDependents(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	count := NewResetAtom(1)
	doubled := jotai.NewDerived(func(g jotai.Getter) (int, error) {
		n, err := jotai.Get(g, count)
		return n * 2, err
	})

	jotai.Set(store, count, jotai.WithValue(5))
	if v, _ := jotai.Get(store, doubled); v != 10 {
		t.Fatalf("expected 10, got %d", v)
	}

	jotai.Reset(store, count)
	if v, _ := jotai.Get(store, doubled); v != 2 {
		t.Errorf("expected 2 after reset, got %d", v)
	}
}

func TestDefaultAtomRecomputesOnReset(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	base := jotai.NewAtom(10)
	withDefault := NewDefaultAtom(func(g jotai.Getter) (int, error) {
		n, err := jotai.Get(g, base)
		return n * 2, err
	})

	if v, _ := jotai.Get(store, withDefault); v != 20 {
		t.Fatalf("expected default 20, got %d", v)
	}

	// Override wins over the computation
	jotai.Set(store, withDefault, jotai.WithValue(99))
	if v, _ := jotai.Get(store, withDefault); v != 99 {
		t.Fatalf("expected override 99, got %d", v)
	}

	// The dependency moves while overridden
	jotai.Set(store, base, 50)
	if v, _ := jotai.Get(store, withDefault); v != 99 {
		t.Fatalf("expected override to stick, got %d", v)
	}

	// Reset re-runs the read against current dependencies, not a
	// snapshot from override time
	if err := jotai.Reset(store, withDefault); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v, _ := jotai.Get(store, withDefault); v != 100 {
		t.Errorf("expected recomputed 100 after reset, got %d", v)
	}
}

func TestDefaultAtomTracksAfterReset(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	base := jotai.NewAtom(1)
	withDefault := NewDefaultAtom(func(g jotai.Getter) (int, error) {
		return jotai.Get(g, base)
	})

	jotai.Set(store, withDefault, jotai.WithValue(5))
	jotai.Reset(store, withDefault)
	if v, _ := jotai.Get(store, withDefault); v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}

	// Dependency tracking is live again after the reset
	jotai.Set(store, base, 3)
	if v, _ := jotai.Get(store, withDefault); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}

func TestResetAtomViaResetAny(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	count := NewResetAtom(4)
	jotai.Set(store, count, jotai.WithValue(9))

	if err := store.ResetAny(count); err != nil {
		t.Fatalf("reset any: %v", err)
	}
	if v, _ := jotai.Get(store, count); v != 4 {
		t.Errorf("expected 4, got %d", v)
	}
}
