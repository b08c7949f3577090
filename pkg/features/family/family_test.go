package family

import (
	"fmt"
	"testing"

	"github.com/leobastiani/jotai/pkg/jotai"
)

func TestFamilyStableIdentity(t *testing.T) {
	created := 0
	scores := New(func(player string) *jotai.WritableAtom[int, int] {
		created++
		return jotai.NewAtom(0, jotai.WithLabel("score."+player))
	})

	a := scores.Get("alice")
	b := scores.Get("alice")
	if a != b {
		t.Error("expected the same atom for the same key")
	}
	if created != 1 {
		t.Errorf("expected 1 creation, got %d", created)
	}

	if scores.Get("bob") == a {
		t.Error("expected a different atom for a different key")
	}
	if scores.Len() != 2 {
		t.Errorf("expected 2 members, got %d", scores.Len())
	}
}

func TestFamilyPerKeyState(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	scores := New(func(player string) *jotai.WritableAtom[int, int] {
		return jotai.NewAtom(0)
	})

	jotai.Set(store, scores.Get("alice"), 3)
	jotai.Set(store, scores.Get("bob"), 8)

	if v, _ := jotai.Get(store, scores.Get("alice")); v != 3 {
		t.Errorf("expected alice 3, got %d", v)
	}
	if v, _ := jotai.Get(store, scores.Get("bob")); v != 8 {
		t.Errorf("expected bob 8, got %d", v)
	}
}

func TestFamilyRemove(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	scores := New(func(player string) *jotai.WritableAtom[int, int] {
		return jotai.NewAtom(0)
	})

	jotai.Set(store, scores.Get("alice"), 5)
	scores.Remove("alice")
	if scores.Has("alice") {
		t.Error("expected alice to be removed")
	}

	// A new identity starts from scratch
	if v, _ := jotai.Get(store, scores.Get("alice")); v != 0 {
		t.Errorf("expected fresh atom at 0, got %d", v)
	}
}

func TestFamilyDerivedMembers(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	base := jotai.NewAtom(10)
	multiples := New(func(n int) *jotai.Atom[int] {
		return jotai.NewDerived(func(g jotai.Getter) (int, error) {
			b, err := jotai.Get(g, base)
			return b * n, err
		}, jotai.WithLabel(fmt.Sprintf("x%d", n)))
	})

	if v, _ := jotai.Get(store, multiples.Get(3)); v != 30 {
		t.Errorf("expected 30, got %d", v)
	}

	jotai.Set(store, base, 2)
	if v, _ := jotai.Get(store, multiples.Get(3)); v != 6 {
		t.Errorf("expected 6, got %d", v)
	}
	if v, _ := jotai.Get(store, multiples.Get(5)); v != 10 {
		t.Errorf("expected 10, got %d", v)
	}
}

func TestFamilyClearAndRange(t *testing.T) {
	scores := New(func(player string) *jotai.WritableAtom[int, int] {
		return jotai.NewAtom(0)
	})
	scores.Get("a")
	scores.Get("b")
	scores.Get("c")

	seen := 0
	scores.Range(func(key string, _ *jotai.WritableAtom[int, int]) bool {
		seen++
		return true
	})
	if seen != 3 {
		t.Errorf("expected to range over 3 members, got %d", seen)
	}

	scores.Clear()
	if scores.Len() != 0 {
		t.Errorf("expected empty family, got %d", scores.Len())
	}
}
