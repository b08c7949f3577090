package selector

import (
	"strings"
	"testing"

	"github.com/leobastiani/jotai/pkg/jotai"
)

type profile struct {
	Name  string
	Email string
	Age   int
}

func TestSelectPicksField(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	user := jotai.NewAtom(profile{Name: "alice", Email: "a@example.com", Age: 30})
	name := Select(user, func(p profile) string { return p.Name })

	if v, _ := jotai.Get(store, name); v != "alice" {
		t.Errorf("expected alice, got %q", v)
	}

	jotai.Set(store, user, profile{Name: "bob", Email: "b@example.com", Age: 25})
	if v, _ := jotai.Get(store, name); v != "bob" {
		t.Errorf("expected bob, got %q", v)
	}
}

func TestSelectSuppressesUnchangedProjection(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	user := jotai.NewAtom(profile{Name: "alice", Age: 30})
	name := Select(user, func(p profile) string { return p.Name })

	greetings := 0
	greeting := jotai.NewDerived(func(g jotai.Getter) (string, error) {
		greetings++
		n, err := jotai.Get(g, name)
		return "hello " + n, err
	})

	if v, _ := jotai.Get(store, greeting); v != "hello alice" {
		t.Fatalf("expected greeting, got %q", v)
	}

	// Unrelated churn in the source must not reach dependents of the
	// projection
	jotai.Set(store, user, profile{Name: "alice", Age: 31})
	jotai.Get(store, greeting)
	if greetings != 1 {
		t.Errorf("expected greeting to stay cached, computed %d times", greetings)
	}

	jotai.Set(store, user, profile{Name: "carol", Age: 31})
	if v, _ := jotai.Get(store, greeting); v != "hello carol" {
		t.Errorf("expected updated greeting, got %q", v)
	}
	if greetings != 2 {
		t.Errorf("expected 2 computations, got %d", greetings)
	}
}

func TestSelectEqual(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	word := jotai.NewAtom("Go")
	folded := SelectEqual(word,
		func(s string) string { return s },
		func(a, b string) bool { return strings.EqualFold(a, b) },
	)

	notified := 0
	jotai.Get(store, folded)
	unsub := store.Subscribe(folded, func() {
		notified++
		jotai.Get(store, folded)
	})
	defer unsub()

	// Case-only change is equal under the custom comparison; the
	// subscriber fires for the invalidation but the committed value is
	// unchanged afterwards
	jotai.Set(store, word, "GO")
	jotai.Set(store, word, "rust")
	if v, _ := jotai.Get(store, folded); v != "rust" {
		t.Errorf("expected rust, got %q", v)
	}
	if notified != 2 {
		t.Errorf("expected 2 notifications (one per source write), got %d", notified)
	}
}
