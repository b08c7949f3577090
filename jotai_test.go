package jotai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/leobastiani/jotai"
)

func TestFacadeEndToEnd(t *testing.T) {
	store := jotai.NewStore(jotai.WithName("facade"))
	defer store.Close()

	count := jotai.NewAtom(1, jotai.WithLabel("count"))
	double := jotai.NewDerived(func(g jotai.Getter) (int, error) {
		n, err := jotai.Get(g, count)
		return n * 2, err
	}, jotai.WithLabel("double"))

	if v, err := jotai.Get(store, double); err != nil || v != 2 {
		t.Fatalf("Get(double) = %d, %v; want 2, nil", v, err)
	}
	if err := jotai.Set(store, count, 21); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := jotai.Get(store, double); v != 42 {
		t.Fatalf("Get(double) after Set = %d, want 42", v)
	}
	if v, ok := jotai.Peek(store, double); !ok || v != 42 {
		t.Errorf("Peek(double) = %d, %v; want 42, true", v, ok)
	}
}

func TestFacadeResetAndRefresh(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	mode := jotai.NewResetAtom("auto")
	if err := jotai.Set(store, mode, jotai.WithValue("manual")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := jotai.Get(store, mode); v != "manual" {
		t.Fatalf("mode = %q, want manual", v)
	}
	if err := jotai.Reset[string](store, mode); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if v, _ := jotai.Get(store, mode); v != "auto" {
		t.Fatalf("mode after reset = %q, want auto", v)
	}

	fetches := 0
	feed := jotai.NewRefreshable(func(jotai.Getter) (int, error) {
		fetches++
		return fetches, nil
	})
	if v, _ := jotai.Get(store, feed); v != 1 {
		t.Fatalf("first read = %d, want 1", v)
	}
	if err := jotai.Refresh(store, feed); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v, _ := jotai.Get(store, feed); v != 2 {
		t.Fatalf("read after refresh = %d, want 2", v)
	}
}

func TestFacadeAsync(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	user := jotai.NewAsync(func(jotai.Getter) (jotai.ResolveFunc[string], error) {
		return func(ctx context.Context) (string, error) {
			return "alice", nil
		}, nil
	})

	if _, err := jotai.Get(store, user); !errors.Is(err, jotai.ErrPending) {
		t.Fatalf("first read err = %v, want ErrPending", err)
	}
	v, err := jotai.Wait(context.Background(), store, user)
	if err != nil || v != "alice" {
		t.Fatalf("Wait = %q, %v; want alice, nil", v, err)
	}
	if l := jotai.Load(store, user); l.State != jotai.StateReady || l.Value != "alice" {
		t.Fatalf("Load = %+v, want ready alice", l)
	}
}

func TestFacadeFamilyAndSelect(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	counters := jotai.NewFamily(func(name string) *jotai.WritableAtom[int, int] {
		return jotai.NewAtom(0, jotai.WithLabel("counter:"+name))
	})
	a := counters.Get("a")
	if counters.Get("a") != a {
		t.Fatal("family did not memoize by key")
	}

	type profile struct {
		Name string
		Age  int
	}
	user := jotai.NewAtom(profile{Name: "alice", Age: 30})
	name := jotai.Select(user, func(p profile) string { return p.Name })
	if v, _ := jotai.Get(store, name); v != "alice" {
		t.Fatalf("Select = %q, want alice", v)
	}
}
