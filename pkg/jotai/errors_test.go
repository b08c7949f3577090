package jotai

import (
	"errors"
	"testing"
)

func TestComputationErrorWrapsCause(t *testing.T) {
	store := NewStore()
	defer store.Close()

	boom := errors.New("boom")
	failing := NewDerived(func(g Getter) (int, error) {
		return 0, boom
	}, WithLabel("failing"))

	_, err := Get(store, failing)
	if !errors.Is(err, ErrComputation) {
		t.Fatalf("expected ErrComputation, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected the cause to be reachable, got %v", err)
	}

	var ce *ComputationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ComputationError, got %T", err)
	}
	if ce.AtomLabel != "failing" {
		t.Errorf("expected label %q, got %q", "failing", ce.AtomLabel)
	}
}

func TestErrorCachedUntilInvalidated(t *testing.T) {
	store := NewStore()
	defer store.Close()

	shouldFail := NewAtom(false)
	computes := 0
	flaky := NewDerived(func(g Getter) (int, error) {
		computes++
		fail, err := Get(g, shouldFail)
		if err != nil {
			return 0, err
		}
		if fail {
			return 0, errors.New("flaky failure")
		}
		return 1, nil
	})

	if _, err := Get(store, flaky); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	Set(store, shouldFail, true)
	if _, err := Get(store, flaky); err == nil {
		t.Fatal("expected failure")
	}

	// The error is served from cache until something invalidates
	computes = 0
	if _, err := Get(store, flaky); err == nil {
		t.Fatal("expected cached failure")
	}
	if computes != 0 {
		t.Errorf("expected no recompute while errored, got %d", computes)
	}

	// Fixing the dependency recovers
	Set(store, shouldFail, false)
	if v, err := Get(store, flaky); err != nil || v != 1 {
		t.Errorf("expected recovery to (1, nil), got (%d, %v)", v, err)
	}
}

func TestFailedRecomputeKeepsPreviousState(t *testing.T) {
	store := NewStore()
	defer store.Close()

	input := NewAtom(1)
	halved := NewDerived(func(g Getter) (int, error) {
		n, err := Get(g, input)
		if err != nil {
			return 0, err
		}
		if n%2 != 0 && n != 1 {
			return 0, errors.New("odd input")
		}
		return n / 2, nil
	})
	display := NewDerived(func(g Getter) (int, error) {
		return Get(g, halved)
	})

	if v, _ := Get(store, display); v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
	Set(store, input, 4)
	if v, _ := Get(store, display); v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}

	// A write that makes the recompute fail
	Set(store, input, 3)
	if _, err := Get(store, display); err == nil {
		t.Fatal("expected failure to propagate")
	}

	// Previous values survive the failure for inspection
	if v, ok := Peek(store, halved); !ok || v != 2 {
		t.Errorf("expected previous value (2, true), got (%d, %v)", v, ok)
	}
	if v, ok := Peek(store, display); !ok || v != 2 {
		t.Errorf("expected previous value (2, true), got (%d, %v)", v, ok)
	}

	// And recovery is clean
	Set(store, input, 8)
	if v, err := Get(store, display); err != nil || v != 4 {
		t.Errorf("expected (4, nil), got (%d, %v)", v, err)
	}
}

func TestFirstFailureRetriesOnRead(t *testing.T) {
	store := NewStore()
	defer store.Close()

	attempts := 0
	eventually := NewDerived(func(g Getter) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("not yet")
		}
		return 7, nil
	})

	// An atom that never succeeded has no dependency edges to wake it
	// up, so reads retry instead of caching the failure forever.
	Get(store, eventually)
	Get(store, eventually)
	if v, err := Get(store, eventually); err != nil || v != 7 {
		t.Errorf("expected (7, nil) on third attempt, got (%d, %v)", v, err)
	}
}
