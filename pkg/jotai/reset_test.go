package jotai

import (
	"errors"
	"testing"
)

// resettablePrimitive is what the resettable package builds; the core
// tests construct one by hand to exercise the ResetOr plumbing.
func resettablePrimitive(initial int) *WritableAtom[int, ResetOr[int]] {
	var self *WritableAtom[int, ResetOr[int]]
	self = NewPrimitive(initial, func(s Setter, arg ResetOr[int]) error {
		if arg.IsReset() {
			return SetValue(s, self, initial)
		}
		v, _ := arg.Value()
		return SetValue(s, self, v)
	})
	return self
}

func TestResetOrVariants(t *testing.T) {
	v, ok := WithValue(7).Value()
	if !ok || v != 7 {
		t.Errorf("expected (7, true), got (%d, %v)", v, ok)
	}
	if WithValue(7).IsReset() {
		t.Error("value variant must not report reset")
	}

	r := ResetSignal[int]()
	if !r.IsReset() {
		t.Error("reset variant must report reset")
	}
	if _, ok := r.Value(); ok {
		t.Error("reset variant must not carry a value")
	}

	// The zero value carries the zero value, not a reset
	var zero ResetOr[int]
	if zero.IsReset() {
		t.Error("zero ResetOr must not be a reset")
	}
}

func TestResetRestoresInitial(t *testing.T) {
	store := NewStore()
	defer store.Close()

	count := resettablePrimitive(0)

	Set(store, count, WithValue(7))
	if v, _ := Get(store, count); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}

	if err := Reset(store, count); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v, _ := Get(store, count); v != 0 {
		t.Errorf("expected 0 after reset, got %d", v)
	}
}

func TestResetSignalPassesThroughForwardingWrites(t *testing.T) {
	store := NewStore()
	defer store.Close()

	inner := resettablePrimitive(10)

	// A wrapper whose write just forwards its argument downstream; the
	// reset signal must survive the hop.
	outer := NewWritable(
		func(g Getter) (int, error) {
			return Get(g, inner)
		},
		func(s Setter, arg ResetOr[int]) error {
			return Set(s, inner, arg)
		},
	)

	Set(store, outer, WithValue(99))
	if v, _ := Get(store, inner); v != 99 {
		t.Fatalf("expected forwarded 99, got %d", v)
	}

	if err := Reset(store, outer); err != nil {
		t.Fatalf("reset through wrapper: %v", err)
	}
	if v, _ := Get(store, inner); v != 10 {
		t.Errorf("expected inner reset to 10, got %d", v)
	}
	if v, _ := Get(store, outer); v != 10 {
		t.Errorf("expected outer to read 10, got %d", v)
	}
}

func TestResetAny(t *testing.T) {
	store := NewStore()
	defer store.Close()

	count := resettablePrimitive(3)
	Set(store, count, WithValue(8))

	if err := store.ResetAny(count); err != nil {
		t.Fatalf("reset any: %v", err)
	}
	if v, _ := Get(store, count); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}

func TestResetAnyUnsupported(t *testing.T) {
	store := NewStore()
	defer store.Close()

	plain := NewAtom(1)
	err := store.ResetAny(plain)
	if !errors.Is(err, ErrUnsupportedReset) {
		t.Errorf("expected ErrUnsupportedReset, got %v", err)
	}

	derived := NewDerived(func(g Getter) (int, error) { return 1, nil })
	if err := store.ResetAny(derived); !errors.Is(err, ErrUnsupportedReset) {
		t.Errorf("expected ErrUnsupportedReset for read-only atom, got %v", err)
	}
}
