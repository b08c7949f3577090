// Package jtest provides testing helpers for jotai stores.
//
// The jtest package reduces boilerplate when asserting on computation
// counts, subscriber notifications and async settlement.
//
// # Quick Start
//
//	func TestTotals(t *testing.T) {
//	    store := jotai.NewStore()
//	    defer store.Close()
//
//	    total := jtest.NewReadCounter(func(g jotai.Getter) (int, error) {
//	        a, _ := jotai.Get(g, itemsAtom)
//	        return len(a), nil
//	    })
//
//	    jtest.ExpectValue(t, store, total.Atom, 0)
//	    jtest.ExpectValue(t, store, total.Atom, 0)
//	    if total.Count() != 1 {
//	        t.Errorf("computed %d times, want 1", total.Count())
//	    }
//	}
//
// # Recording Notifications
//
//	rec := jtest.NewRecorder(store, totalAtom, countAtom)
//	defer rec.Close()
//
//	jotai.Set(store, countAtom, 5)
//	if got := rec.Labels(); !slices.Equal(got, []string{"count", "total"}) {
//	    t.Errorf("notified %v", got)
//	}
//
// # Async Settlement
//
//	jotai.Get(store, userAtom) // kicks off the resolver
//	jtest.WaitSettled(t, store, userAtom)
//	jtest.ExpectValue(t, store, userAtom, want)
package jtest
