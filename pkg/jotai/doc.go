// Package jotai provides the reactive atom store that the rest of the
// module is built on.
//
// An atom is an immutable description of a piece of state: either a
// primitive value or a computation derived from other atoms. Atoms hold
// no state themselves; all values live in a Store, keyed by atom
// identity. Reading a derived atom records which atoms its computation
// touched, so when a dependency changes only the affected part of the
// graph is invalidated, and recomputation happens lazily on the next
// read.
//
// # Core Types
//
// Atoms are created once, usually as package-level variables, and used
// against any number of stores:
//
//	counter := jotai.NewAtom(0)
//	doubled := jotai.NewDerived(func(g jotai.Getter) (int, error) {
//	    n, err := jotai.Get(g, counter)
//	    return n * 2, err
//	})
//
//	store := jotai.NewStore()
//	jotai.Set(store, counter, 5)
//	v, _ := jotai.Get(store, doubled) // 10
//
// # Subscriptions
//
// Subscribe registers a callback that fires after any write batch that
// invalidates the atom, at most once per batch:
//
//	stop := store.Subscribe(doubled, func() {
//	    v, _ := jotai.Get(store, doubled)
//	    fmt.Println("doubled is now", v)
//	})
//	defer stop()
//
// # Batching
//
// Multiple writes can be grouped so subscribers are notified once:
//
//	store.Batch(func() {
//	    jotai.Set(store, first, "a")
//	    jotai.Set(store, last, "b")
//	})
//
// # Asynchronous Atoms
//
// NewAsync builds atoms whose value settles on a background goroutine.
// Reading one that has not settled yet returns ErrPending; Wait blocks
// until the value is available:
//
//	user := jotai.NewAsync(func(g jotai.Getter) (jotai.ResolveFunc[User], error) {
//	    id, err := jotai.Get(g, userID)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return func(ctx context.Context) (User, error) {
//	        return fetchUser(ctx, id)
//	    }, nil
//	})
//
//	u, err := jotai.Wait(ctx, store, user)
//
// # Thread Safety
//
// A Store is safe for concurrent use by multiple goroutines. Reads and
// writes are serialized by the store; subscriber callbacks and observer
// hooks run outside the store lock. Computations must perform their
// reads through the Getter they are handed, never by calling back into
// the Store directly.
package jotai
