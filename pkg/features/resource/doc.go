// Package resource provides async data loading over atoms.
//
// A Resource wraps a caller-supplied fetch function in an asynchronous
// atom plus a refresh trigger. It handles the complete lifecycle of
// asynchronous data fetching:
//
//   - Pending, Loading, Error, and Ready states
//   - Lazy fetching: the first read starts the fetch
//   - Caching, stale-time management, and forced refetch
//   - Retry with a configurable delay
//   - Discarding superseded fetches (last write wins by generation)
//
// Basic usage:
//
//	user := resource.New(store, func(ctx context.Context) (*User, error) {
//	    return db.Users.Find(ctx, id)
//	}, resource.WithRetry(2, time.Second))
//
//	u, err := user.Wait(ctx)
package resource
