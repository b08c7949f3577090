package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leobastiani/jotai/pkg/jotai"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestResourceLazyFetch(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	var fetches atomic.Int64
	r := New(store, func(ctx context.Context) (string, error) {
		fetches.Add(1)
		return "data", nil
	})

	if r.State() != Pending {
		t.Errorf("expected pending before first read, got %v", r.State())
	}
	if fetches.Load() != 0 {
		t.Error("expected no fetch before first read")
	}

	v, err := r.Wait(testCtx(t))
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if v != "data" {
		t.Errorf("expected data, got %q", v)
	}
	if r.State() != Ready {
		t.Errorf("expected ready, got %v", r.State())
	}

	// Cached afterwards
	if _, err := r.Value(); err != nil {
		t.Errorf("expected cached value, got %v", err)
	}
	if fetches.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", fetches.Load())
	}
}

func TestResourcePendingValue(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	release := make(chan struct{})
	r := New(store, func(ctx context.Context) (string, error) {
		<-release
		return "slow", nil
	})

	if _, err := r.Value(); !errors.Is(err, jotai.ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if r.State() != Loading {
		t.Errorf("expected loading, got %v", r.State())
	}
	if got := r.DataOr("fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}

	close(release)
	if v, err := r.Wait(testCtx(t)); err != nil || v != "slow" {
		t.Errorf("expected (slow, nil), got (%q, %v)", v, err)
	}
}

func TestResourceError(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	boom := errors.New("backend down")
	var sawErr error
	r := New(store, func(ctx context.Context) (int, error) {
		return 0, boom
	}).OnError(func(err error) { sawErr = err })

	_, err := r.Wait(testCtx(t))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if r.State() != Error {
		t.Errorf("expected error state, got %v", r.State())
	}
	if !errors.Is(sawErr, boom) {
		t.Errorf("expected OnError to see the failure, got %v", sawErr)
	}
}

func TestResourceRetry(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	var attempts atomic.Int64
	r := New(store, func(ctx context.Context) (string, error) {
		if attempts.Add(1) < 3 {
			return "", errors.New("transient")
		}
		return "finally", nil
	}, WithRetry(3, time.Millisecond))

	v, err := r.Wait(testCtx(t))
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if v != "finally" {
		t.Errorf("expected finally, got %q", v)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestResourceRefetch(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	var fetches atomic.Int64
	r := New(store, func(ctx context.Context) (int64, error) {
		return fetches.Add(1), nil
	})

	if v, _ := r.Wait(testCtx(t)); v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}

	if err := r.Refetch(); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if v, _ := r.Wait(testCtx(t)); v != 2 {
		t.Errorf("expected 2 after refetch, got %d", v)
	}
}

func TestResourceStaleTime(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	var fetches atomic.Int64
	r := New(store, func(ctx context.Context) (int64, error) {
		return fetches.Add(1), nil
	}, WithStaleTime(time.Hour))

	r.Wait(testCtx(t))

	// Within the stale window Refresh is a no-op
	if err := r.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if v, _ := r.Wait(testCtx(t)); v != 1 {
		t.Errorf("expected cached 1, got %d", v)
	}

	// Invalidate clears the window
	r.Invalidate()
	if err := r.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if v, _ := r.Wait(testCtx(t)); v != 2 {
		t.Errorf("expected refetched 2, got %d", v)
	}
}

func TestResourceOnSuccess(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	var mu sync.Mutex
	var got []string
	r := New(store, func(ctx context.Context) (string, error) {
		return "payload", nil
	}).OnSuccess(func(v string) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	r.Wait(testCtx(t))
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "payload" {
		t.Errorf("expected OnSuccess with payload, got %v", got)
	}
}

func TestResourceComposesWithDerivedAtoms(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	r := New(store, func(ctx context.Context) (int, error) {
		return 21, nil
	})
	doubled := jotai.NewDerived(func(g jotai.Getter) (int, error) {
		n, err := jotai.Get(g, r.Atom())
		return n * 2, err
	})

	v, err := jotai.Wait[int](testCtx(t), store, doubled)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}
