package persistent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/leobastiani/jotai/pkg/jotai"
	"github.com/leobastiani/jotai/pkg/storage"
)

type settings struct {
	Theme    string `json:"theme"`
	FontSize int    `json:"font_size"`
}

func TestPersistentInitialOnMissingKey(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()
	backend := storage.NewMemory()
	defer backend.Close()

	prefs := NewAtom("prefs", settings{Theme: "light", FontSize: 12}, backend)

	v, err := jotai.Get[settings](store, prefs)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Theme != "light" || v.FontSize != 12 {
		t.Errorf("expected initial settings, got %+v", v)
	}
}

func TestPersistentWriteSavesJSON(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()
	backend := storage.NewMemory()
	defer backend.Close()

	prefs := NewAtom("prefs", settings{Theme: "light"}, backend)

	want := settings{Theme: "dark", FontSize: 14}
	if err := jotai.Set[settings](store, prefs, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	data, err := backend.Load(context.Background(), "prefs")
	if err != nil {
		t.Fatalf("load from backend: %v", err)
	}
	var persisted settings
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if persisted != want {
		t.Errorf("expected %+v persisted, got %+v", want, persisted)
	}

	if v, _ := jotai.Get[settings](store, prefs); v != want {
		t.Errorf("expected %+v from store, got %+v", want, v)
	}
}

func TestPersistentLoadsExistingValue(t *testing.T) {
	backend := storage.NewMemory()
	defer backend.Close()
	backend.Save(context.Background(), "prefs", []byte(`{"theme":"solarized","font_size":16}`))

	store := jotai.NewStore()
	defer store.Close()
	prefs := NewAtom("prefs", settings{Theme: "light"}, backend)

	v, err := jotai.Get[settings](store, prefs)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Theme != "solarized" || v.FontSize != 16 {
		t.Errorf("expected persisted settings, got %+v", v)
	}
}

func TestPersistentSharedAcrossStores(t *testing.T) {
	backend := storage.NewMemory()
	defer backend.Close()
	prefs := NewAtom("prefs", settings{}, backend)

	s1 := jotai.NewStore()
	defer s1.Close()
	s2 := jotai.NewStore()
	defer s2.Close()

	jotai.Set[settings](s1, prefs, settings{Theme: "dark"})

	// The second store reads through the shared backend
	if v, _ := jotai.Get[settings](s2, prefs); v.Theme != "dark" {
		t.Errorf("expected dark from second store, got %+v", v)
	}
}

func TestPersistentWatch(t *testing.T) {
	backend := storage.NewMemory()
	defer backend.Close()
	store := jotai.NewStore()
	defer store.Close()

	prefs := NewAtom("prefs", settings{Theme: "light"}, backend)
	if v, _ := jotai.Get[settings](store, prefs); v.Theme != "light" {
		t.Fatalf("unexpected initial %+v", v)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := prefs.Watch(ctx, store); err != nil {
		t.Fatalf("watch: %v", err)
	}

	// An external write invalidates the cached entry
	backend.Save(context.Background(), "prefs", []byte(`{"theme":"dark"}`))

	deadline := time.Now().Add(2 * time.Second)
	for {
		v, err := jotai.Get[settings](store, prefs)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if v.Theme == "dark" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("external write never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPersistentWatchUnsupportedBackend(t *testing.T) {
	store := jotai.NewStore()
	defer store.Close()

	db := storage.NewMemory()
	defer db.Close()
	// SQL-shaped backends have no watcher; wrap Memory to hide it.
	var plain storage.Storage = struct{ storage.Storage }{db}

	prefs := NewAtom("prefs", settings{}, plain)
	if err := prefs.Watch(context.Background(), store); err == nil {
		t.Error("expected error for non-watching backend")
	}
}
