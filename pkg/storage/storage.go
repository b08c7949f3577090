// Package storage provides the persistence backends that
// storage-backed atoms load from and save to. All backends speak the
// same byte-oriented Storage interface; serialization is the caller's
// concern (the persistent package uses JSON).
package storage

import (
	"context"
	"errors"
)

// Storage is a keyed byte store. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Load retrieves the value for key. Returns ErrNotFound if the key
	// does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save persists data under key, overwriting any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all stored keys. Order is unspecified.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// ErrNotFound is returned by Load for missing keys.
var ErrNotFound = errors.New("storage: key not found")

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage: store is closed")

// Op classifies a change observed by a Watcher.
type Op uint8

const (
	// OpSave means the key was written.
	OpSave Op = iota
	// OpDelete means the key was removed.
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpSave:
		return "save"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event describes one observed change to a watched key.
type Event struct {
	Key string
	Op  Op
}

// Watcher is implemented by backends that can report external changes
// to their keys, letting storage-backed atoms invalidate when another
// process writes.
type Watcher interface {
	// Watch delivers change events for key until ctx is canceled. The
	// channel is closed when watching stops. Slow consumers may miss
	// events; watchers coalesce rather than block the backend.
	Watch(ctx context.Context, key string) (<-chan Event, error)
}
