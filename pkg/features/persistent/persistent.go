// Package persistent provides storage-backed atoms: the value is
// loaded from a storage backend on first read and saved back on every
// write, serialized as JSON. With a watching backend, external changes
// to the key flow back into stores as invalidations.
package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leobastiani/jotai/pkg/jotai"
	"github.com/leobastiani/jotai/pkg/storage"
)

// storageTimeout bounds each load or save issued by atom reads and
// writes, which have no caller context of their own.
const storageTimeout = 5 * time.Second

// PersistentAtom is a writable atom whose value lives in a storage
// backend under a fixed key. Reads hit the backend only when the store
// has no fresh entry (first read, or after an invalidation); writes go
// to the backend first and to the store after.
type PersistentAtom[T any] struct {
	*jotai.WritableAtom[T, T]
	key     string
	initial T
	backend storage.Storage
}

// Option configures a persistent atom.
type Option func(*config)

type config struct {
	atomOpts []jotai.AtomOption
}

// WithAtomOptions forwards options to the underlying atom, such as
// jotai.WithLabel.
func WithAtomOptions(opts ...jotai.AtomOption) Option {
	return func(c *config) {
		c.atomOpts = append(c.atomOpts, opts...)
	}
}

// NewAtom creates a storage-backed atom. A missing key reads as
// initial; the first write creates it.
func NewAtom[T any](key string, initial T, backend storage.Storage, opts ...Option) *PersistentAtom[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &PersistentAtom[T]{key: key, initial: initial, backend: backend}
	var self *jotai.WritableAtom[T, T]
	self = jotai.NewWritable(
		func(g jotai.Getter) (T, error) {
			return p.load()
		},
		func(s jotai.Setter, v T) error {
			if err := p.save(v); err != nil {
				return err
			}
			return jotai.SetValue(s, self, v)
		},
		cfg.atomOpts...,
	)
	p.WritableAtom = self
	return p
}

// Key returns the storage key the atom persists under.
func (p *PersistentAtom[T]) Key() string { return p.key }

// Delete removes the persisted value. Stores that already read it keep
// their cached copy until invalidated.
func (p *PersistentAtom[T]) Delete(ctx context.Context) error {
	return p.backend.Delete(ctx, p.key)
}

// Watch wires backend change events for the atom's key into store as
// invalidations, so external writes are picked up on the next read.
// The backend must implement storage.Watcher. Watching stops when ctx
// is canceled.
func (p *PersistentAtom[T]) Watch(ctx context.Context, store *jotai.Store) error {
	w, ok := p.backend.(storage.Watcher)
	if !ok {
		return fmt.Errorf("persistent: backend %T cannot watch", p.backend)
	}
	events, err := w.Watch(ctx, p.key)
	if err != nil {
		return err
	}
	go func() {
		for range events {
			store.Invalidate(p)
		}
	}()
	return nil
}

func (p *PersistentAtom[T]) load() (T, error) {
	var v T
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	data, err := p.backend.Load(ctx, p.key)
	if errors.Is(err, storage.ErrNotFound) {
		return p.initial, nil
	}
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("persistent: decoding %s: %w", p.key, err)
	}
	return v, nil
}

func (p *PersistentAtom[T]) save(v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("persistent: encoding %s: %w", p.key, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	return p.backend.Save(ctx, p.key, data)
}
