package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const fileExt = ".json"

// File stores one file per key under a root directory. Keys are
// path-escaped into file names, so any key is a valid file. Watching
// uses fsnotify, which also picks up writes from other processes.
type File struct {
	root string

	mu     sync.Mutex
	closed bool
}

// NewFile creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating root dir: %w", err)
	}
	return &File{root: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.root, url.PathEscape(key)+fileExt)
}

// Load retrieves the value for key.
func (f *File) Load(ctx context.Context, key string) ([]byte, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: reading %s: %w", key, err)
	}
	return data, nil
}

// Save persists data under key. The write goes through a temp file and
// rename, so watchers and concurrent readers never see partial writes.
func (f *File) Save(ctx context.Context, key string, data []byte) error {
	if err := f.check(); err != nil {
		return err
	}
	dest := f.path(key)
	tmp, err := os.CreateTemp(f.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: writing %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: writing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (f *File) Delete(ctx context.Context, key string) error {
	if err := f.check(); err != nil {
		return err
	}
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: deleting %s: %w", key, err)
	}
	return nil
}

// Keys lists all stored keys.
func (f *File) Keys(ctx context.Context) ([]string, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: listing keys: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Watch delivers change events for key until ctx is canceled. Events
// originate from the filesystem, so writes by other processes are seen
// too.
func (f *File) Watch(ctx context.Context, key string) (<-chan Event, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage: watching %s: %w", key, err)
	}
	// Watch the directory, not the file: renames replace the inode.
	if err := fw.Add(f.root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("storage: watching %s: %w", key, err)
	}

	target := f.path(key)
	out := make(chan Event, 8)
	go func() {
		defer close(out)
		defer fw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				var op Op
				switch {
				case ev.Has(fsnotify.Remove):
					op = OpDelete
				case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename):
					op = OpSave
				default:
					continue
				}
				select {
				case out <- Event{Key: key, Op: op}:
				default:
				}
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

// Close marks the store closed. The files stay on disk.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *File) check() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	return nil
}

var (
	_ Storage = (*File)(nil)
	_ Watcher = (*File)(nil)
)
