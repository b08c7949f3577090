package storage

import (
	"context"
	"sync"
)

// Memory is an in-memory storage backend. It is the default for tests
// and single-process setups, and it supports watching.
type Memory struct {
	mu       sync.RWMutex
	values   map[string][]byte
	watchers map[string][]*memoryWatcher
	closed   bool
}

type memoryWatcher struct {
	key string
	ch  chan Event
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		watchers: make(map[string][]*memoryWatcher),
	}
}

// Load retrieves the value for key.
func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	data, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save persists data under key and notifies watchers.
func (m *Memory) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.values[key] = stored
	m.notifyLocked(Event{Key: key, Op: OpSave})
	return nil
}

// Delete removes key and notifies watchers.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.values[key]; !ok {
		return nil
	}
	delete(m.values, key)
	m.notifyLocked(Event{Key: key, Op: OpDelete})
	return nil
}

// Keys lists all stored keys.
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys, nil
}

// Watch delivers change events for key until ctx is canceled.
func (m *Memory) Watch(ctx context.Context, key string) (<-chan Event, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	w := &memoryWatcher{key: key, ch: make(chan Event, 8)}
	m.watchers[key] = append(m.watchers[key], w)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		m.dropWatcherLocked(w)
		m.mu.Unlock()
		close(w.ch)
	}()
	return w.ch, nil
}

// notifyLocked fans an event out to the key's watchers. Sends never
// block; a watcher whose buffer is full misses the event.
func (m *Memory) notifyLocked(ev Event) {
	for _, w := range m.watchers[ev.Key] {
		select {
		case w.ch <- ev:
		default:
		}
	}
}

func (m *Memory) dropWatcherLocked(w *memoryWatcher) {
	ws := m.watchers[w.key]
	for i, cand := range ws {
		if cand == w {
			m.watchers[w.key] = append(ws[:i], ws[i+1:]...)
			return
		}
	}
}

// Close releases the backend. Watch channels for live watchers stay
// open until their contexts are canceled but receive no more events.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	clear(m.values)
	return nil
}

var (
	_ Storage = (*Memory)(nil)
	_ Watcher = (*Memory)(nil)
)
