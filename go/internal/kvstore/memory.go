package kvstore

import (
	"context"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Memory is an in-process store. It backs tests and the "memory" storage driver.
type Memory struct {
	mu    sync.RWMutex
	data  map[string][]byte
	hub   *hub
	clock clockwork.Clock
}

// NewMemory creates an empty in-memory store
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		data:  make(map[string][]byte),
		hub:   newHub(),
		clock: o.clock,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = cloneBytes(value)
	m.mu.Unlock()

	m.hub.publish(Change{Key: key, Origin: OriginLocal, At: m.clock.Now()})
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if existed {
		m.hub.publish(Change{Key: key, Origin: OriginLocal, At: m.clock.Now()})
	}
	return nil
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Subscribe(fn func(Change)) func() {
	return m.hub.Subscribe(fn)
}

// InjectExternal applies a write as if another process made it. Used to exercise change listeners.
func (m *Memory) InjectExternal(key string, value []byte) {
	m.mu.Lock()
	if value == nil {
		delete(m.data, key)
	} else {
		m.data[key] = cloneBytes(value)
	}
	m.mu.Unlock()

	m.hub.publish(Change{Key: key, Origin: OriginExternal, At: m.clock.Now()})
}

func (m *Memory) Close() error {
	return nil
}
