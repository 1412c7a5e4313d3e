package store

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// MemoryKV is a process-local KVStore. It backs single-instance
// deployments and tests.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
	sets   map[string][]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values: make(map[string][]byte),
		sets:   make(map[string][]string),
	}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = slices.Clone(value)
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.sets, key)
	return nil
}

func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	if !ok {
		_, ok = m.sets[key]
	}
	return ok, nil
}

func (m *MemoryKV) AddToSet(ctx context.Context, setKey string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.sets[setKey]
	for _, member := range members {
		if !slices.Contains(set, member) {
			set = append(set, member)
		}
	}
	m.sets[setKey] = set
	return nil
}

func (m *MemoryKV) ListSet(ctx context.Context, setKey string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.sets[setKey]), nil
}

func (m *MemoryKV) RemoveFromSet(ctx context.Context, setKey string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := slices.DeleteFunc(m.sets[setKey], func(s string) bool {
		return slices.Contains(members, s)
	})
	if len(set) == 0 {
		delete(m.sets, setKey)
		return nil
	}
	m.sets[setKey] = set
	return nil
}

func (m *MemoryKV) Ping(ctx context.Context) error {
	return nil
}
