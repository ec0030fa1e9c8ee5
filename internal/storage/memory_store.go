package storage

import (
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Values are lost on exit.
type MemoryStore struct {
	mu        sync.RWMutex
	values    map[string]string
	records   map[string]time.Time
	recordTTL time.Duration
	now       func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	opts = normalizeOptions(opts)
	return &MemoryStore{
		values:    make(map[string]string),
		records:   make(map[string]time.Time),
		recordTTL: opts.RecordTTL,
		now:       time.Now,
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SeenRecord(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.records[id]
	if !ok {
		return false, nil
	}
	if !expiry.After(m.now()) {
		delete(m.records, id)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) MarkRecord(id string) error {
	m.mu.Lock()
	m.records[id] = m.now().Add(m.recordTTL)
	m.mu.Unlock()
	return nil
}
