package storage

import (
	"sync"
	"time"
)

// memoryStore keeps published IDs in process memory; entries vanish on restart.
type memoryStore struct {
	mu     sync.Mutex
	expiry map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

func newMemoryStore(opts Options, now func() time.Time) *memoryStore {
	return &memoryStore{
		expiry: make(map[string]time.Time),
		ttl:    opts.ItemTTL,
		now:    now,
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) SeenItem(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expiry[id]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.expiry, id)
		return false, nil
	}
	return true, nil
}

func (m *memoryStore) MarkItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[id] = m.now().Add(m.ttl)
	return nil
}
