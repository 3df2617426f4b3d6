package service

import "sync"

// modelLocks maps model ids to their exclusivity tokens. Locks are created
// lazily on first access and removed only alongside model deletion, while the
// holder still owns the lock. Operations touch at most one model, so no lock
// ordering exists and deadlock is structurally impossible.
type modelLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newModelLocks() *modelLocks {
	return &modelLocks{
		mu:    sync.Mutex{},
		locks: make(map[string]*sync.Mutex),
	}
}

// acquire returns the exclusivity token for a model id, creating it if the
// id has never been locked before.
func (m *modelLocks) acquire(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}

	return lock
}

// remove drops the lock entry for a deleted model. The caller must hold the
// model's lock; a waiter that acquires the stale mutex afterwards re-resolves
// the model and observes NotFound.
func (m *modelLocks) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locks, id)
}
