package cache

import "sync"

// Snapshot is a rendered translation map for one project and language,
// grouped by namespace.
type Snapshot map[string]map[string]string

// Cache is the contract used by the state machine and the sync surface.
// Implementations are constructed explicitly and injected; process lifetime
// equals the owning daemon's lifetime. A multi-instance deployment swaps in
// a shared external backend behind the same interface.
type Cache interface {
	Get(projectID, languageID int64) (Snapshot, bool)
	Set(projectID, languageID int64, snapshot Snapshot)
	Invalidate(projectID, languageID int64)
	InvalidateProject(projectID int64)
}

type cacheKey struct {
	projectID  int64
	languageID int64
}

// Memory is an in-process Cache implementation.
type Memory struct {
	mu      sync.RWMutex
	entries map[cacheKey]Snapshot
}

// NewMemory constructs an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[cacheKey]Snapshot)}
}

func (m *Memory) Get(projectID, languageID int64) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot, ok := m.entries[cacheKey{projectID, languageID}]
	return snapshot, ok
}

func (m *Memory) Set(projectID, languageID int64, snapshot Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey{projectID, languageID}] = snapshot
}

func (m *Memory) Invalidate(projectID, languageID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, cacheKey{projectID, languageID})
}

func (m *Memory) InvalidateProject(projectID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if key.projectID == projectID {
			delete(m.entries, key)
		}
	}
}
