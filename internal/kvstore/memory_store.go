package kvstore

import (
	"sort"
	"sync"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

// MemoryStore is a non-persistent KeyValueStorage backed by in-process
// maps, used in tests and as the storage node's fallback when no durable
// backend is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	vectors   map[string]map[int64]vectortypes.VectorEntry
	databases map[string]vectortypes.DatabaseInfo
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vectors:   make(map[string]map[int64]vectortypes.VectorEntry),
		databases: make(map[string]vectortypes.DatabaseInfo),
	}
}

// PutVector implements KeyValueStorage.
func (m *MemoryStore) PutVector(databaseID string, entry vectortypes.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.vectors[databaseID]
	if !ok {
		bucket = make(map[int64]vectortypes.VectorEntry)
		m.vectors[databaseID] = bucket
	}
	bucket[entry.ID] = entry
	return nil
}

// GetVector implements KeyValueStorage.
func (m *MemoryStore) GetVector(databaseID string, id int64) (vectortypes.VectorEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.vectors[databaseID]
	if !ok {
		return vectortypes.VectorEntry{}, false, nil
	}
	entry, ok := bucket[id]
	return entry, ok, nil
}

// DeleteVector implements KeyValueStorage.
func (m *MemoryStore) DeleteVector(databaseID string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.vectors[databaseID]
	if !ok {
		return false, nil
	}
	if _, ok := bucket[id]; !ok {
		return false, nil
	}
	delete(bucket, id)
	return true, nil
}

// GetAllVectors implements KeyValueStorage.
func (m *MemoryStore) GetAllVectors(databaseID string) ([]vectortypes.VectorEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket := m.vectors[databaseID]
	out := make([]vectortypes.VectorEntry, 0, len(bucket))
	for _, e := range bucket {
		out = append(out, e)
	}
	return out, nil
}

// ScanRange implements KeyValueStorage. Range is (fromID, toID], ordered by
// id ascending, capped at limit.
func (m *MemoryStore) ScanRange(databaseID string, fromID, toID int64, limit int) ([]vectortypes.VectorEntry, error) {
	m.mu.RLock()
	bucket := m.vectors[databaseID]
	matches := make([]vectortypes.VectorEntry, 0, len(bucket))
	for _, e := range bucket {
		if e.ID > fromID && e.ID <= toID {
			matches = append(matches, e)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// PutDatabaseInfo implements KeyValueStorage.
func (m *MemoryStore) PutDatabaseInfo(info vectortypes.DatabaseInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.databases[info.ID] = info
	return nil
}

// GetDatabaseInfo implements KeyValueStorage.
func (m *MemoryStore) GetDatabaseInfo(id string) (vectortypes.DatabaseInfo, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.databases[id]
	return info, ok, nil
}

// DeleteDatabaseInfo implements KeyValueStorage.
func (m *MemoryStore) DeleteDatabaseInfo(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.databases[id]; !ok {
		return false, nil
	}
	delete(m.databases, id)
	delete(m.vectors, id)
	return true, nil
}

// GetAllDatabases implements KeyValueStorage.
func (m *MemoryStore) GetAllDatabases() ([]vectortypes.DatabaseInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vectortypes.DatabaseInfo, 0, len(m.databases))
	for _, info := range m.databases {
		out = append(out, info)
	}
	return out, nil
}

// Close implements KeyValueStorage; MemoryStore holds no resources.
func (m *MemoryStore) Close() error { return nil }
