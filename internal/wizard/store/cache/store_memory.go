package cache

import (
	"context"
	"encoding/json"
	"sync"

	"onboard/internal/wizard/models"
	"onboard/pkg/platform/sentinel"
)

// MemoryStore is the in-process snapshot cache used in tests and when Redis
// is not configured. It stores serialized snapshots like the Redis store
// does, so malformed-entry handling is exercised the same way.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, employeeID string, stepID models.StepID) (*models.FormSnapshot, error) {
	s.mu.RLock()
	raw, ok := s.entries[snapshotKey(employeeID, stepID)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	var snapshot models.FormSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, sentinel.ErrMalformed
	}
	return &snapshot, nil
}

func (s *MemoryStore) Put(_ context.Context, snapshot models.FormSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[snapshotKey(snapshot.EmployeeID, snapshot.StepID)] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, employeeID string, stepID models.StepID) error {
	s.mu.Lock()
	delete(s.entries, snapshotKey(employeeID, stepID))
	s.mu.Unlock()
	return nil
}

// PutRaw stores an arbitrary value under a snapshot key. Tests use it to
// simulate a corrupted cache entry.
func (s *MemoryStore) PutRaw(employeeID string, stepID models.StepID, raw []byte) {
	s.mu.Lock()
	s.entries[snapshotKey(employeeID, stepID)] = raw
	s.mu.Unlock()
}
