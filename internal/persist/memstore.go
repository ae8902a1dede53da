package persist

import (
	"sync"
	"time"
)

// MemStore is an in-memory Client for tests and dry runs.
type MemStore struct {
	mu       sync.Mutex
	steps    map[string]map[string]any
	progress *Progress
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{steps: map[string]map[string]any{}}
}

func (s *MemStore) SaveStepData(step string, data map[string]any) error {
	key, err := stepKey(step)
	if err != nil {
		return err
	}
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	s.mu.Lock()
	s.steps[key] = copied
	s.mu.Unlock()
	return nil
}

func (s *MemStore) LoadStepData(step string) (map[string]any, bool, error) {
	key, err := stepKey(step)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.steps[key]
	if !ok {
		return nil, false, nil
	}
	copied := make(map[string]any, len(stored))
	for k, v := range stored {
		copied[k] = v
	}
	return copied, true, nil
}

func (s *MemStore) SaveProgress(p Progress) error {
	p.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	s.progress = &p
	s.mu.Unlock()
	return nil
}

func (s *MemStore) LoadProgress() (Progress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return Progress{}, false, nil
	}
	return *s.progress, true, nil
}
