package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/promptforge/promptforge/internal/workflow"
)

// MemoryStore is a process-local Store for tests and single-node runs.
// States are stored as serialized snapshots so callers cannot mutate a
// checkpoint after saving it.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*workflow.State, error) {
	s.mu.RLock()
	raw, ok := s.threads[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state workflow.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode thread %s state: %w", threadID, err)
	}
	return &state, nil
}

func (s *MemoryStore) Save(_ context.Context, threadID string, state *workflow.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode thread %s state: %w", threadID, err)
	}

	s.mu.Lock()
	s.threads[threadID] = raw
	s.mu.Unlock()
	return nil
}
