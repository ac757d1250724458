package store

import (
	"context"
	"sync"
)

// MemorySlot keeps records in process memory. Records do not survive a restart.
type MemorySlot struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{records: make(map[string][]byte)}
}

func (s *MemorySlot) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (s *MemorySlot) Save(_ context.Context, key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.records[key] = stored
	s.mu.Unlock()
	return nil
}

func (s *MemorySlot) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}
