package mocks

import (
	"context"
	"sync"
)

// MockSlot is an in-memory store.Slot that records calls and can inject errors.
type MockSlot struct {
	mu      sync.Mutex
	records map[string][]byte

	SaveCalls   []SaveCall
	DeleteCalls []string
	LoadErr     error
	SaveErr     error
	DeleteErr   error
}

// SaveCall records parameters passed to Save
type SaveCall struct {
	Key  string
	Data []byte
}

func NewMockSlot() *MockSlot {
	return &MockSlot{
		records:   make(map[string][]byte),
		SaveCalls: make([]SaveCall, 0),
	}
}

func (m *MockSlot) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, false, m.LoadErr
	}
	data, ok := m.records[key]
	return data, ok, nil
}

func (m *MockSlot) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := append([]byte(nil), data...)
	m.SaveCalls = append(m.SaveCalls, SaveCall{Key: key, Data: stored})
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.records[key] = stored
	return nil
}

func (m *MockSlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, key)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.records, key)
	return nil
}

// Set seeds a record directly for testing.
func (m *MockSlot) Set(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = data
}

// Get returns the raw record for assertions.
func (m *MockSlot) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[key]
	return data, ok
}

// LastSave returns the most recent Save call, if any.
func (m *MockSlot) LastSave() (SaveCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SaveCalls) == 0 {
		return SaveCall{}, false
	}
	return m.SaveCalls[len(m.SaveCalls)-1], true
}
