package main

import (
	"context"
	"sync"
)

// MockTriggerStore implements TriggerStore in memory for testing. LoadErr,
// SaveErr and ForgetErr inject failures.
type MockTriggerStore struct {
	mu      sync.RWMutex
	records map[string]int32

	LoadErr   error
	SaveErr   error
	ForgetErr error
}

// NewMockTriggerStore creates an empty in-memory trigger store.
func NewMockTriggerStore() *MockTriggerStore {
	return &MockTriggerStore{
		records: make(map[string]int32),
	}
}

// SetRecord seeds a recorded value, bypassing error injection.
func (m *MockTriggerStore) SetRecord(handle ResourceHandle, value int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[handle.Key()] = value
}

func (m *MockTriggerStore) Load(ctx context.Context, handle ResourceHandle) (int32, bool, error) {
	if m.LoadErr != nil {
		return 0, false, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[handle.Key()]
	return value, ok, nil
}

func (m *MockTriggerStore) Save(ctx context.Context, handle ResourceHandle, value int32) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[handle.Key()] = value
	return nil
}

func (m *MockTriggerStore) Forget(ctx context.Context, handle ResourceHandle) error {
	if m.ForgetErr != nil {
		return m.ForgetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, handle.Key())
	return nil
}
