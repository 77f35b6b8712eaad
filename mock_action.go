package main

import (
	"context"
	"sync"
)

// MockAction implements ExternalAction for testing, recording every
// invocation. Err injects a failure.
type MockAction struct {
	mu    sync.Mutex
	calls []MockCall

	Err error
}

// MockCall records one Update invocation.
type MockCall struct {
	Handle  ResourceHandle
	Desired int32
}

// NewMockAction creates a recording external action.
func NewMockAction() *MockAction {
	return &MockAction{}
}

func (m *MockAction) Update(ctx context.Context, handle ResourceHandle, desired int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Handle: handle, Desired: desired})
	if m.Err != nil {
		return m.Err
	}
	return nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockAction) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
