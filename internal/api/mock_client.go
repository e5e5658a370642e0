package api

import (
	"context"
	"sync"

	"github.com/diogo/riskchat/internal/models"
)

// MockTransport is a scripted Transport for testing
type MockTransport struct {
	// Mock return values
	Reply string
	Err   error

	// CompleteFunc overrides Reply/Err when set
	CompleteFunc func(ctx context.Context, history []models.Message) (string, error)

	mu      sync.Mutex
	calls   int
	history [][]models.Message
}

// Complete records the history and returns the scripted reply
func (m *MockTransport) Complete(ctx context.Context, history []models.Message) (string, error) {
	snapshot := make([]models.Message, len(history))
	copy(snapshot, history)

	m.mu.Lock()
	m.calls++
	m.history = append(m.history, snapshot)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, history)
	}
	return m.Reply, m.Err
}

// Calls returns how many times Complete was called
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastHistory returns the history passed to the most recent call
func (m *MockTransport) LastHistory() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil
	}
	return m.history[len(m.history)-1]
}
