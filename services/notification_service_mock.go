package services

import (
	"errors"
	"sync"
)

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	mu       sync.RWMutex
	sent     []Notification
	failNext bool
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the notification instead of delivering it
func (m *MockNotifier) Send(recipient, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("mock delivery failure")
	}
	m.sent = append(m.sent, Notification{Recipient: recipient, Message: message})
	return nil
}

// FailNext makes the next Send call return an error
func (m *MockNotifier) FailNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

// Sent returns a copy of every recorded notification (for testing assertions)
func (m *MockNotifier) Sent() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the messages recorded for one recipient
func (m *MockNotifier) SentTo(recipient string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, n := range m.sent {
		if n.Recipient == recipient {
			out = append(out, n.Message)
		}
	}
	return out
}

// Clear removes all recorded notifications
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
