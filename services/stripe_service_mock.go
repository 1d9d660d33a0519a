package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stripe/stripe-go/v82"
)

// MockPaymentProcessor is a mock implementation of PaymentProcessor for testing
type MockPaymentProcessor struct {
	mu            sync.Mutex
	counter       int
	createdCents  map[string]int64 // intent id -> amount
	failCreate    error
	rejectWebhook bool
}

// NewMockPaymentProcessor creates a new mock payment processor
func NewMockPaymentProcessor() *MockPaymentProcessor {
	return &MockPaymentProcessor{createdCents: make(map[string]int64)}
}

// SetAsMockForTesting sets this mock as the global processor instance for testing
func (m *MockPaymentProcessor) SetAsMockForTesting() {
	SetPaymentProcessor(m)
}

// FailCreateWith makes subsequent CreateIntent calls return err
func (m *MockPaymentProcessor) FailCreateWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreate = err
}

// RejectWebhooks makes VerifyWebhook fail as if the signature were invalid
func (m *MockPaymentProcessor) RejectWebhooks(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectWebhook = reject
}

// CreateIntent simulates creating a payment intent
func (m *MockPaymentProcessor) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return "", "", m.failCreate
	}
	m.counter++
	intentID := fmt.Sprintf("pi_mock_%d", m.counter)
	m.createdCents[intentID] = amountCents
	return intentID, intentID + "_secret", nil
}

// VerifyWebhook parses the payload as a Stripe event without real signature
// verification, unless RejectWebhooks was set
func (m *MockPaymentProcessor) VerifyWebhook(payload []byte, signature string) (*stripe.Event, error) {
	m.mu.Lock()
	reject := m.rejectWebhook
	m.mu.Unlock()
	if reject {
		return nil, ErrInvalidSignature
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidSignature
	}
	return &event, nil
}

// CreatedIntents returns the amount recorded for each created intent
func (m *MockPaymentProcessor) CreatedIntents() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.createdCents))
	for k, v := range m.createdCents {
		out[k] = v
	}
	return out
}
