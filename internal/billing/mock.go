package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockProvider is a mock checkout provider for testing.
// Simulates successful session creation without calling any platform.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params SessionParams) (*Session, error)

	// Sessions stores created sessions for retrieval
	Sessions map[string]*Session

	// LastParams is the most recent request
	LastParams *SessionParams

	// CallLog tracks method calls for test assertions
	CallLog []string

	mu sync.Mutex
}

// NewMockProvider creates a new mock checkout provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*Session),
		CallLog:  []string{},
	}
}

func (m *MockProvider) Name() string { return "test" }

// CreateCheckoutSession records the call and returns a hosted-checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%d lines, %s)", len(params.Lines), params.Total))
	p := params
	m.LastParams = &p
	fn := m.CreateCheckoutSessionFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}

	s := &Session{
		ID:    "cs_" + uuid.New().String(),
		Total: params.Total,
	}
	s.URL = "https://checkout.example.com/" + s.ID

	m.mu.Lock()
	m.Sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Calls returns the number of CreateCheckoutSession invocations.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CallLog)
}
