package address

import (
	"context"
)

// MockValidator is a test implementation of Validator.
type MockValidator struct {
	ValidateFunc func(ctx context.Context, addr Address) (*ValidationResult, error)
	Calls        []Address
}

// NewMockValidator creates a mock validator that accepts every address.
func NewMockValidator() *MockValidator {
	return &MockValidator{}
}

// Validate delegates to ValidateFunc or reports the address as valid.
func (m *MockValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	m.Calls = append(m.Calls, addr)
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, addr)
	}
	normalized := addr
	return &ValidationResult{IsValid: true, NormalizedAddress: &normalized}, nil
}
