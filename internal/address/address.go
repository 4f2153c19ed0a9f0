package address

import (
	"context"
	"strings"
)

// Validator defines the interface for address validation.
// Implementations may call out to a postcode lookup service; the storefront
// ships with BasicValidator, which checks required fields only.
type Validator interface {
	// Validate checks that an address is complete enough to submit.
	// NormalizedAddress is populated even when IsValid is false.
	Validate(ctx context.Context, addr Address) (*ValidationResult, error)
}

// Address is a shipping or billing address as entered at checkout.
type Address struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1" validate:"required"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country" validate:"required"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// FullName joins first and last name.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// IsZero reports whether no field has been filled in.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *Address
	Errors            []ValidationError
	Warnings          []string
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}
