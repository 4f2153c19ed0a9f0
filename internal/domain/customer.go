package domain

import (
	"context"
	"time"
)

// Identity-related domain errors.
var (
	ErrInvalidCredentials = &Error{Code: EUNAUTHORIZED, Message: "Invalid email or password"}
	ErrNotLoggedIn        = &Error{Code: EUNAUTHORIZED, Message: "Please log in to continue"}
)

// Customer is the identity returned by the commerce platform. The storefront
// only uses it to prefill the checkout contact email.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// AccessToken is a platform-issued customer session token.
type AccessToken struct {
	Token     string    `json:"accessToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Registration is the profile submitted when creating an account.
type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=5"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone,omitempty"`
}

// IdentityProvider authenticates customers against the commerce platform.
type IdentityProvider interface {
	Login(ctx context.Context, email, password string) (*AccessToken, error)
	Register(ctx context.Context, reg Registration) (*Customer, error)
	// Customer resolves a token to its customer; an expired token yields ErrNotLoggedIn.
	Customer(ctx context.Context, token string) (*Customer, error)
	Logout(ctx context.Context, token string) error
}
