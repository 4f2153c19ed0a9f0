package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/britishfloors/internal/domain"
)

// DefaultTokenTTL is how long a local access token stays valid.
const DefaultTokenTTL = 24 * time.Hour

type account struct {
	customer     domain.Customer
	passwordHash string
}

type session struct {
	email     string
	expiresAt time.Time
}

// LocalIdentity implements domain.IdentityProvider with in-memory accounts.
// It stands in for the platform customer API in development, seeded with
// demo accounts.
type LocalIdentity struct {
	cost int
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]session
}

// DemoAccount is a seeded development login.
type DemoAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// DemoAccounts are the logins available when no platform is configured.
func DemoAccounts() []DemoAccount {
	return []DemoAccount{
		{Email: "demo@example.com", Password: "password123", FirstName: "Demo", LastName: "User"},
		{Email: "admin@britishfloors.com", Password: "admin123", FirstName: "Admin", LastName: "User"},
	}
}

// NewLocalIdentity creates a provider hashing with the given bcrypt cost.
// A cost of zero uses the production cost.
func NewLocalIdentity(cost int, seed ...DemoAccount) (*LocalIdentity, error) {
	if cost == 0 {
		cost = bcryptCost
	}
	l := &LocalIdentity{
		cost:     cost,
		ttl:      DefaultTokenTTL,
		now:      time.Now,
		accounts: make(map[string]account),
		tokens:   make(map[string]session),
	}
	for _, d := range seed {
		_, err := l.Register(context.Background(), domain.Registration{
			Email:     d.Email,
			Password:  d.Password,
			FirstName: d.FirstName,
			LastName:  d.LastName,
		})
		if err != nil {
			return nil, err
		}
	}
	return l, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *LocalIdentity) Login(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	key := normalizeEmail(email)

	l.mu.Lock()
	acct, ok := l.accounts[key]
	l.mu.Unlock()
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if err := VerifyPassword(password, acct.passwordHash); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	tok := &domain.AccessToken{
		Token:     uuid.NewString(),
		ExpiresAt: l.now().Add(l.ttl),
	}
	l.mu.Lock()
	l.tokens[tok.Token] = session{email: key, expiresAt: tok.ExpiresAt}
	l.mu.Unlock()
	return tok, nil
}

func (l *LocalIdentity) Register(ctx context.Context, reg domain.Registration) (*domain.Customer, error) {
	const op = "auth.register"

	key := normalizeEmail(reg.Email)
	hash, err := hashPassword(reg.Password, l.cost)
	if err != nil {
		if err == ErrPasswordTooShort {
			return nil, domain.NewValidationError(op, "password", ErrPasswordTooShort.Error())
		}
		return nil, domain.Internal(err, op, "failed to create account")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[key]; exists {
		return nil, domain.NewValidationError(op, "email", "Email has already been taken")
	}
	c := domain.Customer{
		ID:        "local-" + uuid.NewString(),
		Email:     key,
		FirstName: strings.TrimSpace(reg.FirstName),
		LastName:  strings.TrimSpace(reg.LastName),
		Phone:     strings.TrimSpace(reg.Phone),
	}
	l.accounts[key] = account{customer: c, passwordHash: hash}
	return &c, nil
}

func (l *LocalIdentity) Customer(ctx context.Context, token string) (*domain.Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.tokens[token]
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}
	if l.now().After(s.expiresAt) {
		delete(l.tokens, token)
		return nil, domain.ErrNotLoggedIn
	}
	acct, ok := l.accounts[s.email]
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}
	c := acct.customer
	return &c, nil
}

func (l *LocalIdentity) Logout(ctx context.Context, token string) error {
	l.mu.Lock()
	delete(l.tokens, token)
	l.mu.Unlock()
	return nil
}

var _ domain.IdentityProvider = (*LocalIdentity)(nil)

// MinCost is the cheapest bcrypt cost, for tests.
const MinCost = bcrypt.MinCost
