package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/britishfloors/internal/auth"
	"github.com/dukerupert/britishfloors/internal/domain"
)

func newAccountService(t *testing.T) *AccountService {
	t.Helper()
	identity, err := auth.NewLocalIdentity(auth.MinCost, auth.DemoAccounts()...)
	require.NoError(t, err)
	return NewAccountService(identity, newTestRegistry(nil), zerolog.Nop())
}

func TestAccountService_LoginLogout(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	_, err := svc.Me(ctx, testSession)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)

	customer, err := svc.Login(ctx, testSession, "demo@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Demo", customer.FirstName)

	token, err := svc.CustomerToken(ctx, testSession)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	me, err := svc.Me(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", me.Email)

	require.NoError(t, svc.Logout(ctx, testSession))
	_, err = svc.Me(ctx, testSession)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)

	// Logging out twice is fine.
	assert.NoError(t, svc.Logout(ctx, testSession))
}

func TestAccountService_LoginRejected(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	_, err := svc.Login(ctx, testSession, "demo@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, testSession, "", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	token, err := svc.CustomerToken(ctx, testSession)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAccountService_Register(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	customer, err := svc.Register(ctx, testSession, domain.Registration{
		Email:     "jane@example.com",
		Password:  "hunter22",
		FirstName: "Jane",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", customer.Email)

	me, err := svc.Me(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, "Jane", me.FirstName)
}

func TestAccountService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	_, err := svc.Register(ctx, testSession, domain.Registration{Email: "bad", Password: "abc"})
	require.True(t, domain.IsValidationError(err))
	fields := domain.GetValidationFields(err)
	assert.Equal(t, "Enter a valid email address", fields["email"])
	assert.Equal(t, "Must be at least 5 characters", fields["password"])
	assert.Contains(t, fields, "firstName")
	assert.Contains(t, fields, "lastName")

	_, err = svc.Register(ctx, testSession, domain.Registration{
		Email:     "demo@example.com",
		Password:  "password123",
		FirstName: "Demo",
		LastName:  "Again",
	})
	assert.Equal(t, "Email has already been taken", domain.GetValidationFields(err)["email"])
}
