package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

// AccountService signs visitors in and out against the identity provider.
// The provider's access token lives on the visitor and never reaches the
// browser.
type AccountService struct {
	identity domain.IdentityProvider
	sessions *SessionRegistry
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAccountService(identity domain.IdentityProvider, sessions *SessionRegistry, logger zerolog.Logger) *AccountService {
	return &AccountService{
		identity: identity,
		sessions: sessions,
		validate: validator.New(),
		logger:   logger.With().Str("service", "account").Logger(),
	}
}

// Login authenticates and binds the token to the visitor.
func (s *AccountService) Login(ctx context.Context, sessionID, email, password string) (*domain.Customer, error) {
	const op = "account.login"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.recordLogin("invalid")
		return nil, domain.ErrInvalidCredentials
	}

	tok, err := s.identity.Login(ctx, email, password)
	if err != nil {
		if domain.ErrorCode(err) == domain.EUNAUTHORIZED {
			s.recordLogin("rejected")
			return nil, domain.ErrInvalidCredentials
		}
		s.recordLogin("error")
		return nil, domain.WrapError(err, domain.ErrorCode(err), op, "Login is unavailable. Please try again.")
	}

	customer, err := s.identity.Customer(ctx, tok.Token)
	if err != nil {
		s.recordLogin("error")
		return nil, err
	}

	err = s.sessions.View(ctx, sessionID, func(v *Visitor) error {
		v.CustomerToken = tok.Token
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordLogin("success")
	s.logger.Info().Str("customer_id", customer.ID).Msg("customer logged in")
	return customer, nil
}

// Register creates an account and logs the visitor into it.
func (s *AccountService) Register(ctx context.Context, sessionID string, reg domain.Registration) (*domain.Customer, error) {
	const op = "account.register"

	reg.Email = strings.TrimSpace(reg.Email)
	if err := s.validate.Struct(reg); err != nil {
		return nil, registrationErrors(op, err)
	}

	if _, err := s.identity.Register(ctx, reg); err != nil {
		return nil, err
	}
	if telemetry.Business != nil {
		telemetry.Business.Signups.Inc()
	}
	return s.Login(ctx, sessionID, reg.Email, reg.Password)
}

// registrationErrors converts validator failures into field messages.
func registrationErrors(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid(op, err.Error())
	}
	var out error
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required"
		case "email":
			msg = "Enter a valid email address"
		case "min":
			msg = "Must be at least " + fe.Param() + " characters"
		default:
			msg = "Invalid value"
		}
		if out == nil {
			out = domain.NewValidationError(op, field, msg)
		} else {
			out = domain.AddFieldError(out, field, msg)
		}
	}
	return out
}

// Me returns the logged-in customer, or ErrNotLoggedIn. An expired token is
// dropped from the visitor.
func (s *AccountService) Me(ctx context.Context, sessionID string) (*domain.Customer, error) {
	token, err := s.CustomerToken(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domain.ErrNotLoggedIn
	}

	customer, err := s.identity.Customer(ctx, token)
	if err != nil {
		if domain.ErrorCode(err) == domain.EUNAUTHORIZED {
			_ = s.sessions.View(ctx, sessionID, func(v *Visitor) error {
				if v.CustomerToken == token {
					v.CustomerToken = ""
				}
				return nil
			})
		}
		return nil, err
	}
	return customer, nil
}

// Logout revokes the token. The visitor is signed out even if revocation fails.
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	var token string
	err := s.sessions.View(ctx, sessionID, func(v *Visitor) error {
		token = v.CustomerToken
		v.CustomerToken = ""
		return nil
	})
	if err != nil || token == "" {
		return err
	}
	if err := s.identity.Logout(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke customer token")
	}
	return nil
}

// CustomerToken returns the visitor's platform token, empty when anonymous.
func (s *AccountService) CustomerToken(ctx context.Context, sessionID string) (string, error) {
	var token string
	err := s.sessions.View(ctx, sessionID, func(v *Visitor) error {
		token = v.CustomerToken
		return nil
	})
	return token, err
}

func (s *AccountService) recordLogin(result string) {
	if telemetry.Business != nil {
		telemetry.Business.Logins.WithLabelValues(result).Inc()
	}
}
