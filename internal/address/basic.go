package address

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ukCountryNames = map[string]bool{
	"gb":               true,
	"uk":               true,
	"united kingdom":   true,
	"great britain":    true,
	"england":          true,
	"scotland":         true,
	"wales":            true,
	"northern ireland": true,
}

// BasicValidator performs format validation without external API calls.
// Required fields are enforced with struct tags; a malformed UK postcode is
// reported as a warning rather than an error so unusual addresses still go
// through to the checkout platform.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() *BasicValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &BasicValidator{validate: v}
}

// Validate trims every field, enforces required fields and checks UK postcodes.
func (v *BasicValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	normalized := normalize(addr)
	result := &ValidationResult{IsValid: true, NormalizedAddress: &normalized}

	if err := v.validate.Struct(normalized); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validate address: %w", err)
		}
		result.IsValid = false
		for _, fe := range fieldErrs {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fe.Field(),
				Message: messageFor(fe),
			})
		}
	}

	if normalized.ZipCode != "" && ukCountryNames[strings.ToLower(normalized.Country)] {
		if err := v.validate.Var(normalized.ZipCode, "postcode_iso3166_alpha2=GB"); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%q does not look like a UK postcode", normalized.ZipCode))
		}
	}

	return result, nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func normalize(a Address) Address {
	return Address{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Company:   strings.TrimSpace(a.Company),
		Address1:  strings.TrimSpace(a.Address1),
		Address2:  strings.TrimSpace(a.Address2),
		City:      strings.TrimSpace(a.City),
		State:     strings.TrimSpace(a.State),
		ZipCode:   strings.ToUpper(strings.TrimSpace(a.ZipCode)),
		Country:   strings.TrimSpace(a.Country),
		Phone:     strings.TrimSpace(a.Phone),
	}
}
