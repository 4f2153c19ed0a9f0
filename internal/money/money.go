// Package money provides a decimal amount tagged with an ISO 4217 currency code.
//
// Amounts are held as shopspring decimals so that line totals, discounts and
// tax are computed without binary floating point drift. Results produced by the
// arithmetic helpers are rounded to two fraction digits.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for empty carts and fallback data.
const DefaultCurrency = "GBP"

var (
	// ErrCurrencyMismatch is returned when combining amounts in different currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")

	// ErrNegativeScalar is returned when multiplying by a negative quantity.
	ErrNegativeScalar = errors.New("money: scalar must be non-negative")

	// ErrInvalidAmount is returned when an amount string cannot be parsed.
	ErrInvalidAmount = errors.New("money: invalid amount")
)

var hundred = decimal.NewFromInt(100)

// Money is an amount in a single currency.
type Money struct {
	Amount       decimal.Decimal
	CurrencyCode string
}

// New returns a Money value with the currency code upper-cased.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, CurrencyCode: strings.ToUpper(currency)}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return New(decimal.Zero, currency)
}

// Parse builds a Money value from a decimal string such as "149.99".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, currency), nil
}

// MustParse is like Parse but panics on malformed input. Intended for fixtures.
func MustParse(amount, currency string) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMinorUnits converts an integer amount in minor units (pence) to Money.
func FromMinorUnits(units int64, currency string) Money {
	return New(decimal.NewFromInt(units).Div(hundred), currency)
}

// MinorUnits returns the amount in minor units, rounded half away from zero.
func (m Money) MinorUnits() int64 {
	return m.Amount.Round(2).Shift(2).IntPart()
}

// Add returns m + o. Both operands must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if !m.sameCurrency(o) {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.CurrencyCode, o.CurrencyCode)
	}
	return New(m.Amount.Add(o.Amount).Round(2), m.CurrencyCode), nil
}

// Sub returns m - o. Both operands must share a currency.
func (m Money) Sub(o Money) (Money, error) {
	if !m.sameCurrency(o) {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.CurrencyCode, o.CurrencyCode)
	}
	return New(m.Amount.Sub(o.Amount).Round(2), m.CurrencyCode), nil
}

// Multiply returns m scaled by a non-negative integer quantity.
func (m Money) Multiply(n int) (Money, error) {
	if n < 0 {
		return Money{}, ErrNegativeScalar
	}
	return New(m.Amount.Mul(decimal.NewFromInt(int64(n))).Round(2), m.CurrencyCode), nil
}

// Percent returns m multiplied by a fractional rate (0.15 for 15%), rounded to
// two fraction digits.
func (m Money) Percent(rate decimal.Decimal) Money {
	return New(m.Amount.Mul(rate).Round(2), m.CurrencyCode)
}

// FloorAtZero returns m, or zero in the same currency if m is negative.
func (m Money) FloorAtZero() Money {
	if m.Amount.IsNegative() {
		return Zero(m.CurrencyCode)
	}
	return m
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal reports whether both amount and currency match. Trailing zeros are ignored.
func (m Money) Equal(o Money) bool {
	return m.sameCurrency(o) && m.Amount.Equal(o.Amount)
}

// GreaterThanOrEqual compares amounts. It returns false on a currency mismatch.
func (m Money) GreaterThanOrEqual(o Money) bool {
	return m.sameCurrency(o) && m.Amount.GreaterThanOrEqual(o.Amount)
}

// String renders the amount with exactly two fraction digits, e.g. "130.00".
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

func (m Money) sameCurrency(o Money) bool {
	return strings.EqualFold(m.CurrencyCode, o.CurrencyCode)
}

type wireMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// MarshalJSON encodes as {"amount":"12.00","currencyCode":"GBP"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMoney{Amount: m.String(), CurrencyCode: m.CurrencyCode})
}

// UnmarshalJSON accepts the amount as either a JSON string or number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount       json.RawMessage `json:"amount"`
		CurrencyCode string          `json:"currencyCode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount := strings.Trim(string(raw.Amount), `"`)
	if amount == "" {
		amount = "0"
	}
	parsed, err := Parse(amount, raw.CurrencyCode)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
