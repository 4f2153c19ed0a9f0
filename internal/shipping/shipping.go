package shipping

import (
	"context"
	"sort"
	"time"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/money"
)

// Provider defines the interface for quoting delivery.
// Implementations can integrate with carriers; the storefront uses flat rates.
type Provider interface {
	// GetRates returns available delivery options for an order, cheapest first.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)
}

// RateParams contains parameters for calculating delivery rates.
type RateParams struct {
	Destination address.Address
	// Subtotal is the goods value before any discount. Free-delivery
	// thresholds compare against it.
	Subtotal  money.Money
	ItemCount int
}

// Rate represents a delivery option.
type Rate struct {
	RateID                string
	Carrier               string
	ServiceName           string
	ServiceCode           string
	Cost                  money.Money
	EstimatedDaysMin      int
	EstimatedDaysMax      int
	EstimatedDeliveryDate time.Time
}

// Cheapest returns the lowest-cost rate from a provider.
func Cheapest(ctx context.Context, p Provider, params RateParams) (Rate, error) {
	rates, err := p.GetRates(ctx, params)
	if err != nil {
		return Rate{}, err
	}
	if len(rates) == 0 {
		return Rate{}, ErrNoRates
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Cost.Amount.LessThan(rates[j].Cost.Amount)
	})
	return rates[0], nil
}
