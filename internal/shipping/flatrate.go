package shipping

import (
	"context"
	"strings"
	"time"

	"github.com/dukerupert/britishfloors/internal/money"
)

// FlatRateProvider returns predefined flat-rate delivery options.
type FlatRateProvider struct {
	rates []FlatRate
	now   func() time.Time
}

// FlatRate defines a single flat-rate delivery option. When FreeOver is set,
// the option costs nothing for subtotals at or above it. A rate whose Cost has
// no currency code applies to every cart and is priced in the cart's currency;
// a rate tagged with a currency only applies to subtotals in that currency.
type FlatRate struct {
	ServiceName string
	ServiceCode string
	Cost        money.Money
	FreeOver    *money.Money
	DaysMin     int
	DaysMax     int
}

// StandardRates is 10.00 standard delivery, free on orders of 100.00 or more,
// in whatever currency the cart is priced in.
func StandardRates() []FlatRate {
	threshold := money.MustParse("100.00", "")
	return []FlatRate{{
		ServiceName: "Standard Delivery",
		ServiceCode: "STD",
		Cost:        money.MustParse("10.00", ""),
		FreeOver:    &threshold,
		DaysMin:     3,
		DaysMax:     5,
	}}
}

// NewFlatRateProvider creates a new flat-rate delivery provider.
func NewFlatRateProvider(rates []FlatRate) *FlatRateProvider {
	return &FlatRateProvider{rates: rates, now: time.Now}
}

// GetRates converts flat rates to Rate objects, applying free-delivery thresholds.
func (p *FlatRateProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	if len(p.rates) == 0 {
		return nil, ErrNoRates
	}
	if params.Subtotal.CurrencyCode == "" {
		return nil, ErrSubtotalRequired
	}

	result := make([]Rate, 0, len(p.rates))
	currency := params.Subtotal.CurrencyCode
	for _, fr := range p.rates {
		if fr.Cost.CurrencyCode != "" && !strings.EqualFold(fr.Cost.CurrencyCode, currency) {
			continue
		}
		cost := money.New(fr.Cost.Amount, currency)
		if fr.FreeOver != nil && params.Subtotal.Amount.GreaterThanOrEqual(fr.FreeOver.Amount) {
			cost = money.Zero(currency)
		}
		result = append(result, Rate{
			RateID:                fr.ServiceCode,
			Carrier:               "Flat Rate",
			ServiceName:           fr.ServiceName,
			ServiceCode:           fr.ServiceCode,
			Cost:                  cost,
			EstimatedDaysMin:      fr.DaysMin,
			EstimatedDaysMax:      fr.DaysMax,
			EstimatedDeliveryDate: p.now().AddDate(0, 0, fr.DaysMax),
		})
	}
	if len(result) == 0 {
		return nil, ErrNoRates
	}
	return result, nil
}
