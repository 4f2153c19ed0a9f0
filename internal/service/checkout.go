package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/billing"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/events"
	"github.com/dukerupert/britishfloors/internal/money"
	"github.com/dukerupert/britishfloors/internal/shipping"
	"github.com/dukerupert/britishfloors/internal/tax"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

const defaultCheckoutTimeout = 15 * time.Second

// CheckoutConfig configures the checkout orchestrator.
type CheckoutConfig struct {
	// Timeout bounds each submission, including the provider call.
	Timeout time.Duration
	// BaseURL is the public storefront origin used for redirect targets.
	BaseURL  string
	Currency string
}

// CheckoutService turns a visitor's cart into a hosted checkout session.
//
// Totals are computed here and are authoritative: VAT on the gross subtotal,
// flat-rate delivery, minus the cart discount, floored at zero. The cart is
// cleared only by Confirm, never by Submit, so a failed redirect leaves it
// intact for retry.
type CheckoutService struct {
	sessions  *SessionRegistry
	provider  billing.CheckoutProvider
	fallback  billing.CheckoutProvider
	taxes     tax.Calculator
	shipping  shipping.Provider
	addresses address.Validator
	events    events.Publisher
	validate  *validator.Validate
	logger    zerolog.Logger
	cfg       CheckoutConfig

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCheckoutService creates a checkout orchestrator. A nil provider means no
// platform is configured and every submission completes locally.
func NewCheckoutService(
	sessions *SessionRegistry,
	provider billing.CheckoutProvider,
	taxes tax.Calculator,
	shippingProvider shipping.Provider,
	addresses address.Validator,
	publisher events.Publisher,
	logger zerolog.Logger,
	cfg CheckoutConfig,
) *CheckoutService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCheckoutTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = money.DefaultCurrency
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{
		sessions:  sessions,
		provider:  provider,
		fallback:  billing.NewFallbackProvider(),
		taxes:     taxes,
		shipping:  shippingProvider,
		addresses: addresses,
		events:    publisher,
		validate:  validator.New(),
		logger:    logger.With().Str("service", "checkout").Logger(),
		cfg:       cfg,
		inFlight:  make(map[string]struct{}),
	}
}

// ComputeTotals prices a set of cart lines. The subtotal is recomputed from
// the lines rather than trusted from the cart.
func (s *CheckoutService) ComputeTotals(ctx context.Context, items []domain.LineItem, discount money.Money, destination address.Address) (domain.OrderTotal, error) {
	const op = "checkout.totals"

	subtotal := money.Zero(s.cfg.Currency)
	if len(items) > 0 {
		subtotal = money.Zero(items[0].Price.CurrencyCode)
	}
	quantity := 0
	taxLines := make([]tax.LineItem, 0, len(items))
	for _, item := range items {
		line := item.LineTotal()
		next, err := subtotal.Add(line)
		if err != nil {
			return domain.OrderTotal{}, domain.WrapError(err, domain.EINVALID, op, "Cart contains mixed currencies")
		}
		subtotal = next
		quantity += item.Quantity
		taxLines = append(taxLines, tax.LineItem{
			VariantID:   item.VariantID,
			Description: item.Title,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			TotalPrice:  line,
		})
	}
	if discount.CurrencyCode == "" {
		discount = money.Zero(subtotal.CurrencyCode)
	}

	taxResult, err := s.taxes.CalculateTax(ctx, tax.TaxParams{
		ShippingAddress: destination,
		LineItems:       taxLines,
		Subtotal:        subtotal,
	})
	if err != nil {
		return domain.OrderTotal{}, domain.Internal(err, op, "failed to calculate tax")
	}

	rate, err := shipping.Cheapest(ctx, s.shipping, shipping.RateParams{
		Destination: destination,
		Subtotal:    subtotal,
		ItemCount:   quantity,
	})
	if err != nil {
		return domain.OrderTotal{}, domain.Internal(err, op, "failed to quote delivery")
	}

	total, err := sumTotal(subtotal, rate.Cost, taxResult.Total, discount)
	if err != nil {
		return domain.OrderTotal{}, domain.Internal(err, op, "failed to total order")
	}

	return domain.OrderTotal{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      taxResult.Total,
		Shipping: rate.Cost,
		Total:    total,
	}, nil
}

// sumTotal is subtotal + shipping + tax - discount, never below zero.
func sumTotal(subtotal, shippingCost, taxAmount, discount money.Money) (money.Money, error) {
	total, err := subtotal.Add(shippingCost)
	if err != nil {
		return money.Money{}, err
	}
	if total, err = total.Add(taxAmount); err != nil {
		return money.Money{}, err
	}
	if total, err = total.Sub(discount); err != nil {
		return money.Money{}, err
	}
	return total.FloorAtZero(), nil
}

// Quote prices the visitor's current cart for the order summary.
func (s *CheckoutService) Quote(ctx context.Context, sessionID string, destination address.Address) (domain.OrderTotal, error) {
	snap, err := s.snapshot(ctx, sessionID)
	if err != nil {
		return domain.OrderTotal{}, err
	}
	return s.ComputeTotals(ctx, snap.Items, snap.DiscountAmount, destination)
}

// Submit validates the checkout form, prices the cart and creates a checkout
// session. Validation failures never reach the provider. When no provider is
// configured the order completes locally with a "BRF-" order id.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string, req domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	const op = "checkout.submit"

	snap, err := s.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(snap.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	shippingAddr, billingAddr, err := s.validateRequest(ctx, &req)
	if err != nil {
		return nil, err
	}

	totals, err := s.ComputeTotals(ctx, snap.Items, snap.DiscountAmount, shippingAddr)
	if err != nil {
		return nil, err
	}

	if !s.acquire(sessionID) {
		return nil, domain.ErrCheckoutInFlight
	}
	defer s.release(sessionID)

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStarted.WithLabelValues(string(req.PaymentMethod)).Inc()
	}

	params := billing.SessionParams{
		Email:           req.Email,
		ShippingAddress: shippingAddr,
		BillingAddress:  billingAddr,
		PaymentMethod:   string(req.PaymentMethod),
		DiscountCode:    snap.DiscountCode,
		Subtotal:        totals.Subtotal,
		Discount:        totals.Discount,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		SuccessURL:      s.cfg.BaseURL + "/checkout/success?orderId={CHECKOUT_SESSION_ID}",
		CancelURL:       s.cfg.BaseURL + "/checkout",
		Reference:       sessionID,
	}
	for _, item := range snap.Items {
		title := item.Title
		if item.VariantTitle != "" {
			title += " - " + item.VariantTitle
		}
		params.Lines = append(params.Lines, billing.SessionLine{
			VariantID: item.VariantID,
			Title:     title,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	session, providerName, err := s.createSession(ctx, params)
	if err != nil {
		return nil, s.submitFailed(ctx, op, sessionID, providerName, err)
	}

	total := totals.Total
	if !session.Total.IsZero() && !session.IsMock {
		total = session.Total
	}
	result := &domain.CheckoutResult{
		CheckoutURL: session.URL,
		CheckoutID:  session.ID,
		Total:       total,
		Breakdown:   totals,
		IsMock:      session.IsMock,
	}

	err = s.sessions.View(ctx, sessionID, func(v *Visitor) error {
		v.Pending = &PendingCheckout{
			CheckoutID: session.ID,
			Provider:   providerName,
			IsMock:     session.IsMock,
			Total:      totals,
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("checkout_id", session.ID).Msg("failed to record pending checkout")
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutCompleted.WithLabelValues(providerName, "success").Inc()
		telemetry.Business.CheckoutValue.WithLabelValues(totals.Total.CurrencyCode).Observe(totals.Total.Amount.InexactFloat64())
	}
	s.publish(ctx, events.SubjectCheckoutSubmitted, sessionID, map[string]any{
		"checkoutId":    session.ID,
		"provider":      providerName,
		"isMock":        session.IsMock,
		"paymentMethod": req.PaymentMethod,
		"discountCode":  snap.DiscountCode,
		"itemCount":     snap.TotalQuantity,
		"total":         totals.Total,
	})

	s.logger.Info().
		Str("checkout_id", session.ID).
		Str("provider", providerName).
		Bool("mock", session.IsMock).
		Str("total", totals.Total.String()).
		Msg("checkout session created")

	return result, nil
}

// createSession calls the configured provider under the checkout timeout,
// falling back to the local flow when the provider reports it is not
// configured.
func (s *CheckoutService) createSession(ctx context.Context, params billing.SessionParams) (*billing.Session, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.provider != nil {
		session, err := s.provider.CreateCheckoutSession(ctx, params)
		if err == nil {
			return session, s.provider.Name(), nil
		}
		if !errors.Is(err, billing.ErrNotConfigured) {
			return nil, s.provider.Name(), err
		}
		s.logger.Info().Str("provider", s.provider.Name()).Msg("checkout provider not configured, completing locally")
	}

	session, err := s.fallback.CreateCheckoutSession(ctx, params)
	return session, s.fallback.Name(), err
}

// submitFailed classifies a provider failure. Rejections carry the
// provider's message to the customer; anything else is reported generically
// and sent to error tracking.
func (s *CheckoutService) submitFailed(ctx context.Context, op, sessionID, providerName string, err error) error {
	var userErr *billing.UserError
	outcome := "error"
	if errors.As(err, &userErr) {
		outcome = "rejected"
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutCompleted.WithLabelValues(providerName, outcome).Inc()
	}
	s.publish(ctx, events.SubjectCheckoutFailed, sessionID, map[string]any{
		"provider": providerName,
		"outcome":  outcome,
	})

	if userErr != nil {
		s.logger.Info().Str("provider", providerName).Str("reason", userErr.ErrorMessage()).Msg("checkout rejected by provider")
		return &domain.Error{
			Code:    domain.EINVALID,
			Op:      op,
			Message: userErr.ErrorMessage(),
			Err:     userErr,
		}
	}

	s.logger.Error().Err(err).Str("provider", providerName).Msg("checkout provider failed")
	telemetry.CaptureErrorWithContext(ctx, err, sessionID, map[string]interface{}{
		"provider": providerName,
		"op":       op,
	})
	return &domain.Error{
		Code:    domain.EUNAVAILABLE,
		Op:      op,
		Message: domain.ErrCheckoutProviderError.Message,
		Err:     err,
	}
}

// Confirm completes a checkout the payment provider has verified, such as a
// signed webhook. It clears the cart and forgets the pending checkout.
// Confirming twice is harmless.
func (s *CheckoutService) Confirm(ctx context.Context, sessionID, orderID string) (*domain.Confirmation, error) {
	return s.confirm(ctx, sessionID, orderID, nil)
}

// ConfirmReturn handles a customer landing on the success page. The orderId
// query parameter is untrusted, so the cart is cleared only when it names the
// visitor's pending checkout, or a local "BRF-" order once the pending record
// has been lost to a restart. Anything else renders the page and leaves the
// cart alone.
func (s *CheckoutService) ConfirmReturn(ctx context.Context, sessionID, orderID string) (*domain.Confirmation, error) {
	return s.confirm(ctx, sessionID, orderID, func(pending *PendingCheckout) bool {
		if pending != nil {
			return orderID != "" && orderID == pending.CheckoutID
		}
		return billing.IsMockOrderID(orderID)
	})
}

func (s *CheckoutService) confirm(ctx context.Context, sessionID, orderID string, matches func(*PendingCheckout) bool) (*domain.Confirmation, error) {
	conf := &domain.Confirmation{OrderID: orderID}
	var pending *PendingCheckout
	matched := true

	err := s.sessions.Update(ctx, sessionID, func(v *Visitor) error {
		if matches != nil && !matches(v.Pending) {
			matched = false
			return nil
		}
		conf.ClearedItems = len(v.Cart.Items())
		v.Cart.Clear()
		pending = v.Pending
		v.Pending = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !matched {
		s.logger.Info().Str("order_id", orderID).Msg("success page order does not match a pending checkout; cart kept")
		return conf, nil
	}

	if pending == nil && conf.ClearedItems == 0 {
		return conf, nil
	}

	mode := "live"
	if pending == nil || pending.IsMock {
		mode = "mock"
		conf.IsMock = true
	}
	if pending != nil {
		total := pending.Total
		conf.Total = &total
	}
	if telemetry.Business != nil {
		telemetry.Business.OrdersConfirmed.WithLabelValues(mode).Inc()
	}
	s.publish(ctx, events.SubjectCheckoutConfirmed, sessionID, map[string]any{
		"orderId":      orderID,
		"clearedItems": conf.ClearedItems,
		"mode":         mode,
	})
	s.logger.Info().Str("order_id", orderID).Int("cleared_items", conf.ClearedItems).Msg("order confirmed")
	return conf, nil
}

// validateRequest checks the contact, payment and address fields and returns
// the normalized shipping and billing addresses.
func (s *CheckoutService) validateRequest(ctx context.Context, req *domain.CheckoutRequest) (address.Address, address.Address, error) {
	const op = "checkout.validate"

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return address.Address{}, address.Address{}, domain.ErrMissingEmail
	}
	if err := s.validate.Var(req.Email, "email"); err != nil {
		return address.Address{}, address.Address{}, domain.NewValidationError(op, "email", "Enter a valid email address")
	}
	if !req.PaymentMethod.Valid() {
		return address.Address{}, address.Address{}, domain.ErrInvalidPaymentMethod
	}

	var verr error
	shippingAddr, err := s.checkAddress(ctx, "shippingAddress", req.ShippingAddress, &verr)
	if err != nil {
		return address.Address{}, address.Address{}, err
	}
	billingAddr := shippingAddr
	if resolved := req.ResolvedBilling(); resolved != req.ShippingAddress {
		if billingAddr, err = s.checkAddress(ctx, "billingAddress", resolved, &verr); err != nil {
			return address.Address{}, address.Address{}, err
		}
	}
	if verr != nil {
		var ve *domain.ValidationError
		if errors.As(verr, &ve) {
			ve.Op = op
		}
		return address.Address{}, address.Address{}, verr
	}
	return shippingAddr, billingAddr, nil
}

// checkAddress validates one address, accumulating field errors into verr
// under the given prefix.
func (s *CheckoutService) checkAddress(ctx context.Context, prefix string, addr address.Address, verr *error) (address.Address, error) {
	result, err := s.addresses.Validate(ctx, addr)
	if err != nil {
		return address.Address{}, domain.Internal(err, "checkout.validate", "failed to validate address")
	}
	for _, fe := range result.Errors {
		*verr = domain.AddFieldError(*verr, prefix+"."+fe.Field, fe.Message)
	}
	if result.NormalizedAddress != nil {
		return *result.NormalizedAddress, nil
	}
	return addr, nil
}

type cartSnapshot struct {
	Items          []domain.LineItem
	DiscountCode   string
	DiscountAmount money.Money
	TotalQuantity  int
}

func (s *CheckoutService) snapshot(ctx context.Context, sessionID string) (cartSnapshot, error) {
	var snap cartSnapshot
	err := s.sessions.View(ctx, sessionID, func(v *Visitor) error {
		state := v.Cart.State()
		snap = cartSnapshot{
			Items:          state.Items,
			DiscountCode:   state.DiscountCode,
			DiscountAmount: state.DiscountAmount,
			TotalQuantity:  state.TotalQuantity,
		}
		return nil
	})
	return snap, err
}

func (s *CheckoutService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *CheckoutService) release(sessionID string) {
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	s.mu.Unlock()
}

func (s *CheckoutService) publish(ctx context.Context, subject, sessionID string, data any) {
	if err := s.events.Publish(ctx, subject, sessionID, data); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
