package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/money"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

// HTTPSource reads order history from the order platform's REST API:
//
//	GET {base}/orders?status=&page=&limit=
//	GET {base}/orders/{id}
//
// The service token is sent as a bearer token; the customer's access token
// scopes the result to that customer.
type HTTPSource struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewHTTPSource(cfg HTTPConfig, logger zerolog.Logger) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("service", "orders").Logger(),
	}
}

func (s *HTTPSource) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	const op = "orders.list"
	filter = filter.Normalize()

	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	q.Set("page", strconv.Itoa(filter.Page))
	q.Set("limit", strconv.Itoa(filter.Limit))

	var body struct {
		Orders     []wireOrder       `json:"orders"`
		Pagination domain.Pagination `json:"pagination"`
	}
	if err := s.get(ctx, op, "/orders?"+q.Encode(), filter.CustomerToken, &body); err != nil {
		return nil, err
	}

	page := &domain.OrderPage{
		Orders:     make([]domain.Order, 0, len(body.Orders)),
		Pagination: body.Pagination,
	}
	for _, w := range body.Orders {
		page.Orders = append(page.Orders, w.toOrder())
	}
	return page, nil
}

func (s *HTTPSource) GetOrder(ctx context.Context, customerToken, orderID string) (*domain.Order, error) {
	var w wireOrder
	if err := s.get(ctx, "orders.get", "/orders/"+url.PathEscape(orderID), customerToken, &w); err != nil {
		return nil, err
	}
	o := w.toOrder()
	return &o, nil
}

func (s *HTTPSource) get(ctx context.Context, op, path, customerToken string, out any) error {
	start := time.Now()
	defer func() {
		if telemetry.Business != nil {
			telemetry.Business.ExternalAPILatency.WithLabelValues("orders", op).Observe(time.Since(start).Seconds())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return domain.Internal(err, op, "failed to build order request")
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if customerToken != "" {
		req.Header.Set("X-Customer-Access-Token", customerToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Unavailable(err, op, "Order history is temporarily unavailable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrOrderNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrNotLoggedIn
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Warn().Str("op", op).Int("status", resp.StatusCode).Str("body", string(snippet)).Msg("order platform returned non-2xx")
		return domain.Unavailable(fmt.Errorf("HTTP %d", resp.StatusCode), op, "Order history is temporarily unavailable")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Unavailable(fmt.Errorf("decode response: %w", err), op, "Order history is temporarily unavailable")
	}
	return nil
}

// wireOrder is the platform's JSON shape. Dates may be bare dates or
// RFC 3339 timestamps, and addresses use province/zip naming.
type wireOrder struct {
	ID                 string      `json:"id"`
	OrderNumber        string      `json:"orderNumber"`
	Date               string      `json:"date"`
	Status             string      `json:"status"`
	Total              money.Money `json:"total"`
	Items              []wireLine  `json:"items"`
	ShippingAddress    wireAddress `json:"shippingAddress"`
	TrackingNumber     *string     `json:"trackingNumber"`
	EstimatedDelivery  *string     `json:"estimatedDelivery"`
	CancellationReason string      `json:"cancellationReason"`
}

type wireLine struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	VariantTitle  string      `json:"variantTitle"`
	ProductHandle string      `json:"productHandle"`
	VariantID     string      `json:"variantId"`
	Quantity      int         `json:"quantity"`
	Price         money.Money `json:"price"`
	Image         *struct {
		URL string `json:"url"`
	} `json:"image"`
}

type wireAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

func (w wireOrder) toOrder() domain.Order {
	o := domain.Order{
		ID:                 w.ID,
		OrderNumber:        w.OrderNumber,
		Date:               parseDate(w.Date),
		Status:             domain.ParseOrderStatus(w.Status),
		Total:              w.Total,
		CancellationReason: w.CancellationReason,
		ShippingAddress: address.Address{
			FirstName: w.ShippingAddress.FirstName,
			LastName:  w.ShippingAddress.LastName,
			Company:   w.ShippingAddress.Company,
			Address1:  w.ShippingAddress.Address1,
			Address2:  w.ShippingAddress.Address2,
			City:      w.ShippingAddress.City,
			State:     w.ShippingAddress.Province,
			ZipCode:   w.ShippingAddress.Zip,
			Country:   w.ShippingAddress.Country,
			Phone:     w.ShippingAddress.Phone,
		},
	}
	if o.OrderNumber == "" {
		o.OrderNumber = o.ID
	}
	if w.TrackingNumber != nil {
		o.TrackingNumber = *w.TrackingNumber
	}
	if w.EstimatedDelivery != nil {
		if t := parseDate(*w.EstimatedDelivery); !t.IsZero() {
			o.EstimatedDelivery = &t
		}
	}
	for _, l := range w.Items {
		line := domain.OrderLine{
			ID:            l.ID,
			Title:         l.Title,
			VariantTitle:  l.VariantTitle,
			ProductHandle: l.ProductHandle,
			VariantID:     l.VariantID,
			Quantity:      l.Quantity,
			Price:         l.Price,
		}
		if l.Image != nil {
			line.ImageURL = l.Image.URL
		}
		o.Items = append(o.Items, line)
	}
	return o
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
