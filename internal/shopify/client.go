// Package shopify is a client for the Shopify Storefront GraphQL API. It
// serves the product catalog, creates hosted checkouts and authenticates
// customers.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal/billing"
	"github.com/dukerupert/britishfloors/internal/telemetry"
)

const (
	// DefaultAPIVersion is the Storefront API version requested.
	DefaultAPIVersion = "2024-01"

	// Placeholder values shipped in example env files.
	PlaceholderStoreDomain = "your-store.myshopify.com"
	PlaceholderToken       = "your-storefront-access-token"

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// Config holds Storefront API credentials.
type Config struct {
	StoreDomain     string
	StorefrontToken string
	APIVersion      string

	// Endpoint overrides the URL derived from StoreDomain.
	Endpoint string

	Timeout time.Duration
}

// IsConfigured reports whether real credentials are present. Empty values and
// the example placeholders both count as unconfigured.
func (c Config) IsConfigured() bool {
	domain := strings.TrimSpace(c.StoreDomain)
	token := strings.TrimSpace(c.StorefrontToken)
	if domain == "" || token == "" {
		return false
	}
	return domain != PlaceholderStoreDomain && token != PlaceholderToken
}

// GraphQLURL returns the Storefront API endpoint.
func (c Config) GraphQLURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return fmt.Sprintf("https://%s/api/%s/graphql.json", c.StoreDomain, version)
}

// Client sends GraphQL operations to one store.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient returns billing.ErrNotConfigured when credentials are absent.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if !cfg.IsConfigured() && cfg.Endpoint == "" {
		return nil, billing.ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:   cfg.GraphQLURL(),
		token:      cfg.StorefrontToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("service", "shopify").Logger(),
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// GraphQLError is a top-level error in a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLErrors is returned when the response carries top-level errors.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	if len(e) == 0 {
		return "graphql: unknown error"
	}
	return "graphql: " + e[0].Message
}

// Do executes an operation and decodes its data into out. Transport failures,
// non-2xx responses and top-level GraphQL errors are returned as
// *billing.TransportError.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	start := time.Now()
	defer func() {
		if telemetry.Business != nil {
			telemetry.Business.ExternalAPILatency.WithLabelValues("shopify", operation).Observe(time.Since(start).Seconds())
		}
	}()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("shopify: encode %s: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shopify: build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &billing.TransportError{Provider: "shopify", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Str("body", string(snippet)).
			Msg("storefront API returned non-2xx")
		return &billing.TransportError{
			Provider:   "shopify",
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	var gql graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gql); err != nil {
		return &billing.TransportError{Provider: "shopify", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(gql.Errors) > 0 {
		c.logger.Warn().Str("operation", operation).Str("error", gql.Errors[0].Message).Msg("storefront API returned errors")
		return &billing.TransportError{Provider: "shopify", StatusCode: resp.StatusCode, Err: GraphQLErrors(gql.Errors)}
	}
	if out == nil || len(gql.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(gql.Data, out); err != nil {
		return &billing.TransportError{Provider: "shopify", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode %s data: %w", operation, err)}
	}
	return nil
}

// nullable maps an empty cursor to a JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
