package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dukerupert/britishfloors/internal/shopify"
)

// Placeholder credentials shipped in the example env file.
const placeholderStripeKey = "sk_test_your_key_here"

type Config struct {
	Env           string
	LogLevel      string
	Port          uint16
	BaseURL       string
	DatabaseUrl   string
	SessionCookie string
	Currency      string

	// CheckoutProvider is "shopify", "stripe" or "mock". Empty picks the
	// first configured platform.
	CheckoutProvider string
	CheckoutTimeout  time.Duration

	Shopify ShopifyConfig
	Stripe  StripeConfig
	Orders  OrdersConfig
	State   StateConfig
	NATS    NATSConfig
	Sentry  SentryConfig
}

type ShopifyConfig struct {
	StoreDomain     string
	StorefrontToken string
	APIVersion      string
}

// IsConfigured reports whether real Storefront API credentials are present.
func (c ShopifyConfig) IsConfigured() bool {
	return shopify.Config{StoreDomain: c.StoreDomain, StorefrontToken: c.StorefrontToken}.IsConfigured()
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// IsConfigured reports whether a real Stripe key is present.
func (c StripeConfig) IsConfigured() bool {
	key := strings.TrimSpace(c.SecretKey)
	return key != "" && key != placeholderStripeKey
}

type OrdersConfig struct {
	APIURL   string
	APIToken string
}

// StateConfig selects where visitor snapshots are persisted when no
// database is configured.
type StateConfig struct {
	Backend       string // "file", "r2" or "memory"
	Dir           string
	IdleTimeout   time.Duration
	MaxAge        time.Duration
	R2AccountID   string
	R2AccessKeyID string
	R2SecretKey   string
	R2BucketName  string
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_COOKIE", "bf_session")
	v.SetDefault("CURRENCY", "GBP")
	v.SetDefault("CHECKOUT_PROVIDER", "")
	v.SetDefault("CHECKOUT_TIMEOUT", "15s")

	v.SetDefault("SHOPIFY_STORE_DOMAIN", "")
	v.SetDefault("SHOPIFY_STOREFRONT_TOKEN", "")
	v.SetDefault("SHOPIFY_API_VERSION", shopify.DefaultAPIVersion)

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")

	v.SetDefault("ORDERS_API_URL", "")
	v.SetDefault("ORDERS_API_TOKEN", "")

	v.SetDefault("STATE_BACKEND", "file")
	v.SetDefault("STATE_DIR", "./data/state")
	v.SetDefault("STATE_IDLE_TIMEOUT", "30m")
	v.SetDefault("STATE_MAX_AGE", "720h")
	v.SetDefault("R2_ACCOUNT_ID", "")
	v.SetDefault("R2_ACCESS_KEY_ID", "")
	v.SetDefault("R2_SECRET_ACCESS_KEY", "")
	v.SetDefault("R2_BUCKET_NAME", "")

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "storefront")

	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_ENABLED", false) // Disabled by default for development
	v.SetDefault("SENTRY_ENVIRONMENT", "development")
	v.SetDefault("SENTRY_RELEASE", "")
	v.SetDefault("SENTRY_SAMPLE_RATE", 1.0)
	v.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.0)
	v.SetDefault("SENTRY_DEBUG", false)
}

// loadDotEnv loads .env from the working directory or up to two parents.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	dir, _ := os.Getwd()
	for i := 0; i < 2; i++ {
		dir = filepath.Join(dir, "..")
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
	log.Warn().Msg(".env file not found, using environment variables and defaults")
}

func NewConfig() (*Config, error) {
	loadDotEnv()
	return configFrom(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

func configFrom(v *viper.Viper) (*Config, error) {
	port := v.GetInt("PORT")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		Env:              strings.ToLower(v.GetString("ENV")),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		Port:             uint16(port),
		BaseURL:          strings.TrimRight(v.GetString("BASE_URL"), "/"),
		DatabaseUrl:      v.GetString("DATABASE_URL"),
		SessionCookie:    v.GetString("SESSION_COOKIE"),
		Currency:         strings.ToUpper(v.GetString("CURRENCY")),
		CheckoutProvider: strings.ToLower(v.GetString("CHECKOUT_PROVIDER")),
		CheckoutTimeout:  v.GetDuration("CHECKOUT_TIMEOUT"),
		Shopify: ShopifyConfig{
			StoreDomain:     v.GetString("SHOPIFY_STORE_DOMAIN"),
			StorefrontToken: v.GetString("SHOPIFY_STOREFRONT_TOKEN"),
			APIVersion:      v.GetString("SHOPIFY_API_VERSION"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		Orders: OrdersConfig{
			APIURL:   v.GetString("ORDERS_API_URL"),
			APIToken: v.GetString("ORDERS_API_TOKEN"),
		},
		State: StateConfig{
			Backend:       strings.ToLower(v.GetString("STATE_BACKEND")),
			Dir:           v.GetString("STATE_DIR"),
			IdleTimeout:   v.GetDuration("STATE_IDLE_TIMEOUT"),
			MaxAge:        v.GetDuration("STATE_MAX_AGE"),
			R2AccountID:   v.GetString("R2_ACCOUNT_ID"),
			R2AccessKeyID: v.GetString("R2_ACCESS_KEY_ID"),
			R2SecretKey:   v.GetString("R2_SECRET_ACCESS_KEY"),
			R2BucketName:  v.GetString("R2_BUCKET_NAME"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("NATS_URL"),
			SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
		},
		Sentry: SentryConfig{
			DSN:              v.GetString("SENTRY_DSN"),
			Enabled:          v.GetBool("SENTRY_ENABLED"),
			Environment:      v.GetString("SENTRY_ENVIRONMENT"),
			Release:          v.GetString("SENTRY_RELEASE"),
			SampleRate:       v.GetFloat64("SENTRY_SAMPLE_RATE"),
			TracesSampleRate: v.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
			Debug:            v.GetBool("SENTRY_DEBUG"),
		},
	}

	// Validate env
	if cfg.Env != "dev" && cfg.Env != "prod" {
		log.Warn().Str("env", cfg.Env).Msg("Invalid environment. Using default: prod")
		cfg.Env = "prod"
	}

	// Validate log level
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		log.Warn().Str("value", cfg.LogLevel).Msg("Invalid log level. Using default: info")
		cfg.LogLevel = "info"
	}

	if cfg.CheckoutTimeout <= 0 {
		cfg.CheckoutTimeout = 15 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "GBP"
	}

	switch cfg.CheckoutProvider {
	case "", "mock":
	case "shopify":
		if !cfg.Shopify.IsConfigured() {
			log.Warn().Msg("CHECKOUT_PROVIDER=shopify but Shopify credentials are not configured; orders will complete locally")
		}
	case "stripe":
		if !cfg.Stripe.IsConfigured() {
			log.Warn().Msg("CHECKOUT_PROVIDER=stripe but STRIPE_SECRET_KEY is not configured; orders will complete locally")
		}
	default:
		return nil, fmt.Errorf("CHECKOUT_PROVIDER must be shopify, stripe or mock, got %q", cfg.CheckoutProvider)
	}

	// Validate R2 configuration in production
	if cfg.Env == "prod" && cfg.DatabaseUrl == "" && cfg.State.Backend == "r2" {
		if cfg.State.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID required when using R2 state storage in production")
		}
		if cfg.State.R2AccessKeyID == "" || cfg.State.R2SecretKey == "" {
			return nil, fmt.Errorf("R2 credentials required when using R2 state storage in production")
		}
		if cfg.State.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME required when using R2 state storage in production")
		}
	}

	return cfg, nil
}

// ResolvedCheckoutProvider returns the provider that will handle checkout:
// the configured one, or the first platform with real credentials.
func (c *Config) ResolvedCheckoutProvider() string {
	switch c.CheckoutProvider {
	case "shopify":
		if c.Shopify.IsConfigured() {
			return "shopify"
		}
		return "mock"
	case "stripe":
		if c.Stripe.IsConfigured() {
			return "stripe"
		}
		return "mock"
	case "mock":
		return "mock"
	}
	if c.Shopify.IsConfigured() {
		return "shopify"
	}
	if c.Stripe.IsConfigured() {
		return "stripe"
	}
	return "mock"
}

func (c *Config) IsProduction() bool { return c.Env == "prod" }
