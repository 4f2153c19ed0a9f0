package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/britishfloors/internal"
	"github.com/dukerupert/britishfloors/internal/address"
	"github.com/dukerupert/britishfloors/internal/auth"
	"github.com/dukerupert/britishfloors/internal/billing"
	"github.com/dukerupert/britishfloors/internal/catalog"
	"github.com/dukerupert/britishfloors/internal/cookie"
	"github.com/dukerupert/britishfloors/internal/domain"
	"github.com/dukerupert/britishfloors/internal/events"
	"github.com/dukerupert/britishfloors/internal/handler"
	"github.com/dukerupert/britishfloors/internal/handler/storefront"
	"github.com/dukerupert/britishfloors/internal/handler/webhook"
	"github.com/dukerupert/britishfloors/internal/jobs"
	"github.com/dukerupert/britishfloors/internal/middleware"
	"github.com/dukerupert/britishfloors/internal/orders"
	"github.com/dukerupert/britishfloors/internal/postgres"
	"github.com/dukerupert/britishfloors/internal/routes"
	"github.com/dukerupert/britishfloors/internal/service"
	"github.com/dukerupert/britishfloors/internal/shipping"
	"github.com/dukerupert/britishfloors/internal/shopify"
	"github.com/dukerupert/britishfloors/internal/storage"
	"github.com/dukerupert/britishfloors/internal/tax"
	"github.com/dukerupert/britishfloors/internal/telemetry"
	"github.com/dukerupert/britishfloors/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	zerolog.DefaultContextLogger = &logger

	// Initialize Sentry error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("britishfloors")
	httpMetrics := middleware.NewMetrics("britishfloors", nil)

	components := map[string]string{}

	// Visitor state store
	store, pruner, closeStore, err := newStateStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	components["state"] = storeName(cfg)

	// Commerce platform
	var shopifyClient *shopify.Client
	if cfg.Shopify.IsConfigured() {
		shopifyClient, err = shopify.NewClient(shopify.Config{
			StoreDomain:     cfg.Shopify.StoreDomain,
			StorefrontToken: cfg.Shopify.StorefrontToken,
			APIVersion:      cfg.Shopify.APIVersion,
			Timeout:         cfg.CheckoutTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("shopify client initialization failed: %w", err)
		}
	}

	var cat catalog.Catalog = catalog.NewStaticCatalog()
	components["catalog"] = "static"
	if shopifyClient != nil {
		cat = shopify.NewCatalog(shopifyClient)
		components["catalog"] = "shopify"
	}

	var identity domain.IdentityProvider
	if shopifyClient != nil {
		identity = shopify.NewCustomers(shopifyClient)
		components["identity"] = "shopify"
	} else {
		local, err := auth.NewLocalIdentity(0, auth.DemoAccounts()...)
		if err != nil {
			return fmt.Errorf("local identity initialization failed: %w", err)
		}
		identity = local
		components["identity"] = "local"
		logger.Warn().Msg("Shopify is not configured; using demo customer accounts")
	}

	provider, err := newCheckoutProvider(cfg, shopifyClient)
	if err != nil {
		return err
	}
	components["checkout"] = cfg.ResolvedCheckoutProvider()
	logger.Info().Str("provider", components["checkout"]).Msg("checkout provider selected")

	var orderSource domain.OrderSource
	components["orders"] = "sample"
	if cfg.Orders.APIURL != "" {
		orderSource = orders.NewHTTPSource(orders.HTTPConfig{
			BaseURL: cfg.Orders.APIURL,
			Token:   cfg.Orders.APIToken,
		}, logger)
		components["orders"] = "http"
	}

	var publisher events.Publisher = events.NopPublisher{}
	components["events"] = "none"
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		publisher = nc
		components["events"] = "nats"
	}
	defer publisher.Close()

	vat, err := tax.NewPercentageCalculator(tax.UKVATRate, "VAT")
	if err != nil {
		return fmt.Errorf("tax calculator initialization failed: %w", err)
	}

	// Initialize services
	sessions := service.NewSessionRegistry(store, service.RegistryConfig{Currency: cfg.Currency}, logger)
	accounts := service.NewAccountService(identity, sessions, logger)
	lists := service.NewListService(sessions, cat)
	checkout := service.NewCheckoutService(
		sessions,
		provider,
		vat,
		shipping.NewFlatRateProvider(shipping.StandardRates()),
		address.NewBasicValidator(),
		publisher,
		logger,
		service.CheckoutConfig{
			Timeout:  cfg.CheckoutTimeout,
			BaseURL:  cfg.BaseURL,
			Currency: cfg.Currency,
		},
	)

	// Rate limiting
	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	strict := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())

	// Background maintenance
	maintenance := []jobs.Job{
		jobs.EvictIdleSessions(sessions, time.Minute, cfg.State.IdleTimeout),
		jobs.SweepRateLimiter(limiter, 5*time.Minute),
		jobs.SweepRateLimiter(strict, 5*time.Minute),
	}
	if pruner != nil {
		maintenance = append(maintenance, jobs.PruneVisitorState(pruner, time.Hour, cfg.State.MaxAge))
	}
	w := worker.NewWorker(worker.Config{PollInterval: 10 * time.Second}, logger, maintenance...)
	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("worker stopped")
		}
	}()

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)

	security := middleware.DefaultSecurityHeadersConfig()
	if !cfg.IsProduction() {
		security.HSTSMaxAge = 0
	}
	e.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recover(logger),
		telemetry.SentryMiddleware(),
		httpMetrics.Middleware(),
		middleware.SecurityHeaders(security),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		limiter.Middleware(),
	)

	ops := routes.OpsDeps{
		HealthHandler:  storefront.NewHealthHandler(components),
		MetricsHandler: httpMetrics.Handler(),
	}
	if components["checkout"] == "stripe" {
		ops.StripeWebhook = webhook.NewStripeHandler(checkout, cfg.Stripe.WebhookSecret, logger)
	}
	routes.RegisterOpsRoutes(e, ops)
	routes.RegisterStorefrontRoutes(e, routes.StorefrontDeps{
		CatalogHandler:  storefront.NewCatalogHandler(cat),
		CartHandler:     storefront.NewCartHandler(service.NewCartService(sessions, cat, logger)),
		WishlistHandler: storefront.NewListHandler(lists, service.ListWishlist),
		CompareHandler:  storefront.NewListHandler(lists, service.ListCompare),
		CheckoutHandler: storefront.NewCheckoutHandler(checkout),
		OrderHandler:    storefront.NewOrderHandler(service.NewOrderService(orderSource, cat, sessions, logger), accounts),
		AuthHandler:     storefront.NewAuthHandler(accounts),
		Middleware: []echo.MiddlewareFunc{
			middleware.Session(cookie.NewConfig(cfg.SessionCookie, cfg.IsProduction())),
			middleware.WithCustomer(accounts),
		},
		StrictLimit: strict.Middleware(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Uint16("port", cfg.Port).
			Str("env", cfg.Env).
			Interface("components", components).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// newStateStore picks Postgres when DATABASE_URL is set and the configured
// object or file store otherwise. The pruner is nil for stores that cannot
// age out snapshots.
func newStateStore(ctx context.Context, cfg *internal.Config, logger zerolog.Logger) (storage.StateStore, jobs.StatePruner, func(), error) {
	if cfg.DatabaseUrl == "" {
		store, err := storage.NewStateStore(storage.Config{
			Backend:       cfg.State.Backend,
			Dir:           cfg.State.Dir,
			R2AccountID:   cfg.State.R2AccountID,
			R2AccessKeyID: cfg.State.R2AccessKeyID,
			R2SecretKey:   cfg.State.R2SecretKey,
			R2BucketName:  cfg.State.R2BucketName,
			R2Prefix:      "visitor-state",
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("state store initialization failed: %w", err)
		}
		return store, nil, func() {}, nil
	}

	logger.Info().Msg("Running database migrations...")
	if err := internal.RunMigrations(cfg.DatabaseUrl); err != nil {
		return nil, nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Msg("Database migrations completed successfully")

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("database ping failed: %w", err)
	}
	store := postgres.NewStateStore(pool)
	return store, store, pool.Close, nil
}

func storeName(cfg *internal.Config) string {
	if cfg.DatabaseUrl != "" {
		return "postgres"
	}
	if cfg.State.Backend == "" {
		return "file"
	}
	return cfg.State.Backend
}

// newCheckoutProvider returns nil when orders should complete locally.
func newCheckoutProvider(cfg *internal.Config, client *shopify.Client) (billing.CheckoutProvider, error) {
	switch cfg.ResolvedCheckoutProvider() {
	case "shopify":
		return shopify.NewCheckoutProvider(client), nil
	case "stripe":
		p, err := billing.NewStripeProvider(billing.StripeConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Currency:      cfg.Currency,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Stripe provider: %w", err)
		}
		return p, nil
	}
	return nil, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
