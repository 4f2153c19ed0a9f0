package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for storefront funnel observability.
type BusinessMetrics struct {
	// Catalog engagement
	ProductViews    *prometheus.CounterVec
	ProductSearches *prometheus.CounterVec

	// Cart
	CartUpdated     *prometheus.CounterVec
	CartItemsAdd    *prometheus.CounterVec
	DiscountApplied *prometheus.CounterVec
	ListUpdated     *prometheus.CounterVec

	// Checkout funnel
	CheckoutStarted   *prometheus.CounterVec
	CheckoutCompleted *prometheus.CounterVec
	CheckoutValue     *prometheus.HistogramVec
	OrdersConfirmed   *prometheus.CounterVec

	// Order history
	OrderHistoryFallbacks *prometheus.CounterVec

	// Accounts
	Logins  *prometheus.CounterVec
	Signups prometheus.Counter

	// Sessions and persistence
	ActiveSessions       prometheus.Gauge
	StatePersistFailures *prometheus.CounterVec

	// External API performance
	ExternalAPILatency *prometheus.HistogramVec

	// Payment provider webhooks
	WebhookReceived *prometheus.CounterVec
	WebhookLatency  *prometheus.HistogramVec
}

// NewBusinessMetrics creates business metrics and registers them with reg.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "britishfloors"
	}
	subsystem := "business"
	factory := promauto.With(reg)

	m := &BusinessMetrics{
		// =======================================================================
		// Catalog Engagement
		// =======================================================================
		ProductViews: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_views_total",
				Help:      "Total product detail lookups",
			},
			[]string{"product_handle"},
		),
		ProductSearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_searches_total",
				Help:      "Total product searches",
			},
			[]string{"has_results"},
		),

		// =======================================================================
		// Cart
		// =======================================================================
		CartUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updates_total",
				Help:      "Total cart mutations",
			},
			[]string{"operation"}, // add, update, remove, clear
		),
		CartItemsAdd: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total units added to carts",
			},
			[]string{"product_handle"},
		),
		DiscountApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "discount_codes_total",
				Help:      "Discount code submissions",
			},
			[]string{"code", "result"}, // result: applied, rejected
		),
		ListUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "list_updates_total",
				Help:      "Total wishlist and compare mutations",
			},
			[]string{"list", "operation"},
		),

		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkout submissions",
			},
			[]string{"payment_method"},
		),
		CheckoutCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_outcomes_total",
				Help:      "Checkout submissions by outcome",
			},
			[]string{"provider", "outcome"}, // outcome: success, rejected, error
		),
		CheckoutValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_value",
				Help:      "Checkout totals in major currency units",
				Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
			[]string{"currency"},
		),
		OrdersConfirmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_confirmed_total",
				Help:      "Visits to the order confirmation page",
			},
			[]string{"mode"}, // live, mock
		),

		// =======================================================================
		// Order History
		// =======================================================================
		OrderHistoryFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_history_fallbacks_total",
				Help:      "Order history requests served from sample data",
			},
			[]string{"reason"}, // unconfigured, unreachable
		),

		// =======================================================================
		// Accounts
		// =======================================================================
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "logins_total",
				Help:      "Customer login attempts",
			},
			[]string{"result"},
		),
		Signups: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "signups_total",
				Help:      "Customer accounts created",
			},
		),

		// =======================================================================
		// Sessions
		// =======================================================================
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_sessions",
				Help:      "Visitor sessions currently held in memory",
			},
		),
		StatePersistFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "state_persist_failures_total",
				Help:      "Failed writes of visitor state snapshots",
			},
			[]string{"key"},
		),

		// =======================================================================
		// External APIs
		// =======================================================================
		ExternalAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "external_api_duration_seconds",
				Help:      "Latency of calls to the commerce platform and payment provider",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),

		// =======================================================================
		// Webhooks
		// =======================================================================
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhooks_received_total",
				Help:      "Verified payment provider webhooks by event type",
			},
			[]string{"provider", "event_type"},
		),
		WebhookLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processing_seconds",
				Help:      "Time spent handling payment provider webhooks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "event_type"},
		),
	}

	return m
}

// Business is the process-wide metrics instance. Nil until InitBusinessMetrics
// runs, so callers must nil-check.
var Business *BusinessMetrics

// InitBusinessMetrics registers business metrics with the default registry.
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, prometheus.DefaultRegisterer)
	return Business
}
