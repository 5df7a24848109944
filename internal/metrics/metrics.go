package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "price_alert",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "price_alert",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Evaluation cycle metrics ───────────────────────────────────────────

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "engine",
		Name:      "cycles_total",
		Help:      "Total evaluation cycles by outcome.",
	}, []string{"status"})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "price_alert",
		Subsystem: "engine",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of one evaluation cycle in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	AlertsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "price_alert",
		Subsystem: "engine",
		Name:      "alerts_pending",
		Help:      "Pending alerts observed by the last cycle.",
	})
)

// ── Price source metrics ───────────────────────────────────────────────

var (
	PriceFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "price",
		Name:      "fetch_total",
		Help:      "Total price fetch attempts per source.",
	}, []string{"source", "status"})

	PriceLast = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "price_alert",
		Subsystem: "price",
		Name:      "last",
		Help:      "Last observed price per asset.",
	}, []string{"asset"})
)

// ── Alert delivery metrics ─────────────────────────────────────────────

var (
	AlertsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "alerts",
		Name:      "created_total",
		Help:      "Total alerts registered.",
	}, []string{"asset"})

	AlertsSatisfiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "alerts",
		Name:      "satisfied_total",
		Help:      "Total alerts whose threshold was reached.",
	}, []string{"asset"})

	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total notifications successfully delivered.",
	})

	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Total notification delivery failures.",
	})

	AlertsDeduplicatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "price_alert",
		Subsystem: "alerts",
		Name:      "deduplicated_total",
		Help:      "Total sends skipped because the alert was already delivered.",
	})
)
