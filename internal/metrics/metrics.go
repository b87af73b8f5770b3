package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/i474232898/kma-forecast/internal/forecast"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Resolution Metrics
	ResolveTotal    *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec

	// Upstream Metrics
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Scheduler Metrics
	RefreshTotal *prometheus.CounterVec
}

// NewCollector creates a new metrics collector registered on reg.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"route"},
		),

		ResolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_total",
				Help:      "Weather questions resolved by product and outcome",
			},
			[]string{"product", "outcome"},
		),

		ResolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "End-to-end resolution time including the upstream fetch",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"product"},
		),

		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_total",
				Help:      "Upstream record fetches by source, product, and status",
			},
			[]string{"source", "product", "status"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Upstream fetch duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"source", "product"},
		),

		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Scheduled current-conditions refreshes by region and outcome",
			},
			[]string{"region", "outcome"},
		),
	}
}

// RecordAPIRequest counts and times one HTTP request.
func (c *Collector) RecordAPIRequest(route, method string, status int, took time.Duration) {
	c.APIRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.APIRequestDuration.WithLabelValues(route).Observe(took.Seconds())
}

// ObserveResolve implements weather.Recorder.
func (c *Collector) ObserveResolve(product forecast.Product, outcome string, took time.Duration) {
	c.ResolveTotal.WithLabelValues(product.String(), outcome).Inc()
	c.ResolveDuration.WithLabelValues(product.String()).Observe(took.Seconds())
}

// ObserveFetch implements weather.Recorder.
func (c *Collector) ObserveFetch(source string, product forecast.Product, err error, took time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.FetchTotal.WithLabelValues(source, product.String(), status).Inc()
	c.FetchDuration.WithLabelValues(source, product.String()).Observe(took.Seconds())
}

// RecordRefresh counts one scheduled refresh.
func (c *Collector) RecordRefresh(region, outcome string) {
	c.RefreshTotal.WithLabelValues(region, outcome).Inc()
}
