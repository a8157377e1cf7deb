package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus collectors on a private registry.
type MetricsManager struct {
	Registry *prometheus.Registry

	FeedQueriesTotal   *prometheus.CounterVec
	FeedQueryLatency   *prometheus.HistogramVec
	BoostsAppliedTotal *prometheus.CounterVec
	BoostsDuplicate    prometheus.Counter
	BoostsExpiredTotal prometheus.Counter
	SweepFailuresTotal prometheus.Counter
	SweepDuration      prometheus.Histogram
	HTTPRequestsTotal  *prometheus.CounterVec
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry() // Custom registry, not the global default

	m := &MetricsManager{
		Registry: registry,
		FeedQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_queries_total",
			Help:      "Feed queries by candidate path.",
		}, []string{"path"}),
		FeedQueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_query_latency_seconds",
			Help:      "Feed query latency by candidate path.",
			Buckets:   prometheus.DefBuckets, // Default buckets: .005 .. 10s
		}, []string{"path"}),
		BoostsAppliedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boosts_applied_total",
			Help:      "Boosts applied by event source.",
		}, []string{"source"}),
		BoostsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boosts_duplicate_total",
			Help:      "Boost orders ignored because the payment was already applied.",
		}),
		BoostsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boosts_expired_total",
			Help:      "Listings un-featured by the expiry sweep.",
		}),
		SweepFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boost_sweep_failures_total",
			Help:      "Per-listing failures during the expiry sweep.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "boost_sweep_duration_seconds",
			Help:      "Wall time of one expiry sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
	}

	registry.MustRegister(
		m.FeedQueriesTotal,
		m.FeedQueryLatency,
		m.BoostsAppliedTotal,
		m.BoostsDuplicate,
		m.BoostsExpiredTotal,
		m.SweepFailuresTotal,
		m.SweepDuration,
		m.HTTPRequestsTotal,
		collectors.NewGoCollector(), // Standard Go runtime metrics
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), // Process metrics
	)
	return m
}

// ObserveFeedQuery records one feed query on the given candidate path.
func (m *MetricsManager) ObserveFeedQuery(path string, started time.Time) {
	if m == nil {
		return
	}
	m.FeedQueriesTotal.WithLabelValues(path).Inc()
	m.FeedQueryLatency.WithLabelValues(path).Observe(time.Since(started).Seconds())
}

func (m *MetricsManager) ObserveBoostApplied(source string) {
	if m == nil {
		return
	}
	m.BoostsAppliedTotal.WithLabelValues(source).Inc()
}

func (m *MetricsManager) ObserveBoostDuplicate() {
	if m == nil {
		return
	}
	m.BoostsDuplicate.Inc()
}

func (m *MetricsManager) ObserveSweep(expired, failed int, started time.Time) {
	if m == nil {
		return
	}
	m.BoostsExpiredTotal.Add(float64(expired))
	m.SweepFailuresTotal.Add(float64(failed))
	m.SweepDuration.Observe(time.Since(started).Seconds())
}

func (m *MetricsManager) ObserveHTTPRequest(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// NewMetricsServer returns the /metrics HTTP server, or nil when no port is configured.
func NewMetricsServer(port string, registry *prometheus.Registry) *http.Server {
	if port == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// StartMetricsServer blocks serving /metrics until the server is shut down.
func StartMetricsServer(srv *http.Server, appLogger *logger.Logger) error {
	if srv == nil {
		appLogger.Info("Prometheus metrics port not configured, metrics server disabled")
		return nil
	}
	appLogger.Info("Prometheus metrics server starting", zap.String("addr", srv.Addr), zap.String("path", "/metrics"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
