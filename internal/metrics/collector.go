// Package metrics exposes Prometheus collectors for the bridge/transport/
// session layer: active sessions and subscriptions, request/error counts per
// transport, and broadcast fan-out size.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Collector holds the Prometheus metrics for a running bridge instance.
// It is scraped directly (an HTTP handler wrapping GetRegistry); there is no
// remote-write pushgateway client.
type Collector struct {
	logger *logrus.Logger

	activeSessions      prometheus.Gauge
	activeSubscriptions prometheus.Gauge
	requestsTotal       *prometheus.CounterVec
	requestErrorsTotal  *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	broadcastFanOut     prometheus.Histogram

	registry *prometheus.Registry
}

// NewCollector creates and registers a metrics collector for agentName.
func NewCollector(logger *logrus.Logger, agentName string) *Collector {
	if logger == nil {
		logger = logrus.New()
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		logger:   logger,
		registry: registry,

		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bridge_active_sessions",
			Help:        "Number of sessions currently supervised",
			ConstLabels: prometheus.Labels{"agent": agentName},
		}),

		activeSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bridge_active_subscriptions",
			Help:        "Number of topic subscriptions currently open",
			ConstLabels: prometheus.Labels{"agent": agentName},
		}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bridge_requests_total",
			Help:        "Total number of handler invocations, by transport",
			ConstLabels: prometheus.Labels{"agent": agentName},
		}, []string{"transport"}),

		requestErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bridge_request_errors_total",
			Help:        "Total number of handler errors, by transport and kind",
			ConstLabels: prometheus.Labels{"agent": agentName},
		}, []string{"transport", "kind"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "bridge_request_duration_seconds",
			Help:        "Handler invocation latency, by transport",
			ConstLabels: prometheus.Labels{"agent": agentName},
			Buckets:     prometheus.DefBuckets,
		}, []string{"transport"}),

		broadcastFanOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "bridge_broadcast_fanout_size",
			Help:        "Number of recipients replying to a broadcast call",
			ConstLabels: prometheus.Labels{"agent": agentName},
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}

	registry.MustRegister(
		c.activeSessions,
		c.activeSubscriptions,
		c.requestsTotal,
		c.requestErrorsTotal,
		c.requestDuration,
		c.broadcastFanOut,
	)

	logger.Info("metrics collector initialized")
	return c
}

// SessionStarted/SessionStopped adjust the active-session gauge.
func (c *Collector) SessionStarted() { c.activeSessions.Inc() }
func (c *Collector) SessionStopped() { c.activeSessions.Dec() }

// SubscriptionOpened/SubscriptionClosed adjust the active-subscription gauge.
func (c *Collector) SubscriptionOpened() { c.activeSubscriptions.Inc() }
func (c *Collector) SubscriptionClosed() { c.activeSubscriptions.Dec() }

// ObserveRequest records a completed handler invocation for transport.
func (c *Collector) ObserveRequest(transport string, durationSeconds float64) {
	c.requestsTotal.WithLabelValues(transport).Inc()
	c.requestDuration.WithLabelValues(transport).Observe(durationSeconds)
}

// ObserveError records a handler or transport error of the given kind
// (e.g. "decode", "handler", "timeout").
func (c *Collector) ObserveError(transport, kind string) {
	c.requestErrorsTotal.WithLabelValues(transport, kind).Inc()
}

// ObserveBroadcastFanOut records the number of replies a broadcast call
// collected before returning.
func (c *Collector) ObserveBroadcastFanOut(n int) {
	c.broadcastFanOut.Observe(float64(n))
}

// GetRegistry returns the Prometheus registry so callers can mount it behind
// an HTTP scrape endpoint.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
