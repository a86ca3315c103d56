// Package metrics holds the bot's prometheus collectors and the ops HTTP server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Pleso100/Kolgidrat/core/logger"
)

const namespace = "kolgidrat"

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	updates     *prometheus.CounterVec
	updateTime  *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	catalogOps  *prometheus.CounterVec
	dispatch    prometheus.Histogram
	sends       *prometheus.CounterVec
	sendAttempt prometheus.Histogram
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates handled, by kind and status.",
		}, []string{"kind", "status"}),
		updateTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Time spent handling one update.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Conversation state transitions.",
		}, []string{"from", "to"}),
		catalogOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_ops_total",
			Help:      "Catalog operations requested by conversations, by result.",
		}, []string{"op", "status"}),
		dispatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time from session lock to session save for one event.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 3, 5},
		}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Outbound Telegram calls, by action and status.",
		}, []string{"action", "status"}),
		sendAttempt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_attempts",
			Help:      "Attempts needed per outbound call.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.updates, m.updateTime, m.transitions, m.catalogOps, m.dispatch, m.sends, m.sendAttempt,
	)
	return m
}

func status(err error) string { return logger.Status(err) }

// UpdateHandled records a handled Telegram update.
func (m *Metrics) UpdateHandled(kind string, err error, elapsed time.Duration) {
	m.updates.WithLabelValues(kind, status(err)).Inc()
	m.updateTime.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Transition records one conversation step; op is "none" without a catalog call.
func (m *Metrics) Transition(from, to, op string, opErr error, elapsed time.Duration) {
	m.transitions.WithLabelValues(from, to).Inc()
	if op != "" && op != "none" {
		m.catalogOps.WithLabelValues(op, status(opErr)).Inc()
	}
	m.dispatch.Observe(elapsed.Seconds())
}

// SendDone records the final result of an outbound call.
func (m *Metrics) SendDone(action string, attempts int, err error, _ time.Duration) {
	m.sends.WithLabelValues(action, status(err)).Inc()
	m.sendAttempt.Observe(float64(attempts))
}

// RegisterQueueGauge exposes the sender queue length.
func (m *Metrics) RegisterQueueGauge(length func() int) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "send_queue_length",
		Help:      "Outbound calls waiting for a sender worker.",
	}, func() float64 { return float64(length()) }))
}
