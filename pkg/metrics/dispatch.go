package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records notification dispatch outcomes.
type DispatchMetrics struct {
	dispatched     *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

// Dispatch outcome labels.
const (
	OutcomeSent             = "sent"
	OutcomeFailed           = "failed"
	OutcomeRecordSuppressed = "record_suppressed"
	OutcomeQuietHours       = "quiet_hours"
	OutcomeNoChannel        = "no_channel"
	OutcomeNoToken          = "no_token"
)

// NewDispatchMetrics registers dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_total",
		Help: "Notification dispatch attempts by outcome.",
	}, []string{"outcome", "type"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "push_gateway_latency_seconds",
		Help:    "Latency of push gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(dispatched, latency)
	return &DispatchMetrics{
		dispatched:     dispatched,
		gatewayLatency: latency,
	}
}

// IncOutcome counts one dispatch with the given outcome.
func (m *DispatchMetrics) IncOutcome(outcome, notificationType string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(outcome), normalizeLabel(notificationType)).Inc()
}

// ObserveGatewayLatency records the duration of one gateway call.
func (m *DispatchMetrics) ObserveGatewayLatency(outcome string, duration time.Duration) {
	if m == nil || m.gatewayLatency == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
