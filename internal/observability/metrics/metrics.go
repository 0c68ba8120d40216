package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics exposes counters/histograms for the webhook dispatch engine.
// All methods are safe on a nil receiver so wiring stays optional.
type DispatchMetrics struct {
	ingestedTotal  *prometheus.CounterVec
	emittedTotal   *prometheus.CounterVec
	triggerFires   prometheus.Counter
	repliesMatched prometheus.Counter
	webhookLatency prometheus.Histogram
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		ingestedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botlink",
			Subsystem: "dispatch",
			Name:      "ingested_total",
			Help:      "Total ingested webhook payloads by outcome",
		}, []string{"result"}),
		emittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botlink",
			Subsystem: "dispatch",
			Name:      "emitted_total",
			Help:      "Total emitted bus events by resource class",
		}, []string{"resource"}),
		triggerFires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "botlink",
			Subsystem: "dispatch",
			Name:      "trigger_fires_total",
			Help:      "Total text trigger handler invocations",
		}),
		repliesMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "botlink",
			Subsystem: "dispatch",
			Name:      "replies_matched_total",
			Help:      "Total reply listeners resolved by an inbound answer",
		}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "botlink",
			Subsystem: "dispatch",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of webhook ingestion handling",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.ingestedTotal, m.emittedTotal, m.triggerFires, m.repliesMatched, m.webhookLatency)
	return m
}

func (m *DispatchMetrics) ObserveIngest(result string) {
	if m == nil {
		return
	}
	m.ingestedTotal.WithLabelValues(result).Inc()
}

// ObserveEmit records an emission, keyed by the event's first segment to keep
// label cardinality bounded.
func (m *DispatchMetrics) ObserveEmit(event string) {
	if m == nil {
		return
	}
	resource := event
	if i := strings.IndexByte(event, '.'); i > 0 {
		resource = event[:i]
	}
	m.emittedTotal.WithLabelValues(resource).Inc()
}

func (m *DispatchMetrics) ObserveTriggerFire() {
	if m == nil {
		return
	}
	m.triggerFires.Inc()
}

func (m *DispatchMetrics) ObserveReplyMatched() {
	if m == nil {
		return
	}
	m.repliesMatched.Inc()
}

func (m *DispatchMetrics) ObserveWebhookLatency(seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.Observe(seconds)
}
