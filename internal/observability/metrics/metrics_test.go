package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDispatchMetricsNilSafe(t *testing.T) {
	var m *DispatchMetrics
	m.ObserveIngest("dispatched")
	m.ObserveEmit("message.create.contact.chat")
	m.ObserveTriggerFire()
	m.ObserveReplyMatched()
	m.ObserveWebhookLatency(0.1)
}

func TestObserveEmitUsesFirstSegment(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.ObserveEmit("message.create.contact.chat")
	m.ObserveEmit("message")
	m.ObserveEmit("notify")

	if got := testutil.ToFloat64(m.emittedTotal.WithLabelValues("message")); got != 2 {
		t.Errorf("message emissions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.emittedTotal.WithLabelValues("notify")); got != 1 {
		t.Errorf("notify emissions = %v, want 1", got)
	}
}

func TestObserveIngest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.ObserveIngest("malformed")
	m.ObserveIngest("malformed")

	if got := testutil.ToFloat64(m.ingestedTotal.WithLabelValues("malformed")); got != 2 {
		t.Errorf("malformed ingests = %v, want 2", got)
	}
}
