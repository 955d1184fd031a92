package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordTransition(t *testing.T) {
	m := NewMetrics("test")

	m.RecordTransition("received", "preparing", OutcomeApplied)
	m.RecordTransition("received", "preparing", OutcomeApplied)
	m.RecordTransition("completed", "ready", OutcomeIllegal)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("received", "preparing", OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("completed", "ready", OutcomeIllegal)))
}

func TestMetricsRecordRequest(t *testing.T) {
	m := NewMetrics("test")

	m.RecordRequest("/api/ping", "GET", 200, 3*time.Millisecond)
	m.RecordError("/api/v1/tickets/:id/status", "POST", "ILLEGAL_TRANSITION")
	m.RecordRelayed(3)
	m.RecordRelayed(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/ping", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/api/v1/tickets/:id/status", "POST", "ILLEGAL_TRANSITION")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.relayedEvent))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordTransition("a", "b", OutcomeNoop)
		m.RecordRelayed(1)
	})
}
