package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/example/visa-rescheduler/internal/application/scheduler"
	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

func TestObserveOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAttemptMetrics(reg)

	found, _ := appointment.NewFoundDate("January", "2024", "15")
	out := appointment.NoBetterDate(found)
	out.StartedAt = time.Unix(0, 0)
	out.FinishedAt = out.StartedAt.Add(20 * time.Second)
	m.ObserveOutcome(out)
	m.ObserveOutcome(appointment.Failed(appointment.ErrTimeout))
	m.ObserveOutcome(appointment.Failed(appointment.ErrTimeout))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attemptsTotal.WithLabelValues("no_better_date", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attemptsTotal.WithLabelValues("failed", "timeout")))
	assert.Equal(t, float64(found.Date.Unix()/86400), testutil.ToFloat64(m.foundLeadDays))
	assert.Equal(t, 1, testutil.CollectAndCount(m.attemptDuration))
}

func TestObserveState(t *testing.T) {
	m := NewAttemptMetrics(prometheus.NewRegistry())
	m.ObserveState(scheduler.StateWaiting)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("waiting")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("attempting")))

	m.ObserveState(scheduler.StateAttempting)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("waiting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("attempting")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *AttemptMetrics
	m.ObserveOutcome(appointment.Failed(nil))
	m.ObserveState(scheduler.StateIdle)
}
