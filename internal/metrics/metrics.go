package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/visa-rescheduler/internal/application/scheduler"
	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

// AttemptMetrics exposes counters and histograms for the polling loop.
type AttemptMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	foundLeadDays   prometheus.Gauge
	state           *prometheus.GaugeVec
}

var states = []scheduler.State{scheduler.StateIdle, scheduler.StateAttempting, scheduler.StateWaiting, scheduler.StateBooked}

func NewAttemptMetrics(reg prometheus.Registerer) *AttemptMetrics {
	m := &AttemptMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visasched",
			Subsystem: "attempt",
			Name:      "total",
			Help:      "Total reschedule attempts by outcome and failure kind",
		}, []string{"outcome", "failure_kind"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "visasched",
			Subsystem: "attempt",
			Name:      "duration_seconds",
			Help:      "Wall time of one reschedule attempt",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"outcome"}),
		foundLeadDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "visasched",
			Subsystem: "calendar",
			Name:      "first_available_unix_days",
			Help:      "First available date seen on the last successful search, in days since the unix epoch",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "visasched",
			Subsystem: "scheduler",
			Name:      "state",
			Help:      "1 for the current scheduler state, 0 otherwise",
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.attemptDuration, m.foundLeadDays, m.state)
	return m
}

// ObserveOutcome satisfies scheduler.Observer.
func (m *AttemptMetrics) ObserveOutcome(out appointment.Outcome) {
	if m == nil {
		return
	}
	kind := out.Kind.String()
	m.attemptsTotal.WithLabelValues(kind, out.FailureKind()).Inc()
	if d := out.Duration(); d > 0 {
		m.attemptDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
	if out.Found != nil {
		m.foundLeadDays.Set(float64(out.Found.Date.Unix() / 86400))
	}
}

func (m *AttemptMetrics) ObserveState(s scheduler.State) {
	if m == nil {
		return
	}
	for _, st := range states {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.WithLabelValues(st.String()).Set(v)
	}
}
