// Tracks run-wide counters and gauges for the admission and dispatch core.

package sim

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes simulation counters through a Prometheus registry.
// A nil *Metrics is valid and records nothing, so core types can be used
// without a registry in tests.
type Metrics struct {
	LanesOpened          prometheus.Gauge
	Admissions           *prometheus.CounterVec // by lane
	Completions          *prometheus.CounterVec // by resource kind, priority
	ResponderAssignments *prometheus.CounterVec // by slot
	ResponderRetries     prometheus.Counter
	RespondersBusy       prometheus.Gauge
}

// NewMetrics creates the metric set and registers it on reg.
// Panics if registration fails (duplicate registration is a wiring bug).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LanesOpened: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "triage_lanes_opened",
			Help: "Number of caretaker lanes open.",
		}),
		Admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_admissions_total",
			Help: "Entities admitted to caretaker lanes.",
		}, []string{"lane"}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_completions_total",
			Help: "Entities serviced, by resource kind and priority class.",
		}, []string{"resource", "priority"}),
		ResponderAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_responder_assignments_total",
			Help: "Emergency entities placed on each responder slot.",
		}, []string{"slot"}),
		ResponderRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triage_responder_retries_total",
			Help: "Full responder scans that found no free slot.",
		}),
		RespondersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "triage_responders_busy",
			Help: "Responder slots currently occupied.",
		}),
	}
	reg.MustRegister(m.LanesOpened, m.Admissions, m.Completions,
		m.ResponderAssignments, m.ResponderRetries, m.RespondersBusy)
	return m
}

func (m *Metrics) laneOpened() {
	if m == nil {
		return
	}
	m.LanesOpened.Inc()
}

func (m *Metrics) admitted(lane int) {
	if m == nil {
		return
	}
	m.Admissions.WithLabelValues(strconv.Itoa(lane)).Inc()
}

func (m *Metrics) completed(kind ResourceKind, p PriorityClass) {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues(string(kind), p.String()).Inc()
}

func (m *Metrics) assigned(slot int) {
	if m == nil {
		return
	}
	m.ResponderAssignments.WithLabelValues(strconv.Itoa(slot)).Inc()
	m.RespondersBusy.Inc()
}

func (m *Metrics) released() {
	if m == nil {
		return
	}
	m.RespondersBusy.Dec()
}

func (m *Metrics) retried() {
	if m == nil {
		return
	}
	m.ResponderRetries.Inc()
}
