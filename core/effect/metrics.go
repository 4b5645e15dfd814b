package effect

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes dispatch counters for a Registry, mirroring the
// teacher's system_health_logging.go gauge-registration style.
type Metrics struct {
	registry       *prometheus.Registry
	dispatchTotal  *prometheus.CounterVec
	dispatchErrors *prometheus.CounterVec
}

// NewMetrics constructs and registers a fresh metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.dispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "causality_effect_dispatch_total",
		Help: "Total number of effect dispatches by outcome status.",
	}, []string{"status"})
	m.dispatchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "causality_effect_dispatch_errors_total",
		Help: "Total number of effect dispatches that errored, by kind.",
	}, []string{"kind"})

	reg.MustRegister(m.dispatchTotal, m.dispatchErrors)
	return m
}

// Registry exposes the underlying registry for an HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeOutcome(out *Outcome) {
	if m == nil || out == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(out.Status.String()).Inc()
}

func (m *Metrics) observeError(err *Error) {
	if m == nil || err == nil {
		return
	}
	m.dispatchErrors.WithLabelValues(err.Kind.String()).Inc()
}
