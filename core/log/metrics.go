package log

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes flush counters/gauges for a BatchWriter, mirroring the
// teacher's system_health_logging.go gauge-registration style.
type Metrics struct {
	registry     *prometheus.Registry
	flushTotal   prometheus.Counter
	flushErrors  prometheus.Counter
	bufferedGauge prometheus.Gauge
}

// NewMetrics constructs and registers a fresh metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.flushTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "causality_log_flush_total",
		Help: "Total number of batch flushes attempted.",
	})
	m.flushErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "causality_log_flush_errors_total",
		Help: "Total number of batch flushes that failed.",
	})
	m.bufferedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "causality_log_buffered_entries",
		Help: "Number of entries currently buffered awaiting flush.",
	})

	reg.MustRegister(m.flushTotal, m.flushErrors, m.bufferedGauge)
	return m
}

// Registry exposes the underlying registry for an HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeFlush(err error, buffered int) {
	if m == nil {
		return
	}
	m.flushTotal.Inc()
	if err != nil {
		m.flushErrors.Inc()
	}
	m.bufferedGauge.Set(float64(buffered))
}
