package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ledger operations by outcome and tracks their latency.
// A nil *Metrics is safe to use; handlers in tests pass nil so repeated
// registration never panics.
type Metrics struct {
	OpsTotal    *prometheus.CounterVec // op=create|cancel|expire|fund|repay|liquidate, result=ok|rejected|error
	OpLatencyMS *prometheus.HistogramVec

	OpenLoans prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		OpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_ops_total",
				Help: "Total ledger operations by op and result",
			},
			[]string{"op", "result"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_op_latency_ms",
				Help:    "Latency of ledger operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"op"},
		),
		OpenLoans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_open_loans",
			Help: "Number of currently open active loans",
		}),
	}

	prometheus.MustRegister(m.OpsTotal, m.OpLatencyMS, m.OpenLoans)
	return m
}

// Observe records one finished operation.
func (m *Metrics) Observe(op, result string, started time.Time) {
	if m == nil {
		return
	}
	m.OpsTotal.WithLabelValues(op, result).Inc()
	m.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(started).Milliseconds()))
}

// SetOpenLoans updates the open-loan gauge.
func (m *Metrics) SetOpenLoans(n int) {
	if m == nil {
		return
	}
	m.OpenLoans.Set(float64(n))
}
