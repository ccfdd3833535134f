package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics tracks Object Engine Prometheus metrics, grounded on the
// teacher's internal/adapter/nlm metrics.go pattern: one CounterVec per
// operation keyed by outcome, one HistogramVec for latency. bytesUp and
// bytesDown are registered, but no engine operation increments them, so
// both stay at zero.
type metrics struct {
	opsTotal    *prometheus.CounterVec
	opsDuration *prometheus.HistogramVec
	bytesUp     prometheus.Counter
	bytesDown   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		opsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yeetbox_engine_operations_total",
				Help: "Total Object Engine operations by name and outcome.",
			},
			[]string{"operation", "code"},
		),
		opsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yeetbox_engine_operation_duration_seconds",
				Help:    "Object Engine operation duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		bytesUp: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yeetbox_engine_bytes_uploaded_total",
			Help: "Total bytes accepted by upload and append.",
		}),
		bytesDown: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yeetbox_engine_bytes_downloaded_total",
			Help: "Total bytes returned by download.",
		}),
	}
	reg.MustRegister(m.opsTotal, m.opsDuration, m.bytesUp, m.bytesDown)
	return m
}

func (m *metrics) record(operation string, code ErrorCode, seconds float64) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(operation, code.String()).Inc()
	m.opsDuration.WithLabelValues(operation).Observe(seconds)
}
