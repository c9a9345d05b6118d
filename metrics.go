// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the work done by a Counter.  A nil *Metrics records
// nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	elements *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "popcount_calls_total",
			Help: "Number of calls to the array entry points.",
		}, []string{"entry"}),
		elements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "popcount_elements_total",
			Help: "Number of array elements counted.",
		}, []string{"entry"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "popcount_rejected_total",
			Help: "Number of arrays rejected by validation.",
		}, []string{"entry", "reason"}),
	}
}

func (m *Metrics) call(entry string) {
	if m == nil {
		return
	}

	m.calls.WithLabelValues(entry).Inc()
}

func (m *Metrics) counted(entry string, n int) {
	if m == nil {
		return
	}

	m.elements.WithLabelValues(entry).Add(float64(n))
}

func (m *Metrics) reject(entry string, err error) {
	if m == nil {
		return
	}

	m.rejected.WithLabelValues(entry, reason(err)).Inc()
}
