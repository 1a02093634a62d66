// Package metrics records adjudication counters in a Prometheus registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

// Metrics holds the adjudicator's collectors.
type Metrics struct {
	reg *prometheus.Registry

	adjudications *prometheus.CounterVec
	paradoxes     *prometheus.CounterVec
	substituted   prometheus.Counter
	dislodged     prometheus.Counter
	passes        prometheus.Histogram
}

// New registers the collectors in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		adjudications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diplomacy",
			Name:      "adjudications_total",
			Help:      "Phases adjudicated, by phase type.",
		}, []string{"phase"}),
		paradoxes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diplomacy",
			Name:      "paradoxes_total",
			Help:      "Paradoxes encountered during movement, by how they were settled.",
		}, []string{"kind"}),
		substituted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diplomacy",
			Name:      "substituted_orders_total",
			Help:      "Orders replaced or synthesized by the adjudicator.",
		}),
		dislodged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diplomacy",
			Name:      "dislodged_units_total",
			Help:      "Units dislodged in movement phases.",
		}),
		passes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "diplomacy",
			Name:      "evaluate_passes",
			Help:      "Evaluation passes needed per phase.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
	m.reg.MustRegister(m.adjudications, m.paradoxes, m.substituted, m.dislodged, m.passes)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe records one adjudicated phase.
func (m *Metrics) Observe(phase diplomacy.PhaseType, s diplomacy.Stats) {
	m.adjudications.WithLabelValues(string(phase)).Inc()
	if s.CircularBreaks > 0 {
		m.paradoxes.WithLabelValues("circular").Add(float64(s.CircularBreaks))
	}
	if s.SzykmanRounds > 0 {
		m.paradoxes.WithLabelValues("szykman").Add(float64(s.SzykmanRounds))
	}
	if s.Unresolved {
		m.paradoxes.WithLabelValues("unresolved").Inc()
	}
	m.substituted.Add(float64(s.Substituted))
	m.dislodged.Add(float64(s.Dislodged))
	m.passes.Observe(float64(s.Passes))
}

// WriteTextfile writes the current values in the node-exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
