// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all engine metrics.
type Registry struct {
	reg *prometheus.Registry

	// Evaluations counts finished single-ticker evaluations by outcome.
	Evaluations *prometheus.CounterVec
	// GateResults counts gate pass/fail by gate name.
	GateResults *prometheus.CounterVec
	// EvaluationDuration tracks end-to-end evaluation latency.
	EvaluationDuration prometheus.Histogram
	// RetrievalDuration tracks the similarity retrieval step, the one
	// I/O-bound stage of an evaluation.
	RetrievalDuration prometheus.Histogram
	// RetrievalDegraded counts retrievals that fell back to an empty or
	// partial context.
	RetrievalDegraded prometheus.Counter
	// BatchSize reports the ticker count of the latest batch scan.
	BatchSize prometheus.Gauge
	// ActiveEvaluations reports in-flight evaluations.
	ActiveEvaluations prometheus.Gauge
}

// NewRegistry builds and registers all engine metrics on a private
// Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantrun_evaluations_total",
				Help: "Finished evaluations by final action and failure flag",
			},
			[]string{"action", "failed"},
		),
		GateResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantrun_gate_results_total",
				Help: "Gate outcomes by gate name and result",
			},
			[]string{"gate", "result"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quantrun_evaluation_duration_seconds",
				Help:    "End-to-end single ticker evaluation latency",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		RetrievalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quantrun_retrieval_duration_seconds",
				Help:    "Historical context retrieval latency",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		RetrievalDegraded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quantrun_retrieval_degraded_total",
				Help: "Retrievals that degraded to an empty or partial context",
			},
		),
		BatchSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantrun_batch_size",
				Help: "Ticker count of the latest batch scan",
			},
		),
		ActiveEvaluations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantrun_active_evaluations",
				Help: "Evaluations currently in flight",
			},
		),
	}

	r.reg.MustRegister(
		r.Evaluations,
		r.GateResults,
		r.EvaluationDuration,
		r.RetrievalDuration,
		r.RetrievalDegraded,
		r.BatchSize,
		r.ActiveEvaluations,
	)
	return r
}

// Gatherer exposes the underlying registry for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// CounterValue reads a counter family back out of the registry, summed over
// label sets. Used by the health endpoint and tests.
func (r *Registry) CounterValue(name string) float64 {
	families, err := r.reg.Gather()
	if err != nil {
		return 0
	}
	var total float64
	for _, fam := range families {
		if fam.GetName() != name || fam.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
