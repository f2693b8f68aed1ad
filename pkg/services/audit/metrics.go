package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Failure reasons reported by the cluster failure counter.
const (
	ReasonDescribe = "describe"
	ReasonArchive  = "archive"
	ReasonLookup   = "lookup"
	ReasonEvaluate = "evaluate"
	ReasonPublish  = "publish"
)

type Metrics struct {
	runDuration       prometheus.Histogram
	clustersEvaluated prometheus.Counter
	clusterFailures   *prometheus.CounterVec
	recommendations   *prometheus.CounterVec
	enumerationErrors prometheus.Counter
}

// NewMetrics creates the audit metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spark_advisor_run_duration_seconds",
				Help:    "Time taken to audit every cluster of a target",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		clustersEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spark_advisor_clusters_evaluated_total",
				Help: "Total number of clusters whose configuration was evaluated",
			},
		),
		clusterFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spark_advisor_cluster_failures_total",
				Help: "Total number of clusters that could not be audited",
			},
			[]string{"reason"}, // archive, lookup, evaluate, publish
		),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spark_advisor_recommendations_total",
				Help: "Total number of recommendations emitted",
			},
			[]string{"property"},
		),
		enumerationErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spark_advisor_enumeration_errors_total",
				Help: "Total number of runs aborted by a cluster listing failure",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.runDuration, m.clustersEvaluated, m.clusterFailures, m.recommendations, m.enumerationErrors)
	}
	return m
}
