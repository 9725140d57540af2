// Package metrics exposes prometheus counters for the scoring engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnresolvedModels counts identifiers that matched no literal model and no pattern.
	// Each identifier is counted once per process since failed resolutions are memoised.
	UnresolvedModels = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_models_unresolved_total",
			Help: "Number of model identifiers that could not be resolved",
		},
	)

	// FilterEvaluations counts filter list evaluations by outcome ("pass" or "fail").
	FilterEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_filter_evaluations_total",
			Help: "Number of filter lists evaluated, by outcome",
		},
		[]string{"outcome"},
	)

	// ModelErrors counts model evaluations that failed for another reason than missing data.
	ModelErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_model_errors_total",
			Help: "Number of model evaluations that returned an error",
		},
	)

	// InconclusiveSubmetrics counts submetrics reported without enough data.
	InconclusiveSubmetrics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_submetrics_inconclusive_total",
			Help: "Number of diagnostic submetrics without any contributing scorer",
		},
		[]string{"submetric"},
	)
)

// Outcome labels for FilterEvaluations.
const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)
