package diagnostic

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CombineFunc derives the overall score from the conclusive submetrics. It is never called
// with an empty slice.
type CombineFunc func(submetrics []Submetric) float64

// Combination rule names accepted by CombineByName.
const (
	CombineMinimum         = "minimum"
	CombineAverage         = "average"
	CombineSum             = "sum"
	CombineWeightedAverage = "weighted-average"
)

func scoresOf(submetrics []Submetric) []float64 {
	scores := make([]float64, len(submetrics))
	for i, s := range submetrics {
		scores[i] = s.Score
	}
	return scores
}

// Minimum reports the weakest submetric.
func Minimum(submetrics []Submetric) float64 {
	return slices.Min(scoresOf(submetrics))
}

// Average is the unweighted mean of the submetrics.
func Average(submetrics []Submetric) float64 {
	return stat.Mean(scoresOf(submetrics), nil)
}

// Sum adds the submetrics up.
func Sum(submetrics []Submetric) float64 {
	return floats.Sum(scoresOf(submetrics))
}

// WeightedAverage weighs each submetric by name. Submetrics without a weight count once.
func WeightedAverage(weights map[string]float64) CombineFunc {
	return func(submetrics []Submetric) float64 {
		w := make([]float64, len(submetrics))
		for i, s := range submetrics {
			weight, found := weights[s.Name]
			if !found {
				weight = 1
			}
			w[i] = weight
		}
		if floats.Sum(w) == 0 {
			return 0
		}
		return stat.Mean(scoresOf(submetrics), w)
	}
}

// CombineByName returns the combination rule called name. weights are only used by the
// weighted average.
func CombineByName(name string, weights map[string]float64) (CombineFunc, error) {
	switch name {
	case CombineMinimum:
		return Minimum, nil
	case CombineAverage, "":
		return Average, nil
	case CombineSum:
		return Sum, nil
	case CombineWeightedAverage:
		return WeightedAverage(weights), nil
	}
	return nil, fmt.Errorf("unknown combination rule %q", name)
}
