package models

import (
	"coach/internal/scoring"
	"math"
)

// Hundred-scale diagnostic scorers. Each returns a value in [0, 100] and a short
// explanation; missing facts propagate as scoring.ErrNotEnoughData.

const (
	// Market stress at or below which the market is perfect, and at or above which it is
	// hopeless.
	relaxedMarketStress   = 0.5
	saturatedMarketStress = 4.0

	// Search length in months at or below which the search is fresh, and at or above which
	// it is considered stalled.
	freshSearchMonths   = 3.0
	stalledSearchMonths = 18.0

	fullStrategyCount = 4
)

// linearDecay maps value to 100 at or below best, 0 at or above worst.
func linearDecay(value, best, worst float64) float64 {
	ratio := (worst - value) / (worst - best)
	return 100 * math.Max(0, math.Min(1, ratio))
}

func marketStressDiagnostic(ctx *scoring.Context) (scoring.Result, error) {
	stress, err := ctx.MarketStress()
	if err != nil {
		return scoring.Result{}, err
	}
	result := scoring.Result{Score: linearDecay(stress, relaxedMarketStress, saturatedMarketStress)}
	switch {
	case stress >= stressedMarketThreshold:
		result.Reasons = []string{"Le marché est très concurrentiel"}
	case stress <= unstressedMarketThreshold:
		result.Reasons = []string{"Le marché recrute"}
	}
	return result, nil
}

func searchLengthDiagnostic(ctx *scoring.Context) (scoring.Result, error) {
	months, err := ctx.SearchLengthNow()
	if err != nil {
		return scoring.Result{}, err
	}
	result := scoring.Result{Score: linearDecay(months, freshSearchMonths, stalledSearchMonths)}
	if months >= stalledSearchMonths {
		result.Reasons = []string{"Votre recherche dure depuis longtemps"}
	}
	return result, nil
}

// profileCompletenessDiagnostic measures how much of the profile the other models can use.
// It always has data: an empty profile is a valid answer.
func profileCompletenessDiagnostic(ctx *scoring.Context) (scoring.Result, error) {
	fields := []bool{
		ctx.Project.JobGroupID != "",
		ctx.Project.DepartementID != "" || ctx.Project.CityID != "",
		ctx.Project.JobSearchHasNotStarted || !ctx.Project.JobSearchStartedAt.IsZero(),
		ctx.Project.Seniority > 0,
		ctx.User.YearOfBirth > 0,
		ctx.User.HighestDegree != "",
		ctx.User.Situation != "",
	}
	filled := 0
	for _, ok := range fields {
		if ok {
			filled++
		}
	}
	result := scoring.Result{Score: 100 * float64(filled) / float64(len(fields))}
	if filled < len(fields) {
		result.Reasons = []string{"Votre profil est incomplet"}
	}
	return result, nil
}

func strategyCountDiagnostic(ctx *scoring.Context) (scoring.Result, error) {
	count := min(len(ctx.Project.Strategies), fullStrategyCount)
	result := scoring.Result{Score: 100 * float64(count) / fullStrategyCount}
	if count == 0 {
		result.Reasons = []string{"Vous n'avez pas encore choisi de stratégie"}
	}
	return result, nil
}
