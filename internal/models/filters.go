package models

import (
	"coach/internal/scoring"
	"fmt"
)

const (
	stressedMarketThreshold   = 2.0
	unstressedMarketThreshold = 0.5
	experiencedSeniority      = 3
)

func activeSearch(ctx *scoring.Context) (bool, error) {
	return !ctx.Project.JobSearchHasNotStarted, nil
}

func unemployed(ctx *scoring.Context) (bool, error) {
	return ctx.User.Situation == scoring.SituationUnemployed, nil
}

func stressedMarket(ctx *scoring.Context) (bool, error) {
	stress, err := ctx.MarketStress()
	if err != nil {
		return false, err
	}
	return stress >= stressedMarketThreshold, nil
}

func unstressedMarket(ctx *scoring.Context) (bool, error) {
	stress, err := ctx.MarketStress()
	if err != nil {
		return false, err
	}
	return stress <= unstressedMarketThreshold, nil
}

func experienced(ctx *scoring.Context) (bool, error) {
	if ctx.Project.Seniority == 0 {
		return false, fmt.Errorf("%w: seniority unknown", scoring.ErrNotEnoughData)
	}
	return ctx.Project.Seniority >= experiencedSeniority, nil
}
