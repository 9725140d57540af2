// Package models holds the built-in catalogue of scoring models.
//
// Nothing is registered at import time: RegisterAll is called explicitly at startup,
// before the registry is used concurrently.
package models

import (
	"coach/internal/scoring"
	"errors"
)

type literal struct {
	id    string
	model scoring.Model
}

type patternRule struct {
	expr    string
	factory scoring.PatternFactory
	example string
}

func literals() []literal {
	return []literal{
		{"for-active-search", scoring.Filter(activeSearch)},
		{"for-unemployed", scoring.Filter(unemployed)},
		{"for-stressed-market", scoring.Filter(stressedMarket, "Il y a beaucoup de concurrence pour ce métier")},
		{"for-unstressed-market", scoring.Filter(unstressedMarket, "Il y a peu de concurrence pour ce métier")},
		{"for-experienced", scoring.Filter(experienced)},
		{"diag-market-stress", scoring.HundredScale(scoring.HundredScorerFunc(marketStressDiagnostic))},
		{"diag-search-length", scoring.HundredScale(scoring.HundredScorerFunc(searchLengthDiagnostic))},
		{"diag-profile-completeness", scoring.HundredScale(scoring.HundredScorerFunc(profileCompletenessDiagnostic))},
		{"diag-strategy-count", scoring.HundredScale(scoring.HundredScorerFunc(strategyCountDiagnostic))},
	}
}

func patterns() []patternRule {
	return []patternRule{
		{`not-(.+)`, negated, "not-for-active-search"},
		{`for-job-group\((.+)\)`, jobGroups, "for-job-group(M16,A12)"},
		{`for-departement\((.+)\)`, departements, "for-departement(31,75)"},
		{`for-active-experiment\((.+)\)`, activeExperiment, "for-active-experiment(show_testimonials)"},
		{`favor-strategy\((.+)\)`, favorStrategy, "favor-strategy(network,spontaneous)"},
		{`for-old\((\d+)\)`, olderThan, "for-old(50)"},
		{`for-young\((\d+)\)`, youngerThan, "for-young(25)"},
		{`for-search-longer-than\((\d+)\)`, searchLongerThan, "for-search-longer-than(6)"},
		{`constant\(([0-3](?:\.\d+)?)\)`, constant, "constant(1.5)"},
	}
}

// RegisterAll registers the built-in literal models and patterns.
func RegisterAll(reg *scoring.Registry) error {
	var errs []error
	for _, l := range literals() {
		errs = append(errs, reg.Register(l.id, l.model))
	}
	for _, p := range patterns() {
		errs = append(errs, reg.RegisterPattern(p.expr, p.factory, p.example))
	}
	return errors.Join(errs...)
}

// verdict turns a boolean check into a filter result.
func verdict(ok bool, reasons ...string) (scoring.Result, error) {
	if !ok {
		return scoring.Result{}, nil
	}
	return scoring.Result{Score: scoring.MaxScore, Reasons: reasons}, nil
}
