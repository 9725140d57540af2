package models

import (
	"coach/internal/scoring"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Pattern models are plain comparable values so that the registry self-test can tell
// whether two patterns build the same model for an identifier.

func negated(reg *scoring.Registry, args []string) scoring.Model {
	inner := reg.Resolve(args[0])
	if inner == nil {
		return nil
	}
	return scoring.Negate(inner)
}

type jobGroupFilter struct {
	prefixes []string
}

func jobGroups(_ *scoring.Registry, args []string) scoring.Model {
	prefixes := scoring.SplitArgs(args[0])
	if len(prefixes) == 0 || slices.Contains(prefixes, "") {
		return nil
	}
	return jobGroupFilter{prefixes: prefixes}
}

func (f jobGroupFilter) Score(ctx *scoring.Context) (scoring.Result, error) {
	jobGroup := ctx.Project.JobGroupID
	if jobGroup == "" {
		return scoring.Result{}, fmt.Errorf("%w: no job group", scoring.ErrNotEnoughData)
	}
	return verdict(slices.ContainsFunc(f.prefixes, func(prefix string) bool {
		return strings.HasPrefix(jobGroup, prefix)
	}))
}

type departementFilter struct {
	departements []string
}

func departements(_ *scoring.Registry, args []string) scoring.Model {
	ids := scoring.SplitArgs(args[0])
	if len(ids) == 0 || slices.Contains(ids, "") {
		return nil
	}
	return departementFilter{departements: ids}
}

func (f departementFilter) Score(ctx *scoring.Context) (scoring.Result, error) {
	if ctx.Project.DepartementID == "" {
		return scoring.Result{}, fmt.Errorf("%w: no departement", scoring.ErrNotEnoughData)
	}
	return verdict(slices.Contains(f.departements, ctx.Project.DepartementID))
}

type experimentFilter struct {
	flag string
}

func activeExperiment(_ *scoring.Registry, args []string) scoring.Model {
	flag := strings.TrimSpace(args[0])
	if flag == "" || strings.Contains(flag, ",") {
		return nil
	}
	return experimentFilter{flag: flag}
}

func (f experimentFilter) Score(ctx *scoring.Context) (scoring.Result, error) {
	return verdict(ctx.Features.Enabled(f.flag))
}

// strategyPreference is graded: chosen strategies score the maximum, anything else keeps a
// low but positive score so the record still passes as a filter.
type strategyPreference struct {
	strategies []string
}

const unfavoredStrategyScore = 1.0

func favorStrategy(_ *scoring.Registry, args []string) scoring.Model {
	strategies := scoring.SplitArgs(args[0])
	if len(strategies) == 0 {
		return nil
	}
	return strategyPreference{strategies: strategies}
}

func (m strategyPreference) Score(ctx *scoring.Context) (scoring.Result, error) {
	for _, strategy := range m.strategies {
		if slices.Contains(ctx.Project.Strategies, strategy) {
			return scoring.Result{Score: scoring.MaxScore, Reasons: []string{"Vous avez choisi la stratégie " + strategy}}, nil
		}
	}
	return scoring.Result{Score: unfavoredStrategyScore}, nil
}

type ageFilter struct {
	threshold int
	older     bool
}

func ageThreshold(args []string, older bool) scoring.Model {
	threshold, err := strconv.Atoi(args[0])
	if err != nil {
		return nil
	}
	return ageFilter{threshold: threshold, older: older}
}

func olderThan(_ *scoring.Registry, args []string) scoring.Model {
	return ageThreshold(args, true)
}

func youngerThan(_ *scoring.Registry, args []string) scoring.Model {
	return ageThreshold(args, false)
}

func (f ageFilter) Score(ctx *scoring.Context) (scoring.Result, error) {
	age, err := ctx.Age()
	if err != nil {
		return scoring.Result{}, err
	}
	if f.older {
		return verdict(age >= f.threshold)
	}
	return verdict(age < f.threshold)
}

type searchLengthFilter struct {
	months int
}

func searchLongerThan(_ *scoring.Registry, args []string) scoring.Model {
	months, err := strconv.Atoi(args[0])
	if err != nil {
		return nil
	}
	return searchLengthFilter{months: months}
}

func (f searchLengthFilter) Score(ctx *scoring.Context) (scoring.Result, error) {
	length, err := ctx.SearchLengthNow()
	if err != nil {
		return scoring.Result{}, err
	}
	return verdict(length > float64(f.months))
}

func constant(_ *scoring.Registry, args []string) scoring.Model {
	score, err := strconv.ParseFloat(args[0], 64)
	if err != nil || score > scoring.MaxScore {
		return nil
	}
	return scoring.Constant(score)
}
