package scoring

import (
	"cmp"
	"coach/internal/metrics"
	"errors"
	"fmt"
	"iter"
	"slices"
)

// Evaluator scores model identifiers against contexts and evaluates filter lists.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator creates an evaluator resolving identifiers through registry.
func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Registry returns the registry identifiers are resolved with.
func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// Score resolves id and scores it against ctx. The result, error included, is memoised in
// the context: records sharing a filter evaluate it once per request.
func (e *Evaluator) Score(ctx *Context, id string) (Result, error) {
	return Cached(ctx, "model:"+id, func() (Result, error) {
		model := e.registry.Resolve(id)
		if model == nil {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
		}
		return model.Score(ctx)
	})
}

// Passes reports whether every filter scores strictly positive against ctx.
// Evaluation stops at the first failing filter. Unresolvable identifiers, missing data and
// model errors all count as failures; errors are logged and never abort the caller.
func (e *Evaluator) Passes(ctx *Context, filters []string) bool {
	for _, id := range filters {
		result, err := e.Score(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotEnoughData):
			ctx.Logger().Debug("Filter lacks data", "filter", id, "error", err)
		case errors.Is(err, ErrUnknownModel):
			// Already reported once by the registry.
		default:
			ctx.Logger().Error("filter eval", "filter", id, "error", err)
			metrics.ModelErrors.Inc()
		}
		if err != nil || result.Score <= 0 {
			metrics.FilterEvaluations.WithLabelValues(metrics.OutcomeFail).Inc()
			return false
		}
	}
	metrics.FilterEvaluations.WithLabelValues(metrics.OutcomePass).Inc()
	return true
}

// FilterCollection lazily yields the records whose filters pass. The input is walked
// once, forward only, and never materialised.
func FilterCollection[T any](e *Evaluator, ctx *Context, records iter.Seq[T], filtersOf func(T) []string) iter.Seq[T] {
	return func(yield func(T) bool) {
		for record := range records {
			if !e.Passes(ctx, filtersOf(record)) {
				continue
			}
			if !yield(record) {
				return
			}
		}
	}
}

// Specificity is the number of filters of a record: how narrowly it is targeted.
func Specificity(filters []string) int {
	return len(filters)
}

// Shuffler randomises the order of n elements. *rand.Rand of math/rand/v2 implements it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// SortBySpecificity orders records so that, for equal priority, more specific records come
// before less specific ones, so a general record never shadows a specific one that would
// match the same context. priorityOf may be nil; when set, higher priorities come first
// and dominate specificity. Ties are broken randomly when rng is not nil.
func SortBySpecificity[T any](records []T, filtersOf func(T) []string, priorityOf func(T) float64, rng Shuffler) {
	if rng != nil {
		rng.Shuffle(len(records), func(i, j int) {
			records[i], records[j] = records[j], records[i]
		})
	}
	slices.SortStableFunc(records, func(a, b T) int {
		if priorityOf != nil {
			if c := cmp.Compare(priorityOf(b), priorityOf(a)); c != 0 {
				return c
			}
		}
		return cmp.Compare(Specificity(filtersOf(b)), Specificity(filtersOf(a)))
	})
}

// FirstMatch returns the first record of an ordered slice whose filters pass.
func FirstMatch[T any](e *Evaluator, ctx *Context, records []T, filtersOf func(T) []string) (T, bool) {
	for record := range FilterCollection(e, ctx, slices.Values(records), filtersOf) {
		return record, true
	}
	var zero T
	return zero, false
}
