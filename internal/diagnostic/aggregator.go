// Package diagnostic combines weighted hundred-scale scores into submetrics and an overall
// diagnosis, and samples bounded example sets per category.
package diagnostic

import (
	"coach/internal/facts"
	"coach/internal/metrics"
	"coach/internal/scoring"
	"errors"
	"fmt"
	"iter"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// SubmetricScorer tags a model as a contributor of a submetric.
type SubmetricScorer struct {
	Submetric string  `mapstructure:"submetric"`
	ModelID   string  `mapstructure:"model"`
	Weight    float64 `mapstructure:"weight"`
}

// Validate checks the registration itself. Whether ModelID resolves is checked by
// Aggregator.Validate.
func (s SubmetricScorer) Validate() error {
	if s.Submetric == "" {
		return fmt.Errorf("scorer %s: submetric is required", s.ModelID)
	}
	if s.ModelID == "" {
		return fmt.Errorf("submetric %s: model is required", s.Submetric)
	}
	if s.Weight <= 0 {
		return fmt.Errorf("scorer %s: weight must be positive, got %v", s.ModelID, s.Weight)
	}
	return nil
}

// Submetric is the aggregated score of one named slice of the diagnostic.
type Submetric struct {
	Name string `json:"name"`
	// Score is the weighted average of the contributors, in [0, 100]. It is meaningless
	// when the submetric is not conclusive.
	Score      float64 `json:"score"`
	Conclusive bool    `json:"conclusive"`
	// Contributors are the models that had enough data.
	Contributors []string `json:"contributors,omitempty"`
	// Failures are the models that could not be evaluated for another reason.
	Failures []string `json:"failures,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Diagnostic is the outcome of a full diagnosis.
type Diagnostic struct {
	EvaluationID string `json:"evaluation_id"`
	ProjectID    string `json:"project_id,omitempty"`
	// Overall is the combination of the conclusive submetrics.
	Overall    float64                           `json:"overall"`
	Conclusive bool                              `json:"conclusive"`
	Submetrics []Submetric                       `json:"submetrics"`
	Examples   map[string][]facts.ContentRecord `json:"examples,omitempty"`
}

// Submetric returns the submetric called name.
func (d Diagnostic) Submetric(name string) (Submetric, bool) {
	for _, s := range d.Submetrics {
		if s.Name == name {
			return s, true
		}
	}
	return Submetric{}, false
}

// Aggregator computes diagnostics from the registered submetric scorers.
// Scorers are registered at startup; Diagnose is then safe for concurrent use.
type Aggregator struct {
	registry        *scoring.Registry
	scorers         []SubmetricScorer
	submetrics      []string
	combine         CombineFunc
	exampleCapacity int
	rng             IntN
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithCombine sets the rule deriving the overall score. Defaults to Average.
func WithCombine(combine CombineFunc) Option {
	return func(a *Aggregator) {
		a.combine = combine
	}
}

// WithExampleCapacity sets the number of examples kept per category.
func WithExampleCapacity(capacity int) Option {
	return func(a *Aggregator) {
		a.exampleCapacity = capacity
	}
}

// WithRand sets the random source of example sampling.
func WithRand(rng IntN) Option {
	return func(a *Aggregator) {
		a.rng = rng
	}
}

const defaultExampleCapacity = 3

// NewAggregator creates an aggregator resolving scorers through registry.
func NewAggregator(registry *scoring.Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:        registry,
		combine:         Average,
		exampleCapacity: defaultExampleCapacity,
		rng:             globalRand{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if _, global := a.rng.(globalRand); !global {
		a.rng = &lockedRand{src: a.rng}
	}
	return a
}

// Add registers a scorer. Submetrics are reported in order of first registration.
func (a *Aggregator) Add(scorer SubmetricScorer) error {
	if err := scorer.Validate(); err != nil {
		return err
	}
	for _, existing := range a.scorers {
		if existing.Submetric == scorer.Submetric && existing.ModelID == scorer.ModelID {
			return fmt.Errorf("scorer %s already contributes to %s", scorer.ModelID, scorer.Submetric)
		}
	}
	if !slices.Contains(a.submetrics, scorer.Submetric) {
		a.submetrics = append(a.submetrics, scorer.Submetric)
	}
	a.scorers = append(a.scorers, scorer)
	return nil
}

// Scorers returns the registered scorers.
func (a *Aggregator) Scorers() []SubmetricScorer {
	result := make([]SubmetricScorer, len(a.scorers))
	copy(result, a.scorers)
	return result
}

// Validate checks that every scorer model resolves.
func (a *Aggregator) Validate() error {
	ids := make([]string, len(a.scorers))
	for i, s := range a.scorers {
		ids[i] = s.ModelID
	}
	return a.registry.Validate(ids)
}

// DiagnoseOption customizes one diagnosis.
type DiagnoseOption func(*diagnosis)

type diagnosis struct {
	examples iter.Seq[facts.ContentRecord]
}

// WithExamples samples bounded example sets per category from records. The records are
// expected to be already filtered for the context.
func WithExamples(records iter.Seq[facts.ContentRecord]) DiagnoseOption {
	return func(d *diagnosis) {
		d.examples = records
	}
}

// Diagnose scores every submetric and combines the conclusive ones.
// Scorers without enough data are skipped; a submetric without any contributor is
// inconclusive, and so is the overall score when no submetric is conclusive.
func (a *Aggregator) Diagnose(ctx *scoring.Context, opts ...DiagnoseOption) Diagnostic {
	var d diagnosis
	for _, opt := range opts {
		opt(&d)
	}

	result := Diagnostic{
		EvaluationID: ctx.ID,
		ProjectID:    ctx.Project.ID,
		Submetrics:   make([]Submetric, 0, len(a.submetrics)),
	}
	var conclusive []Submetric
	for _, name := range a.submetrics {
		submetric := a.scoreSubmetric(ctx, name)
		if submetric.Conclusive {
			conclusive = append(conclusive, submetric)
		} else {
			metrics.InconclusiveSubmetrics.WithLabelValues(name).Inc()
		}
		result.Submetrics = append(result.Submetrics, submetric)
	}
	if len(conclusive) > 0 {
		result.Overall = a.combine(conclusive)
		result.Conclusive = true
	}

	if d.examples != nil {
		sampler := NewSampler[facts.ContentRecord](a.exampleCapacity, a.rng)
		SampleSeq(sampler, d.examples, func(r facts.ContentRecord) string {
			return r.Category
		})
		result.Examples = sampler.Samples()
	}
	return result
}

func (a *Aggregator) scoreSubmetric(ctx *scoring.Context, name string) Submetric {
	submetric := Submetric{Name: name}
	var scores, weights []float64
	for _, scorer := range a.scorers {
		if scorer.Submetric != name {
			continue
		}
		result, err := a.hundredScore(ctx, scorer.ModelID)
		switch {
		case err == nil:
		case errors.Is(err, scoring.ErrNotEnoughData):
			ctx.Logger().Debug("Scorer lacks data", "submetric", name, "model", scorer.ModelID)
			continue
		case errors.Is(err, scoring.ErrUnknownModel):
			submetric.Failures = append(submetric.Failures, scorer.ModelID)
			continue
		default:
			ctx.Logger().Error("scorer eval", "submetric", name, "model", scorer.ModelID, "error", err)
			metrics.ModelErrors.Inc()
			submetric.Failures = append(submetric.Failures, scorer.ModelID)
			continue
		}
		scores = append(scores, result.Score)
		weights = append(weights, scorer.Weight)
		submetric.Contributors = append(submetric.Contributors, scorer.ModelID)
		submetric.Reasons = append(submetric.Reasons, result.Reasons...)
	}
	if len(scores) > 0 {
		submetric.Score = stat.Mean(scores, weights)
		submetric.Conclusive = true
	}
	return submetric
}

// hundredScore reads the unscaled value of hundred-scale models and rescales the others.
func (a *Aggregator) hundredScore(ctx *scoring.Context, id string) (scoring.Result, error) {
	return scoring.Cached(ctx, "hundred:"+id, func() (scoring.Result, error) {
		model := a.registry.Resolve(id)
		if model == nil {
			return scoring.Result{}, fmt.Errorf("%w: %s", scoring.ErrUnknownModel, id)
		}
		if scorer, ok := model.(scoring.HundredScorer); ok {
			return scorer.Score100(ctx)
		}
		result, err := model.Score(ctx)
		if err != nil {
			return scoring.Result{}, err
		}
		result.Score = 100 * result.Score / scoring.MaxScore
		return result, nil
	})
}
