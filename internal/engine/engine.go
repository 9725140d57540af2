// Package engine is the caller-facing facade of the scoring engine: single model scores,
// filtered content lists and full diagnostics.
package engine

import (
	"coach/internal/audit"
	"coach/internal/configuration"
	"coach/internal/diagnostic"
	"coach/internal/facts"
	"coach/internal/scoring"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
)

// Content collections gated by filter lists.
const (
	AdviceModulesCollection       = "advice_modules"
	JobBoardsCollection           = "job_boards"
	AssociationsCollection        = "associations"
	DiagnosticSentencesCollection = "diagnostic_sentences"
	TestimonialsCollection        = "testimonials"
)

// ContentCollections lists every collection whose filters are checked at startup.
var ContentCollections = []string{
	AdviceModulesCollection,
	JobBoardsCollection,
	AssociationsCollection,
	DiagnosticSentencesCollection,
	TestimonialsCollection,
}

// Record is a content record that passed its filters for a context, with its template
// populated.
type Record struct {
	facts.ContentRecord
	Text string `json:"text,omitempty"`
}

// lockedRand shares one seeded source between concurrent requests.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed uint64) *lockedRand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &lockedRand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *lockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}

// Engine evaluates requests against a shared registry and fact store.
// It is safe for concurrent use once built; every request gets its own scoring.Context.
type Engine struct {
	config     configuration.EngineConfig
	registry   *scoring.Registry
	evaluator  *scoring.Evaluator
	aggregator *diagnostic.Aggregator
	store      facts.Store
	translator facts.Translator
	trail      audit.Trail
	logger     *slog.Logger
	rng        *lockedRand
}

// New creates an engine. The registry must be fully populated: New registers the
// configured diagnostic scorers but no model. A nil trail discards diagnostics and a nil
// logger means slog.Default().
func New(config configuration.EngineConfig, registry *scoring.Registry, store facts.Store, logger *slog.Logger, trail audit.Trail) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if trail == nil {
		trail = audit.Discard{}
	}
	combine, err := diagnostic.CombineByName(config.Combine, config.SubmetricWeights)
	if err != nil {
		return nil, err
	}
	capacity := config.ExampleCapacity
	if capacity <= 0 {
		capacity = 3
	}

	rng := newLockedRand(config.Seed)
	aggregator := diagnostic.NewAggregator(registry,
		diagnostic.WithCombine(combine),
		diagnostic.WithExampleCapacity(capacity),
		diagnostic.WithRand(rng),
	)
	for _, scorer := range config.Scorers {
		if err := aggregator.Add(scorer); err != nil {
			return nil, err
		}
	}

	return &Engine{
		config:     config,
		registry:   registry,
		evaluator:  scoring.NewEvaluator(registry),
		aggregator: aggregator,
		store:      store,
		translator: facts.NewStoreTranslator(store),
		trail:      trail,
		logger:     logger,
		rng:        rng,
	}, nil
}

// NewContext creates the scoring context of one request.
func (e *Engine) NewContext(project scoring.Project, user scoring.User, features scoring.Features, opts ...scoring.ContextOption) *scoring.Context {
	opts = append([]scoring.ContextOption{
		scoring.WithTranslator(e.translator),
		scoring.WithLogger(e.logger),
	}, opts...)
	return scoring.NewContext(project, user, features, e.store, opts...)
}

// Score scores a single model. Unknown models get the configured fallback score with a
// warning rather than an error; missing data is returned as scoring.ErrNotEnoughData.
func (e *Engine) Score(ctx *scoring.Context, id string) (scoring.Result, error) {
	result, err := e.evaluator.Score(ctx, id)
	if errors.Is(err, scoring.ErrUnknownModel) {
		ctx.Logger().Warn("Unknown model, using fallback score", "model", id, "score", e.config.FallbackScore)
		return scoring.Result{Score: e.config.FallbackScore}, nil
	}
	return result, err
}

// records lazily decodes the content records of a collection. Records that fail to decode
// are logged and skipped.
func (e *Engine) records(collection string) iter.Seq[facts.ContentRecord] {
	return func(yield func(facts.ContentRecord) bool) {
		for record, err := range facts.Records(e.store.Find(collection, nil)) {
			if err != nil {
				e.logger.Error("record decode", "collection", collection, "error", err)
				continue
			}
			if !yield(record) {
				return
			}
		}
	}
}

func filtersOf(r facts.ContentRecord) []string {
	return r.Filters
}

func priorityOf(r facts.ContentRecord) float64 {
	return r.Priority
}

// sorted returns the records of a collection by decreasing priority then specificity,
// ties in random order.
func (e *Engine) sorted(collection string) []facts.ContentRecord {
	records := slices.Collect(e.records(collection))
	scoring.SortBySpecificity(records, filtersOf, priorityOf, e.rng)
	return records
}

// matching yields the records passing their filters with their template populated.
// Records whose template cannot be populated are logged and dropped.
func (e *Engine) matching(ctx *scoring.Context, records iter.Seq[facts.ContentRecord]) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for record := range scoring.FilterCollection(e.evaluator, ctx, records, filtersOf) {
			result := Record{ContentRecord: record}
			if record.Template != "" {
				text, err := ctx.PopulateTemplate(record.Template)
				if err != nil {
					ctx.Logger().Warn("Unable to populate template", "record", record.ID, "error", err)
					continue
				}
				result.Text = text
			}
			if !yield(result) {
				return
			}
		}
	}
}

// FilterRecords returns the records of a collection passing their filters for ctx, most
// specific first.
func (e *Engine) FilterRecords(ctx *scoring.Context, collection string) []Record {
	return slices.Collect(e.matching(ctx, slices.Values(e.sorted(collection))))
}

// BestRecord returns the most specific record of a collection passing its filters.
func (e *Engine) BestRecord(ctx *scoring.Context, collection string) (Record, bool) {
	for record := range e.matching(ctx, slices.Values(e.sorted(collection))) {
		return record, true
	}
	return Record{}, false
}

// Diagnose computes the full diagnostic of ctx, with bounded example testimonials per
// category, and appends it to the audit trail.
func (e *Engine) Diagnose(ctx *scoring.Context) diagnostic.Diagnostic {
	examples := scoring.FilterCollection(e.evaluator, ctx, e.records(TestimonialsCollection), filtersOf)
	d := e.aggregator.Diagnose(ctx, diagnostic.WithExamples(examples))
	e.trail.Append(d)
	return d
}

// Check verifies the registry patterns, the diagnostic scorers and the filters of every
// content record. It is meant to run at startup: any error is fatal.
func (e *Engine) Check() error {
	var errs []error
	if err := e.registry.SelfTest(); err != nil {
		errs = append(errs, fmt.Errorf("self test: %w", err))
	}
	if err := e.aggregator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("diagnostic scorers: %w", err))
	}
	for _, collection := range ContentCollections {
		var ids []string
		for record := range e.records(collection) {
			ids = append(ids, record.Filters...)
		}
		if err := e.registry.Validate(ids); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", collection, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the audit trail.
func (e *Engine) Close() error {
	return e.trail.Close()
}
