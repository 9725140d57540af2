package scoring

import (
	"coach/internal/metrics"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// unresolvedCacheSize bounds the number of unresolvable identifiers remembered, since
// callers may submit arbitrary identifiers.
const unresolvedCacheSize = 1024

// PatternFactory builds the model of an identifier matched by a pattern. args holds the
// capture groups of the match. The registry is passed explicitly so that factories may
// resolve the identifiers they reference; factories must not depend on anything else.
// Returning nil means the identifier cannot be resolved.
type PatternFactory func(reg *Registry, args []string) Model

type pattern struct {
	source  string
	expr    *regexp.Regexp
	factory PatternFactory
	example string
}

// Registry maps model identifiers to models.
//
// Literal models are registered once at startup. Parametrized identifiers are resolved
// on first use through the registered patterns and memoised for the process lifetime.
// Failures are kept in a bounded LRU so that each is logged once while it stays there.
// After startup the registry is read-mostly and safe for concurrent
// use: concurrent first uses of the same identifier build its model at most once.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	literals map[string]Model
	patterns []pattern
	resolved map[string]Model

	unresolved *lru.Cache[string, struct{}]
	building   singleflight.Group
}

// NewRegistry creates an empty registry. A nil logger means slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	// lru.New only fails on a non-positive size.
	unresolved, _ := lru.New[string, struct{}](unresolvedCacheSize)
	return &Registry{
		logger:     logger,
		literals:   make(map[string]Model),
		resolved:   make(map[string]Model),
		unresolved: unresolved,
	}
}

// Register adds a literal model. Identifiers are unique.
func (r *Registry) Register(id string, model Model) error {
	if model == nil {
		return fmt.Errorf("registering %s: nil model", id)
	}
	if _, _, err := ParseIdentifier(id); err != nil {
		return fmt.Errorf("registering %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.literals[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, id)
	}
	r.literals[id] = model
	return nil
}

// MustRegister is Register panicking on error. Only use it at startup.
func (r *Registry) MustRegister(id string, model Model) {
	if err := r.Register(id, model); err != nil {
		panic(err)
	}
}

// RegisterPattern adds a pattern rule. expr is anchored on both ends; example is a
// canonical identifier the pattern must match, checked here and by SelfTest.
func (r *Registry) RegisterPattern(expr string, factory PatternFactory, example string) error {
	if factory == nil {
		return fmt.Errorf("registering pattern %s: nil factory", expr)
	}
	compiled, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return fmt.Errorf("registering pattern %s: %w", expr, err)
	}
	if !compiled.MatchString(example) {
		return fmt.Errorf("registering pattern %s: example %q does not match", expr, example)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patterns {
		if p.source == expr {
			return fmt.Errorf("%w: pattern %s", ErrDuplicateModel, expr)
		}
	}
	r.patterns = append(r.patterns, pattern{
		source:  expr,
		expr:    compiled,
		factory: factory,
		example: example,
	})
	return nil
}

// MustRegisterPattern is RegisterPattern panicking on error. Only use it at startup.
func (r *Registry) MustRegisterPattern(expr string, factory PatternFactory, example string) {
	if err := r.RegisterPattern(expr, factory, example); err != nil {
		panic(err)
	}
}

// Resolve returns the model of an identifier, or nil when nothing can build it.
// Literal models win over patterns; patterns are tried in registration order and the
// first match builds the model. Unresolvable identifiers are logged once.
func (r *Registry) Resolve(id string) Model {
	r.mu.RLock()
	model, found := r.literals[id]
	if !found {
		model, found = r.resolved[id]
	}
	r.mu.RUnlock()
	if found {
		return model
	}
	if r.unresolved.Contains(id) {
		return nil
	}

	built, _, _ := r.building.Do(id, func() (any, error) {
		r.mu.RLock()
		model, found := r.resolved[id]
		r.mu.RUnlock()
		if found {
			return model, nil
		}
		if r.unresolved.Contains(id) {
			return nil, nil
		}

		model = r.build(id)
		if model == nil {
			r.unresolved.Add(id, struct{}{})
			r.logger.Warn("Unable to resolve model", "model", id)
			metrics.UnresolvedModels.Inc()
			return nil, nil
		}

		r.mu.Lock()
		r.resolved[id] = model
		r.mu.Unlock()
		return model, nil
	})
	model, _ = built.(Model)
	return model
}

func (r *Registry) build(id string) Model {
	r.mu.RLock()
	patterns := slices.Clone(r.patterns)
	r.mu.RUnlock()

	for _, p := range patterns {
		match := p.expr.FindStringSubmatch(id)
		if match == nil {
			continue
		}
		return p.factory(r, match[1:])
	}
	return nil
}

// Identifiers returns the literal identifiers, sorted.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.literals))
	for id := range r.literals {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Examples returns the canonical example of every pattern, in registration order.
func (r *Registry) Examples() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	examples := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		examples[i] = p.example
	}
	return examples
}

// SelfTest checks the consistency of the patterns: every example must match its own
// pattern and resolve to a model, and an example matched by several patterns must build
// the same model from each of them. It is meant to run at startup, before serving.
func (r *Registry) SelfTest() error {
	r.mu.RLock()
	patterns := slices.Clone(r.patterns)
	r.mu.RUnlock()

	var errs []error
	for i, p := range patterns {
		match := p.expr.FindStringSubmatch(p.example)
		if match == nil {
			errs = append(errs, fmt.Errorf("pattern %s: example %q does not match", p.source, p.example))
			continue
		}
		model := p.factory(r, match[1:])
		if model == nil {
			errs = append(errs, fmt.Errorf("pattern %s: example %q builds no model", p.source, p.example))
			continue
		}
		if r.Resolve(p.example) == nil {
			errs = append(errs, fmt.Errorf("pattern %s: example %q does not resolve", p.source, p.example))
		}

		for j, other := range patterns {
			if i == j {
				continue
			}
			otherMatch := other.expr.FindStringSubmatch(p.example)
			if otherMatch == nil {
				continue
			}
			if !reflect.DeepEqual(model, other.factory(r, otherMatch[1:])) {
				errs = append(errs, fmt.Errorf("%w: %q matches %s and %s", ErrAmbiguousPattern, p.example, p.source, other.source))
			}
		}
	}
	return errors.Join(errs...)
}

// Validate checks that every identifier resolves to a model.
// It returns an *UnresolvedModelsError listing the ones that do not.
func (r *Registry) Validate(ids []string) error {
	var unresolved []string
	for _, id := range ids {
		if r.Resolve(id) == nil && !slices.Contains(unresolved, id) {
			unresolved = append(unresolved, id)
		}
	}
	if len(unresolved) > 0 {
		return &UnresolvedModelsError{IDs: unresolved}
	}
	return nil
}
