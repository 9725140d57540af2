// Package rule implements declarative models: CEL conditions over the facts of a scoring
// context, loaded from YAML.
package rule

import (
	"coach/internal/scoring"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Rule is a model defined by a CEL condition.
// The When field holds a boolean CEL expression over the user, project, market and
// features variables. The CEL program is compiled when Init is called and used by Score.
type Rule struct {
	// ID is the model identifier the rule is registered under.
	ID string `yaml:"id"`
	// When is the CEL expression defining the rule trigger condition.
	// Must return a boolean value.
	When string `yaml:"when"`
	// Then is the score of a passing rule. Defaults to the maximum score of the scale.
	Then *float64 `yaml:"score"`
	// Reasons are attached to passing results.
	Reasons []string `yaml:"reasons"`
	// Hundred puts Then on a 0-100 scale.
	Hundred bool `yaml:"hundred"`

	program cel.Program
}

// NewEnv creates the CEL environment rules are compiled against.
func NewEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("user", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("project", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("market", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("features", cel.MapType(cel.StringType, cel.BoolType)),
		cel.CrossTypeNumericComparisons(true),
	)
}

// Init compiles the string expression in the When field into an executable CEL program
// using the provided env environment.
// In case of syntax or semantic errors, returns the corresponding error.
func (r *Rule) Init(env *cel.Env) error {
	if _, _, err := scoring.ParseIdentifier(r.ID); err != nil {
		return err
	}
	if r.Then != nil {
		limit := scoring.MaxScore
		if r.Hundred {
			limit = 100
		}
		if *r.Then < 0 || *r.Then > limit {
			return fmt.Errorf("rule %s: score %v out of [0, %v]", r.ID, *r.Then, limit)
		}
	}

	ast, iss := env.Parse(r.When)
	if iss.Err() != nil {
		return fmt.Errorf("rule %s: %w", r.ID, iss.Err())
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return fmt.Errorf("rule %s: %w", r.ID, iss.Err())
	}
	if !checked.OutputType().IsAssignableType(cel.BoolType) {
		return fmt.Errorf("rule %s: condition must be boolean, got %s", r.ID, checked.OutputType())
	}

	var err error
	r.program, err = env.Program(checked)
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}

	return nil
}

// Model returns the rule as a scoring model. Hundred-scale rules keep their unscaled view
// for the diagnostic aggregator.
func (r *Rule) Model() scoring.Model {
	if r.Hundred {
		return scoring.HundredScale(scoring.HundredScorerFunc(func(ctx *scoring.Context) (scoring.Result, error) {
			return r.eval(ctx, 100)
		}))
	}
	return scoring.ModelFunc(func(ctx *scoring.Context) (scoring.Result, error) {
		return r.eval(ctx, scoring.MaxScore)
	})
}

func (r *Rule) eval(ctx *scoring.Context, fullScore float64) (scoring.Result, error) {
	if r.program == nil {
		return scoring.Result{}, fmt.Errorf("rule %s: not initialized", r.ID)
	}
	activation, err := scoring.Cached(ctx, "rule:activation", func() (map[string]any, error) {
		return activationOf(ctx), nil
	})
	if err != nil {
		return scoring.Result{}, err
	}

	result, _, err := r.program.Eval(activation)
	if err != nil {
		if isMissingFact(err) {
			return scoring.Result{}, fmt.Errorf("%w: rule %s: %v", scoring.ErrNotEnoughData, r.ID, err)
		}
		return scoring.Result{}, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	passed, ok := result.Value().(bool)
	if !ok {
		return scoring.Result{}, fmt.Errorf("rule %s: condition returned %T", r.ID, result.Value())
	}
	if !passed {
		return scoring.Result{}, nil
	}

	score := fullScore
	if r.Then != nil {
		score = *r.Then
	}
	return scoring.Result{Score: score, Reasons: r.Reasons}, nil
}

// isMissingFact reports whether a CEL evaluation error comes from a fact left out of the
// activation, which the facts builder does for unknown values. cel-go reports missing map
// keys and missing variables with plain formatted errors and no exported sentinel, so the
// two messages are matched.
func isMissingFact(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such key") || strings.Contains(msg, "no such attribute")
}
