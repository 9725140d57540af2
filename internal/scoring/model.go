package scoring

// MaxScore is the top of the canonical score range [0, MaxScore].
const MaxScore = 3.0

// Result is the outcome of a model evaluation.
type Result struct {
	// Score is within [0, MaxScore].
	Score float64 `json:"score"`
	// Reasons explains the score to a human, most important first.
	Reasons []string `json:"reasons,omitempty"`
}

// Model scores a project. Models return ErrNotEnoughData (possibly wrapped) when they
// lack the facts to decide, rather than a low score.
type Model interface {
	Score(ctx *Context) (Result, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx *Context) (Result, error)

// Score implements Model.
func (f ModelFunc) Score(ctx *Context) (Result, error) {
	return f(ctx)
}

type filterModel struct {
	check   func(ctx *Context) (bool, error)
	reasons []string
}

// Filter builds a boolean model: it scores exactly MaxScore when check passes, 0 otherwise.
// The reasons are attached to passing results only.
func Filter(check func(ctx *Context) (bool, error), reasons ...string) Model {
	return &filterModel{check: check, reasons: reasons}
}

func (m *filterModel) Score(ctx *Context) (Result, error) {
	ok, err := m.check(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Score: 0}, nil
	}
	return Result{Score: MaxScore, Reasons: m.reasons}, nil
}

// HundredScorer is a scorer whose natural output is within [0, 100].
type HundredScorer interface {
	Score100(ctx *Context) (Result, error)
}

// HundredScorerFunc adapts a function to the HundredScorer interface.
type HundredScorerFunc func(ctx *Context) (Result, error)

// Score100 implements HundredScorer.
func (f HundredScorerFunc) Score100(ctx *Context) (Result, error) {
	return f(ctx)
}

type hundredScaleModel struct {
	scorer HundredScorer
}

// HundredScale exposes a hundred-scale scorer as a Model, rescaling h to 3·h/100.
// The returned model still implements HundredScorer so aggregators can read the
// unscaled value.
func HundredScale(scorer HundredScorer) Model {
	return &hundredScaleModel{scorer: scorer}
}

func (m *hundredScaleModel) Score100(ctx *Context) (Result, error) {
	result, err := m.scorer.Score100(ctx)
	if err != nil {
		return Result{}, err
	}
	result.Score = clamp(result.Score, 0, 100)
	return result, nil
}

func (m *hundredScaleModel) Score(ctx *Context) (Result, error) {
	result, err := m.Score100(ctx)
	if err != nil {
		return Result{}, err
	}
	result.Score = MaxScore * result.Score / 100
	return result, nil
}

type constantModel struct {
	score float64
}

// Constant builds a model that always returns score, clamped to the canonical range.
func Constant(score float64) Model {
	return &constantModel{score: clamp(score, 0, MaxScore)}
}

func (m *constantModel) Score(*Context) (Result, error) {
	return Result{Score: m.score}, nil
}

type negatedModel struct {
	inner Model
}

// Negate builds the model scoring MaxScore - score(inner). Reasons of the inner model are
// dropped since they explain the opposite outcome. Missing data stays missing data.
func Negate(inner Model) Model {
	return &negatedModel{inner: inner}
}

func (m *negatedModel) Score(ctx *Context) (Result, error) {
	result, err := m.inner.Score(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Score: MaxScore - clamp(result.Score, 0, MaxScore)}, nil
}

func clamp(value, low, high float64) float64 {
	switch {
	case value < low:
		return low
	case value > high:
		return high
	default:
		return value
	}
}
