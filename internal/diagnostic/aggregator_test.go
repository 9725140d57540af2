package diagnostic

import (
	"coach/internal/facts"
	"coach/internal/scoring"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hundred(score float64, reasons ...string) scoring.Model {
	return scoring.HundredScale(scoring.HundredScorerFunc(func(*scoring.Context) (scoring.Result, error) {
		return scoring.Result{Score: score, Reasons: reasons}, nil
	}))
}

func failing(err error) scoring.Model {
	return scoring.ModelFunc(func(*scoring.Context) (scoring.Result, error) {
		return scoring.Result{}, err
	})
}

func newTestRegistry(t *testing.T) *scoring.Registry {
	t.Helper()
	reg := scoring.NewRegistry(nil)
	reg.MustRegister("diag-forty", hundred(40, "Profil à compléter"))
	reg.MustRegister("diag-hundred", hundred(100))
	reg.MustRegister("diag-sixty", hundred(60))
	reg.MustRegister("diag-missing", failing(scoring.ErrNotEnoughData))
	reg.MustRegister("diag-broken", failing(errors.New("boom")))
	reg.MustRegister("graded", scoring.Constant(1.5))
	return reg
}

func newTestContext() *scoring.Context {
	return scoring.NewContext(scoring.Project{ID: "project-1"}, scoring.User{}, nil, facts.NewMemoryStore())
}

func newAggregator(t *testing.T, scorers []SubmetricScorer, opts ...Option) *Aggregator {
	t.Helper()
	a := NewAggregator(newTestRegistry(t), opts...)
	for _, s := range scorers {
		require.NoError(t, a.Add(s))
	}
	return a
}

func TestAggregator_WeightedSubmetric(t *testing.T) {
	a := newAggregator(t, []SubmetricScorer{
		{Submetric: "profile", ModelID: "diag-forty", Weight: 1},
		{Submetric: "profile", ModelID: "diag-hundred", Weight: 3},
	})

	diagnostic := a.Diagnose(newTestContext())

	profile, found := diagnostic.Submetric("profile")
	require.True(t, found)
	assert.True(t, profile.Conclusive)
	assert.InDelta(t, 85.0, profile.Score, 1e-9)
	assert.Equal(t, []string{"diag-forty", "diag-hundred"}, profile.Contributors)
	assert.Equal(t, []string{"Profil à compléter"}, profile.Reasons)
	assert.True(t, diagnostic.Conclusive)
	assert.InDelta(t, 85.0, diagnostic.Overall, 1e-9)
	assert.Equal(t, "project-1", diagnostic.ProjectID)
}

func TestAggregator_NotEnoughDataIsSkipped(t *testing.T) {
	a := newAggregator(t, []SubmetricScorer{
		{Submetric: "market", ModelID: "diag-sixty", Weight: 1},
		{Submetric: "market", ModelID: "diag-missing", Weight: 10},
	})

	market, _ := a.Diagnose(newTestContext()).Submetric("market")

	assert.True(t, market.Conclusive)
	assert.InDelta(t, 60.0, market.Score, 1e-9, "missing data must not count as zero")
	assert.Empty(t, market.Failures)
}

func TestAggregator_InconclusiveSubmetric(t *testing.T) {
	a := newAggregator(t, []SubmetricScorer{
		{Submetric: "profile", ModelID: "diag-forty", Weight: 1},
		{Submetric: "market", ModelID: "diag-missing", Weight: 1},
	})

	diagnostic := a.Diagnose(newTestContext())

	market, found := diagnostic.Submetric("market")
	require.True(t, found)
	assert.False(t, market.Conclusive)
	assert.True(t, diagnostic.Conclusive)
	assert.InDelta(t, 40.0, diagnostic.Overall, 1e-9, "inconclusive submetrics do not drag the overall score")
}

func TestAggregator_AllInconclusive(t *testing.T) {
	a := newAggregator(t, []SubmetricScorer{
		{Submetric: "market", ModelID: "diag-missing", Weight: 1},
	})

	diagnostic := a.Diagnose(newTestContext())

	assert.False(t, diagnostic.Conclusive)
	assert.Zero(t, diagnostic.Overall)
}

func TestAggregator_ErrorsAreIsolated(t *testing.T) {
	a := newAggregator(t, []SubmetricScorer{
		{Submetric: "search", ModelID: "diag-broken", Weight: 1},
		{Submetric: "search", ModelID: "diag-unknown", Weight: 1},
		{Submetric: "search", ModelID: "diag-sixty", Weight: 1},
	})

	search, _ := a.Diagnose(newTestContext()).Submetric("search")

	assert.True(t, search.Conclusive)
	assert.InDelta(t, 60.0, search.Score, 1e-9)
	assert.Equal(t, []string{"diag-broken", "diag-unknown"}, search.Failures)
}

func TestAggregator_GradedModelRescaled(t *testing.T) {
	a := newAggregator(t, []SubmetricScorer{
		{Submetric: "project", ModelID: "graded", Weight: 1},
	})

	project, _ := a.Diagnose(newTestContext()).Submetric("project")

	assert.InDelta(t, 50.0, project.Score, 1e-9)
}

func TestAggregator_CombineRule(t *testing.T) {
	scorers := []SubmetricScorer{
		{Submetric: "profile", ModelID: "diag-forty", Weight: 1},
		{Submetric: "market", ModelID: "diag-hundred", Weight: 1},
		{Submetric: "search", ModelID: "diag-sixty", Weight: 1},
	}
	cases := []struct {
		name    string
		combine CombineFunc
		want    float64
	}{
		{name: "minimum", combine: Minimum, want: 40},
		{name: "average", combine: Average, want: 200.0 / 3},
		{name: "sum", combine: Sum, want: 200},
		{name: "weighted", combine: WeightedAverage(map[string]float64{"profile": 2, "market": 0}), want: (40*2 + 60) / 3.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newAggregator(t, scorers, WithCombine(tc.combine))
			assert.InDelta(t, tc.want, a.Diagnose(newTestContext()).Overall, 1e-9)
		})
	}
}

func TestAggregator_Add_Invalid(t *testing.T) {
	a := NewAggregator(newTestRegistry(t))

	assert.Error(t, a.Add(SubmetricScorer{ModelID: "diag-forty", Weight: 1}))
	assert.Error(t, a.Add(SubmetricScorer{Submetric: "profile", Weight: 1}))
	assert.Error(t, a.Add(SubmetricScorer{Submetric: "profile", ModelID: "diag-forty"}))

	require.NoError(t, a.Add(SubmetricScorer{Submetric: "profile", ModelID: "diag-forty", Weight: 1}))
	assert.Error(t, a.Add(SubmetricScorer{Submetric: "profile", ModelID: "diag-forty", Weight: 2}))
	assert.Len(t, a.Scorers(), 1)
}

func TestAggregator_Validate(t *testing.T) {
	a := newAggregator(t, []SubmetricScorer{
		{Submetric: "profile", ModelID: "diag-forty", Weight: 1},
	})
	assert.NoError(t, a.Validate())

	require.NoError(t, a.Add(SubmetricScorer{Submetric: "profile", ModelID: "diag-typo", Weight: 1}))
	assert.ErrorIs(t, a.Validate(), scoring.ErrUnknownModel)
}

func TestAggregator_Examples(t *testing.T) {
	a := newAggregator(t, nil, WithExampleCapacity(2), WithRand(rand.New(rand.NewPCG(7, 7))))
	records := []facts.ContentRecord{
		{ID: "t1", Category: "testimonial"},
		{ID: "t2", Category: "testimonial"},
		{ID: "t3", Category: "testimonial"},
		{ID: "j1", Category: "job-board"},
	}

	diagnostic := a.Diagnose(newTestContext(), WithExamples(slices.Values(records)))

	require.Len(t, diagnostic.Examples, 2)
	assert.Len(t, diagnostic.Examples["testimonial"], 2)
	assert.Equal(t, []facts.ContentRecord{{ID: "j1", Category: "job-board"}}, diagnostic.Examples["job-board"])
	assert.False(t, diagnostic.Conclusive)
}

func TestCombineByName(t *testing.T) {
	for _, name := range []string{CombineMinimum, CombineAverage, CombineSum, CombineWeightedAverage, ""} {
		combine, err := CombineByName(name, nil)
		require.NoError(t, err, name)
		assert.NotNil(t, combine, name)
	}

	_, err := CombineByName("median", nil)
	assert.Error(t, err)
}
