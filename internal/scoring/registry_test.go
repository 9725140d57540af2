package scoring

import (
	"coach/internal/metrics"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// departementFilter is a comparable model so that pattern ambiguity can be checked.
type departementFilter struct {
	departements string
}

func (f departementFilter) Score(ctx *Context) (Result, error) {
	if slices.Contains(SplitArgs(f.departements), ctx.Project.DepartementID) {
		return Result{Score: MaxScore}, nil
	}
	return Result{}, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(nil)
	reg.MustRegister("for-active-search", Filter(func(ctx *Context) (bool, error) {
		return !ctx.Project.JobSearchHasNotStarted, nil
	}))
	reg.MustRegisterPattern(`not-(.+)`, func(reg *Registry, args []string) Model {
		inner := reg.Resolve(args[0])
		if inner == nil {
			return nil
		}
		return Negate(inner)
	}, "not-for-active-search")
	reg.MustRegisterPattern(`for-departement\((.+)\)`, func(_ *Registry, args []string) Model {
		return departementFilter{departements: args[0]}
	}, "for-departement(31,75)")
	return reg
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := newTestRegistry(t)

	err := reg.Register("for-active-search", Constant(1))
	assert.ErrorIs(t, err, ErrDuplicateModel)
}

func TestRegistry_Register_Invalid(t *testing.T) {
	reg := NewRegistry(nil)

	assert.Error(t, reg.Register("For Active", Constant(1)))
	assert.Error(t, reg.Register("for-nothing", nil))
	assert.Panics(t, func() { reg.MustRegister("", Constant(1)) })
}

func TestRegistry_RegisterPattern_Invalid(t *testing.T) {
	reg := newTestRegistry(t)
	factory := func(*Registry, []string) Model { return Constant(1) }

	assert.Error(t, reg.RegisterPattern(`constant\((\d+)\)`, factory, "constant(a)"), "example must match")
	assert.Error(t, reg.RegisterPattern(`constant\((`, factory, "constant(1)"), "expression must compile")
	assert.ErrorIs(t, reg.RegisterPattern(`not-(.+)`, factory, "not-x"), ErrDuplicateModel)
}

func TestRegistry_Resolve_Idempotent(t *testing.T) {
	reg := newTestRegistry(t)

	for _, id := range []string{"for-active-search", "not-for-active-search", "for-departement(31)", "unknown"} {
		first := reg.Resolve(id)
		second := reg.Resolve(id)
		assert.True(t, first == second, id)
	}
	assert.Nil(t, reg.Resolve("unknown"))
}

func TestRegistry_Resolve_UnknownCountedOnce(t *testing.T) {
	reg := newTestRegistry(t)
	before := testutil.ToFloat64(metrics.UnresolvedModels)

	for range 3 {
		assert.Nil(t, reg.Resolve("for-nobody"))
	}
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.UnresolvedModels))
}

func TestRegistry_Resolve_UnknownBounded(t *testing.T) {
	reg := newTestRegistry(t)
	before := testutil.ToFloat64(metrics.UnresolvedModels)

	for i := range unresolvedCacheSize + 100 {
		assert.Nil(t, reg.Resolve(fmt.Sprintf("junk-%d", i)))
	}

	assert.Empty(t, reg.resolved)
	assert.Equal(t, unresolvedCacheSize, reg.unresolved.Len())
	assert.Equal(t, before+unresolvedCacheSize+100, testutil.ToFloat64(metrics.UnresolvedModels))

	assert.Nil(t, reg.Resolve(fmt.Sprintf("junk-%d", unresolvedCacheSize+99)))
	assert.Equal(t, before+unresolvedCacheSize+100, testutil.ToFloat64(metrics.UnresolvedModels), "recent failures are logged once")
}

func TestRegistry_Resolve_LiteralWinsOverPattern(t *testing.T) {
	reg := newTestRegistry(t)
	literal := Constant(2)
	reg.MustRegister("not-special", literal)

	assert.Same(t, literal, reg.Resolve("not-special"))
}

func TestRegistry_Resolve_NegatedUnknown(t *testing.T) {
	reg := newTestRegistry(t)

	assert.Nil(t, reg.Resolve("not-unknown"))
	assert.Nil(t, reg.Resolve("not-not-unknown"))
}

func TestRegistry_Resolve_Concurrent(t *testing.T) {
	reg := NewRegistry(nil)
	var builds atomic.Int32
	reg.MustRegisterPattern(`slow\((\d+)\)`, func(_ *Registry, args []string) Model {
		builds.Add(1)
		return Constant(1)
	}, "slow(1)")

	const workers = 32
	models := make([]Model, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			models[i] = reg.Resolve("slow(42)")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, model := range models {
		assert.Same(t, models[0], model)
	}
}

func TestRegistry_PatternExamplesResolve(t *testing.T) {
	reg := newTestRegistry(t)

	for _, example := range reg.Examples() {
		assert.NotNil(t, reg.Resolve(example), example)
	}
	assert.NoError(t, reg.SelfTest())
}

func TestRegistry_SelfTest_Ambiguous(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustRegisterPattern(`for-(departement)\(.+\)`, func(_ *Registry, args []string) Model {
		return departementFilter{departements: "13"}
	}, "for-departement(13)")

	err := reg.SelfTest()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousPattern)
}

func TestRegistry_SelfTest_SameModelIsNotAmbiguous(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustRegisterPattern(`for-dep(?:artement)?\((.+)\)`, func(_ *Registry, args []string) Model {
		return departementFilter{departements: args[0]}
	}, "for-dep(31)")

	assert.NoError(t, reg.SelfTest())
}

func TestRegistry_SelfTest_UnresolvableExample(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustRegisterPattern(`broken-(.+)`, func(*Registry, []string) Model { return nil }, "broken-x")

	assert.Error(t, reg.SelfTest())
}

func TestRegistry_Validate(t *testing.T) {
	reg := newTestRegistry(t)

	assert.NoError(t, reg.Validate([]string{"for-active-search", "not-for-departement(31)"}))

	err := reg.Validate([]string{"for-active-search", "for-typo", "not-for-typo", "for-typo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownModel)
	var unresolved *UnresolvedModelsError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"for-typo", "not-for-typo"}, unresolved.IDs)
}

func TestRegistry_Identifiers(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustRegister("for-unemployed", Constant(0))

	assert.Equal(t, []string{"for-active-search", "for-unemployed"}, reg.Identifiers())
}
