package diagnostic

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always draws the same integer, clamped to the requested range.
type fixedRand struct {
	value int
	calls int
}

func (r *fixedRand) IntN(n int) int {
	r.calls++
	return min(r.value, n-1)
}

func TestSampler_NewSampler(t *testing.T) {
	t.Run("positive capacity", func(t *testing.T) {
		s := NewSampler[int](3, nil)
		require.NotNil(t, s)
		assert.Empty(t, s.Categories())
		assert.Nil(t, s.Sample("any"))
		assert.Zero(t, s.Seen("any"))
	})

	t.Run("zero capacity panics", func(t *testing.T) {
		assert.Panics(t, func() { NewSampler[int](0, nil) })
	})

	t.Run("negative capacity panics", func(t *testing.T) {
		assert.Panics(t, func() { NewSampler[int](-1, nil) })
	})
}

func TestSampler_FillsBeforeSampling(t *testing.T) {
	rng := &fixedRand{value: 0}
	s := NewSampler[string](4, rng)

	for _, item := range []string{"a", "b", "c", "d"} {
		s.Add("testimonial", item)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.Sample("testimonial"))
	assert.Zero(t, rng.calls, "no draw while the reservoir is not full")

	s.Add("testimonial", "e")
	sample := s.Sample("testimonial")
	assert.Len(t, sample, 4)
	assert.Equal(t, []string{"e", "b", "c", "d"}, sample)
	assert.Equal(t, 5, s.Seen("testimonial"))
}

func TestSampler_DrawAboveCapacityKeepsBuffer(t *testing.T) {
	s := NewSampler[string](4, &fixedRand{value: 4})

	for _, item := range []string{"a", "b", "c", "d", "e"} {
		s.Add("testimonial", item)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.Sample("testimonial"))
}

func TestSampler_CategoriesAreIndependent(t *testing.T) {
	s := NewSampler[int](2, rand.New(rand.NewPCG(1, 2)))

	SampleSeq(s, slices.Values([]int{1, 2, 3, 4, 5, 6, 7}), func(i int) string {
		if i%2 == 0 {
			return "even"
		}
		return "odd"
	})

	assert.Equal(t, []string{"odd", "even"}, s.Categories())
	assert.Equal(t, 4, s.Seen("odd"))
	assert.Equal(t, 3, s.Seen("even"))
	for category, sample := range s.Samples() {
		assert.Len(t, sample, 2, category)
	}
	for _, i := range s.Sample("even") {
		assert.Zero(t, i%2)
	}
}

func TestSampler_SampleIsACopy(t *testing.T) {
	s := NewSampler[string](2, nil)
	s.Add("job-board", "indeed")

	sample := s.Sample("job-board")
	sample[0] = "changed"
	assert.Equal(t, []string{"indeed"}, s.Sample("job-board"))
}

func TestSampler_Uniform(t *testing.T) {
	const (
		capacity = 4
		items    = 10
		trials   = 20000
	)
	rng := rand.New(rand.NewPCG(42, 1024))
	kept := make([]int, items)

	for range trials {
		s := NewSampler[int](capacity, rng)
		for i := range items {
			s.Add("association", i)
		}
		for _, i := range s.Sample("association") {
			kept[i]++
		}
	}

	for i, count := range kept {
		assert.InDelta(t, float64(capacity)/items, float64(count)/trials, 0.02, "item %d", i)
	}
}

func TestSampler_ConcurrentAdd(t *testing.T) {
	s := NewSampler[int](5, rand.New(rand.NewPCG(1, 2)))

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				s.Add("testimonial", w*100+i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, s.Seen("testimonial"))
	assert.Len(t, s.Sample("testimonial"), 5)
}
