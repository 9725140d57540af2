package diagnostic

import (
	"iter"
	"math/rand/v2"
	"sync"
)

// IntN is a source of uniform random integers in [0, n). *rand.Rand of math/rand/v2
// implements it.
type IntN interface {
	IntN(n int) int
}

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// lockedRand serializes draws from a source that is not safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	src IntN
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

type reservoir[T any] struct {
	items []T
	seen  int
}

// Sampler keeps a bounded, uniformly random sample of the items seen in each category.
// Every item of a category has the same probability capacity/seen to be kept, using
// O(capacity) memory per category whatever the stream length.
//
// Each Add is atomic with respect to the buffers: a stream interrupted after any item
// leaves a valid sample of the items seen so far.
//
// Example:
//
//	s := NewSampler[string](2, rand.New(rand.NewPCG(1, 2)))
//	s.Add("testimonial", "a")
//	s.Add("testimonial", "b")
//	s.Add("testimonial", "c") // replaces a or b with probability 2/3
//	fmt.Println(s.Sample("testimonial"))
type Sampler[T any] struct {
	capacity   int
	rng        IntN
	mu         sync.Mutex
	categories map[string]*reservoir[T]
	order      []string
}

// NewSampler creates a sampler keeping at most capacity items per category.
// The capacity must be positive, otherwise the call panics. A nil rng draws from the
// math/rand/v2 top-level source.
func NewSampler[T any](capacity int, rng IntN) *Sampler[T] {
	if capacity <= 0 {
		panic("sampler capacity must be positive")
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Sampler[T]{
		capacity:   capacity,
		rng:        rng,
		categories: make(map[string]*reservoir[T]),
	}
}

// Add offers item to the reservoir of its category.
func (s *Sampler[T]) Add(category string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, found := s.categories[category]
	if !found {
		r = &reservoir[T]{items: make([]T, 0, s.capacity)}
		s.categories[category] = r
		s.order = append(s.order, category)
	}

	r.seen++
	if len(r.items) < s.capacity {
		r.items = append(r.items, item)
		return
	}
	if j := s.rng.IntN(r.seen); j < s.capacity {
		r.items[j] = item
	}
}

// Sample returns a copy of the items kept for category.
func (s *Sampler[T]) Sample(category string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, found := s.categories[category]
	if !found {
		return nil
	}
	result := make([]T, len(r.items))
	copy(result, r.items)
	return result
}

// Seen returns the number of items offered for category.
func (s *Sampler[T]) Seen(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, found := s.categories[category]; found {
		return r.seen
	}
	return 0
}

// Categories returns the categories in order of first appearance.
func (s *Sampler[T]) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// Samples returns a copy of every category's sample.
func (s *Sampler[T]) Samples() map[string][]T {
	samples := make(map[string][]T)
	for _, category := range s.Categories() {
		samples[category] = s.Sample(category)
	}
	return samples
}

// SampleSeq drains items into s in a single pass.
func SampleSeq[T any](s *Sampler[T], items iter.Seq[T], categoryOf func(T) string) {
	for item := range items {
		s.Add(categoryOf(item), item)
	}
}
