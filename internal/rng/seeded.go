package rng

import "math/rand"

// Seeded is a math/rand backed generator with a fixed seed.
// It exists so tests can build deterministic shoes. Do not use it for real
// play; a seeded shuffle is predictable.
type Seeded struct {
	r *rand.Rand
}

// NewSeeded returns a new seeded generator
func NewSeeded(seed int64) *Seeded {
	return &Seeded{r: rand.New(rand.NewSource(seed))}
}

// Intn will return a random number up to but not including n
func (s *Seeded) Intn(n int) int {
	return s.r.Intn(n)
}
