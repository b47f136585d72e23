package rng

// Generator is a source of randomness for shuffling
type Generator interface {
	// Intn will return a random number in [0, n)
	Intn(n int) int
}
