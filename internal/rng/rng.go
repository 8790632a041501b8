package rng

import (
	"math/rand/v2"
)

// Source is the randomness used for shuffling rosters and bracket seeds.
// Tests inject a seeded Source so team splits and brackets are reproducible.
type Source interface {
	IntN(n int) int
}

// New returns a deterministic Source for the given seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandom returns a Source seeded from the runtime's entropy.
func NewRandom() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// FromSeed returns New(*seed) when a seed is given and NewRandom otherwise.
func FromSeed(seed *uint64) Source {
	if seed == nil {
		return NewRandom()
	}
	return New(*seed)
}

// Shuffle permutes s in place with Fisher–Yates.
func Shuffle[T any](src Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
