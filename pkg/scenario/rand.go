package scenario

import (
	"math"
	"math/rand/v2"
)

// newRand derives a deterministic source from a scenario seed.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// intBetween draws uniformly from the inclusive range [lo, hi].
func intBetween(rng *rand.Rand, lo, hi int64) int64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int64(rng.Uint64())
	}
	return lo + int64(rng.Uint64N(span+1))
}

func choose[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}

// SeedSource hands out per-scenario seeds derived from one default seed.
type SeedSource struct {
	rng *rand.Rand
}

// NewSeedSource seeds the derivation chain.
func NewSeedSource(defaultSeed int64) *SeedSource {
	return &SeedSource{rng: newRand(defaultSeed)}
}

// Next returns the seed for the next scenario in construction order.
func (s *SeedSource) Next() int64 {
	return int64(s.rng.Uint64())
}
