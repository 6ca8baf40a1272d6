package swarm

import (
	"time"

	"golang.org/x/exp/rand"
)

// NewSourceFromTime draws a non-reproducible seed pair from the wall
// clock, for interactive use when the caller has no reason to pin
// Testable Scenario S6's exact-reproducibility contract. It is never
// used internally by RunLoop — Control always passes through whatever
// seed it was given, including the zero value, so a caller who wants
// reproducibility by omission still gets it.
func NewSourceFromTime() [2]uint32 {
	src := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	return [2]uint32{src.Uint32(), src.Uint32()}
}

// RNG reproduces, bit for bit, the hand-rolled generator used by the
// original pattern-search/particle-swarm implementation (myrand /
// resettable_randflt in original_source/gft/pswarm.c): a small linear
// congruential generator whose draws are shuffled through a 256-entry
// table seeded once at Reset and refreshed on every draw thereafter.
// This is not a general-purpose RNG — it exists purely so the swarm
// back-end's output is exactly reproducible for a given integer seed
// (Testable Scenario S6), which a library RNG cannot promise across Go
// versions.
type RNG struct {
	seed        int64
	table       [shuffleSize]float64
	initialized bool
}

const (
	lcgMult = 25173
	lcgIncr = 13849
	lcgMod  = 65536

	shuffleSize = 256
	warmupDraws = 1000
)

// NewRNG returns an RNG reset to seed.
func NewRNG(seed int64) *RNG {
	r := &RNG{}
	r.Reset(seed)
	return r
}

func lcgStep(seed *int64) float64 {
	*seed = (lcgMult**seed + lcgIncr) % lcgMod
	if *seed < 0 {
		*seed += lcgMod
	}
	return float64(*seed) / float64(lcgMod)
}

// Reset reseeds the generator, rebuilding the shuffle table from seed and
// discarding 1000 warm-up draws, exactly as the reference implementation
// does on every (re)initialisation.
func (r *RNG) Reset(seed int64) {
	if seed < 0 {
		seed = -seed
	}
	r.seed = seed
	initial := seed
	for n := range r.table {
		r.table[n] = lcgStep(&initial)
	}
	r.initialized = true
	for n := 0; n < warmupDraws; n++ {
		r.shuffleDraw(&initial)
	}
}

func (r *RNG) shuffleDraw(seedPtr *int64) float64 {
	k := int(lcgStep(seedPtr)*shuffleSize) % shuffleSize
	if k < 0 {
		k += shuffleSize
	}
	v := r.table[k]
	r.table[k] = lcgStep(seedPtr)
	return v
}

// Float64 returns the next draw in [0,1).
func (r *RNG) Float64() float64 {
	if !r.initialized {
		r.Reset(0)
	}
	return r.shuffleDraw(&r.seed)
}
