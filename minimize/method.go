// Package minimize implements the derivative-free minimiser wrapper: a
// uniform acquisition object (Control) exposing put/get/act verbs over
// three interchangeable algorithms (golden section, simplex, particle
// swarm + pattern search), with grid normalisation, loop control and
// step-wise interruption. See spec §4.6 and §6.2.
package minimize

import "context"

// Objective is the user's function to minimise, over raw (denormalised)
// parameters. The opaque userData pointer is never dereferenced by this
// package — it is only carried through to the caller's function.
type Objective func(x []float64, userData interface{}) (float64, error)

// LoopConfig is everything one back-end needs to run a single loop, all in
// normalised coordinates (y = (x-o)/d). Swarm is ignored by golden/simplex.
type LoopConfig struct {
	Guess []float64
	Lower []float64 // normalised lower bound per axis, nil if unbounded
	Upper []float64 // normalised upper bound per axis, nil if unbounded

	StartStep            []float64
	StopSize             float64
	MaxCalls             int
	MaxIterations        int
	MaxCallsPerIteration int

	Seed  [2]uint32
	Swarm SwarmSpec
}

// SwarmSpec carries the nine particle-swarm-specific tunables of spec
// §6.2; the swarm back-end's RunLoop replaces any zero field with its
// default value.
type SwarmSpec struct {
	Particles          int
	Cognition          float64 // mu
	Social             float64 // nu
	MaxVelocityFactor  float64
	ItersToFinalWeight int
	InitialInertia     float64
	FinalInertia       float64
	DeltaIncrease      float64 // idelta
	DeltaDecrease      float64 // ddelta
}

// LoopResult is everything a back-end reports back after one loop.
type LoopResult struct {
	Solution           []float64 // normalised, end-of-loop
	BestY              []float64 // normalised
	BestValue          float64
	LastY              []float64
	LastValue          float64
	Calls              int
	Iterations         int
	CharacteristicSize float64
	ActiveParam        int // golden section only, -1 otherwise
}

// NormObjective is the normalised objective a Method actually calls: it
// has already had denormalisation, domain checking, call counting and
// cooperative cancellation applied by Control.
type NormObjective func(y []float64) (float64, error)

// Method is the per-algorithm back-end contract every acquisition object
// dispatches to, a monomorphized stand-in for the reference engine's void
// pointer (spec §9 design note: Method = Golden | Simplex | Swarm).
type Method interface {
	// RunLoop executes exactly one loop (one sweep of all axes for golden
	// section, one run to convergence for simplex, one swarm run to its
	// exit condition) and returns the result. ctx is checked cooperatively
	// between objective calls; a cancelled ctx ends the loop early with
	// whatever partial result has been accumulated so far.
	RunLoop(ctx context.Context, obj NormObjective, cfg LoopConfig) (LoopResult, error)
}
