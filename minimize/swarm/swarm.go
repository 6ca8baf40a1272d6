// Package swarm implements the particle-swarm-with-pattern-search
// back-end for minimize.Control (spec §4.6.1), grounded on
// original_source/gft/pswarm.c (itself a C-only reshuffle of Vaz &
// Vicente's PSwarm): a swarm of particles updates velocity from inertia,
// cognitive and social terms; whenever a generation makes no progress on
// the leading particle, a coordinate-direction poll step is tried around
// it instead.
package swarm

import (
	"context"
	"math"

	"github.com/gigjozsa/tirific-sub001/minimize"
)

const (
	defaultBoundHalfWidth = 10.0 // normalised fallback box for unbounded axes
	initialDeltaDivisor   = 5.0  // fdelta in the reference implementation
)

// Solver is the particle-swarm Method.
type Solver struct{}

// New returns a particle-swarm Method.
func New() *Solver { return &Solver{} }

type particle struct {
	x      []float64
	v      []float64
	y      []float64 // personal best position
	fy     float64
	active bool
}

func (s *Solver) RunLoop(ctx context.Context, obj minimize.NormObjective, cfg minimize.LoopConfig) (minimize.LoopResult, error) {
	n := len(cfg.Guess)
	spec := cfg.Swarm
	if spec.Particles <= 0 {
		spec.Particles = 20
	}
	if spec.Cognition == 0 {
		spec.Cognition = 2.05
	}
	if spec.Social == 0 {
		spec.Social = 2.05
	}
	if spec.MaxVelocityFactor == 0 {
		spec.MaxVelocityFactor = 0.5
	}
	if spec.ItersToFinalWeight == 0 {
		spec.ItersToFinalWeight = 100
	}
	if spec.InitialInertia == 0 {
		spec.InitialInertia = 0.9
	}
	if spec.FinalInertia == 0 {
		spec.FinalInertia = 0.4
	}
	if spec.DeltaIncrease == 0 {
		spec.DeltaIncrease = 2.0
	}
	if spec.DeltaDecrease == 0 {
		spec.DeltaDecrease = 0.5
	}

	lower := boundsOrDefault(cfg.Lower, n, -defaultBoundHalfWidth)
	upper := boundsOrDefault(cfg.Upper, n, defaultBoundHalfWidth)

	rngCognition := NewRNG(int64(cfg.Seed[0]))
	rngSocial := NewRNG(int64(cfg.Seed[1]))

	maxV := make([]float64, n)
	for j := range maxV {
		maxV[j] = (upper[j] - lower[j]) * spec.MaxVelocityFactor
	}

	tol := cfg.StopSize
	if tol <= 0 {
		tol = 1e-8
	}
	delta := initialDelta(lower, upper, tol)
	deltaMax := delta

	particles := make([]particle, spec.Particles)
	for i := range particles {
		x := make([]float64, n)
		if i == 0 && cfg.Guess != nil {
			copy(x, cfg.Guess)
			project(x, lower, upper)
		} else {
			for j := 0; j < n; j++ {
				x[j] = lower[j] + rngCognition.Float64()*(upper[j]-lower[j])
			}
		}
		particles[i] = particle{x: x, v: make([]float64, n), y: append([]float64(nil), x...), fy: math.Inf(1), active: true}
	}

	calls := 0
	iters := 0
	gbest := 0

	for i := range particles {
		if ctx.Err() != nil {
			break
		}
		val, err := obj(particles[i].x)
		calls++
		if err != nil {
			return partialResult(particles, gbest, calls, iters, delta), err
		}
		particles[i].fy = val
		copy(particles[i].y, particles[i].x)
		if val < particles[gbest].fy {
			gbest = i
		}
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 1000
	}
	maxCalls := cfg.MaxCalls
	if maxCalls <= 0 {
		maxCalls = 1 << 30
	}

	maxNormV := math.Inf(1)

	for iters < maxIterations && calls < maxCalls {
		if ctx.Err() != nil {
			break
		}
		iters++

		success := false
		for i := range particles {
			if !particles[i].active {
				continue
			}
			val, err := obj(particles[i].x)
			calls++
			if err != nil {
				return partialResult(particles, gbest, calls, iters, delta), err
			}
			if val < particles[i].fy {
				particles[i].fy = val
				copy(particles[i].y, particles[i].x)
				if particles[gbest].fy > particles[i].fy || gbest == i {
					gbest = i
					success = true
				}
			}
		}

		if !success {
			if delta >= tol {
				var improved bool
				var err error
				calls, improved, err = pollStep(ctx, obj, &particles[gbest], delta, lower, upper, calls)
				if err != nil {
					return partialResult(particles, gbest, calls, iters, delta), err
				}
				if improved {
					delta *= spec.DeltaIncrease
				} else {
					delta *= spec.DeltaDecrease
				}
			}
		} else {
			if delta < deltaMax {
				delta *= spec.DeltaIncrease
			}
			if delta < tol {
				delta = 2 * tol
			}
		}

		weight := inertiaWeight(spec, iters)

		for i := range particles {
			if !particles[i].active {
				continue
			}
			for j := 0; j < n; j++ {
				r1 := rngCognition.Float64()
				r2 := rngSocial.Float64()
				v := weight*particles[i].v[j] +
					spec.Cognition*r1*(particles[i].y[j]-particles[i].x[j]) +
					spec.Social*r2*(particles[gbest].y[j]-particles[i].x[j])
				particles[i].v[j] = clamp(v, -maxV[j], maxV[j])
			}
			for j := 0; j < n; j++ {
				particles[i].x[j] = clamp(particles[i].x[j]+particles[i].v[j], lower[j], upper[j])
			}
		}

		maxNormV = norm(particles[gbest].v)
		actives := 0
		for i := range particles {
			if particles[i].active && i != gbest {
				distY := dist(particles[i].y, particles[gbest].y)
				normV := norm(particles[i].v)
				if distY < delta && normV < delta {
					particles[i].active = false
				} else if normV > maxNormV {
					maxNormV = normV
				}
			}
			if particles[i].active {
				actives++
			}
		}

		if (maxNormV < tol && delta < tol) || (actives <= 1 && delta < tol) {
			break
		}
	}

	solution := append([]float64(nil), particles[gbest].y...)
	return minimize.LoopResult{
		Solution:           solution,
		BestY:              solution,
		BestValue:          particles[gbest].fy,
		LastY:              particles[gbest].x,
		LastValue:          particles[gbest].fy,
		Calls:              calls,
		Iterations:         iters,
		CharacteristicSize: delta,
		ActiveParam:        -1,
	}, ctx.Err()
}

func partialResult(particles []particle, gbest, calls, iters int, delta float64) minimize.LoopResult {
	sol := append([]float64(nil), particles[gbest].y...)
	return minimize.LoopResult{
		Solution:           sol,
		BestY:              sol,
		BestValue:          particles[gbest].fy,
		LastY:              particles[gbest].x,
		LastValue:          particles[gbest].fy,
		Calls:              calls,
		Iterations:         iters,
		CharacteristicSize: delta,
		ActiveParam:        -1,
	}
}

// pollStep tries the 2n coordinate directions around p, accepting the
// first improving point (opportunistic poll), and reports whether one was
// found; the caller grows delta on success and shrinks it otherwise.
func pollStep(ctx context.Context, obj minimize.NormObjective, p *particle, delta float64, lower, upper []float64, calls int) (int, bool, error) {
	n := len(p.x)
	for sign := 0; sign < 2; sign++ {
		for j := 0; j < n; j++ {
			if ctx.Err() != nil {
				return calls, false, nil
			}
			step := delta
			if sign == 1 {
				step = -delta
			}
			candidate := append([]float64(nil), p.y...)
			candidate[j] += step
			clampInPlace(candidate, lower, upper)

			val, err := obj(candidate)
			calls++
			if err != nil {
				return calls, false, err
			}
			if val < p.fy {
				p.fy = val
				copy(p.y, candidate)
				return calls, true, nil
			}
		}
	}
	return calls, false, nil
}

func inertiaWeight(spec minimize.SwarmSpec, iter int) float64 {
	if iter >= spec.ItersToFinalWeight {
		return spec.FinalInertia
	}
	frac := float64(iter) / float64(spec.ItersToFinalWeight)
	return spec.InitialInertia - (spec.InitialInertia-spec.FinalInertia)*frac
}

func initialDelta(lower, upper []float64, tol float64) float64 {
	minDelta := math.Inf(1)
	for j := range lower {
		width := upper[j] - lower[j]
		if width < minDelta {
			minDelta = width
		}
	}
	if math.IsInf(minDelta, 1) || minDelta < 2*math.Sqrt(tol) {
		return 2 * math.Sqrt(math.Sqrt(tol))
	}
	return minDelta / initialDeltaDivisor
}

func boundsOrDefault(bounds []float64, n int, fallback float64) []float64 {
	if len(bounds) == n {
		out := make([]float64, n)
		for i, v := range bounds {
			if math.IsInf(v, 0) {
				out[i] = fallback
			} else {
				out[i] = v
			}
		}
		return out
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = fallback
	}
	return out
}

func project(x, lower, upper []float64) {
	clampInPlace(x, lower, upper)
}

func clampInPlace(x, lower, upper []float64) {
	for i := range x {
		x[i] = clamp(x[i], lower[i], upper[i])
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
