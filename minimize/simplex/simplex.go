// Package simplex implements a standard Nelder-Mead back-end for
// minimize.Control (spec §4.6.2): the initial simplex side lengths equal
// the per-axis start step, and the loop runs to convergence (diameter
// below the stop size) or the call/iteration budget, whichever comes
// first.
package simplex

import (
	"context"
	"math"
	"sort"

	"github.com/gigjozsa/tirific-sub001/minimize"
)

const (
	reflect  = 1.0
	expand   = 2.0
	contract = 0.5
	shrink   = 0.5
)

// Solver is the Nelder-Mead Method.
type Solver struct{}

// New returns a Nelder-Mead Method.
func New() *Solver { return &Solver{} }

type vertex struct {
	y     []float64
	value float64
}

func (s *Solver) RunLoop(ctx context.Context, obj minimize.NormObjective, cfg minimize.LoopConfig) (minimize.LoopResult, error) {
	n := len(cfg.Guess)
	simplex := make([]vertex, n+1)

	calls := 0
	eval := func(y []float64) (float64, error) {
		calls++
		return obj(y)
	}

	base := append([]float64(nil), cfg.Guess...)
	v0, err := eval(base)
	simplex[0] = vertex{y: base, value: v0}
	if err != nil {
		return failResult(simplex[0], calls), err
	}

	for i := 0; i < n; i++ {
		y := append([]float64(nil), base...)
		step := cfg.StartStep[i]
		if step == 0 {
			step = 1
		}
		y[i] += step
		val, err := eval(y)
		simplex[i+1] = vertex{y: y, value: val}
		if err != nil {
			return failResult(simplex[i+1], calls), err
		}
	}

	maxCalls := cfg.MaxCalls
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10000
	}

	var bestSeen vertex
	bestSeen = simplex[0]
	for _, v := range simplex {
		if v.value < bestSeen.value {
			bestSeen = v
		}
	}

	iters := 0
	diameter := math.Inf(1)

	for iters < maxIterations && calls < maxCalls {
		if ctx.Err() != nil {
			break
		}

		sort.Slice(simplex, func(i, j int) bool { return simplex[i].value < simplex[j].value })
		for _, v := range simplex {
			if v.value < bestSeen.value {
				bestSeen = v
			}
		}

		diameter = simplexDiameter(simplex)
		if diameter < cfg.StopSize {
			break
		}

		worst := simplex[n]
		centroid := make([]float64, n)
		for _, v := range simplex[:n] {
			for i, c := range v.y {
				centroid[i] += c / float64(n)
			}
		}

		reflected := pointAlong(centroid, worst.y, reflect)
		reflVal, err := eval(reflected)
		if err != nil {
			return failResult(bestSeen, calls), err
		}
		iters++

		switch {
		case reflVal < simplex[0].value:
			expanded := pointAlong(centroid, worst.y, expand)
			expVal, err := eval(expanded)
			if err != nil {
				return failResult(bestSeen, calls), err
			}
			if expVal < reflVal {
				simplex[n] = vertex{y: expanded, value: expVal}
			} else {
				simplex[n] = vertex{y: reflected, value: reflVal}
			}
		case reflVal < simplex[n-1].value:
			simplex[n] = vertex{y: reflected, value: reflVal}
		default:
			contracted := pointAlong(centroid, worst.y, -contract)
			contrVal, err := eval(contracted)
			if err != nil {
				return failResult(bestSeen, calls), err
			}
			if contrVal < worst.value {
				simplex[n] = vertex{y: contracted, value: contrVal}
			} else {
				best := simplex[0]
				for i := 1; i <= n; i++ {
					shrunk := pointAlong(best.y, simplex[i].y, shrink-1)
					val, err := eval(shrunk)
					if err != nil {
						return failResult(bestSeen, calls), err
					}
					simplex[i] = vertex{y: shrunk, value: val}
				}
			}
		}
	}

	sort.Slice(simplex, func(i, j int) bool { return simplex[i].value < simplex[j].value })
	for _, v := range simplex {
		if v.value < bestSeen.value {
			bestSeen = v
		}
	}

	return minimize.LoopResult{
		Solution:           simplex[0].y,
		BestY:              bestSeen.y,
		BestValue:          bestSeen.value,
		LastY:              simplex[0].y,
		LastValue:          simplex[0].value,
		Calls:              calls,
		Iterations:         iters,
		CharacteristicSize: diameter,
		ActiveParam:        -1,
	}, ctx.Err()
}

func failResult(best vertex, calls int) minimize.LoopResult {
	return minimize.LoopResult{
		Solution:    best.y,
		BestY:       best.y,
		BestValue:   best.value,
		LastY:       best.y,
		LastValue:   best.value,
		Calls:       calls,
		ActiveParam: -1,
	}
}

// pointAlong returns centroid + factor*(centroid-vertex), the standard
// Nelder-Mead reflection/expansion/contraction/shrink step.
func pointAlong(centroid, vertexPoint []float64, factor float64) []float64 {
	out := make([]float64, len(centroid))
	for i := range out {
		out[i] = centroid[i] + factor*(centroid[i]-vertexPoint[i])
	}
	return out
}

func simplexDiameter(simplex []vertex) float64 {
	var maxDist float64
	for i := range simplex {
		for j := i + 1; j < len(simplex); j++ {
			var d float64
			for k := range simplex[i].y {
				diff := simplex[i].y[k] - simplex[j].y[k]
				d += diff * diff
			}
			d = math.Sqrt(d)
			if d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist
}
