// Package golden implements the per-axis golden section search back-end
// for minimize.Control, grounded on original_source/gft/golden.c: bracket
// by accelerating the step by the golden ratio up to ten consecutive
// accelerations, then once a bracket is found contract it by the inverse
// golden ratio until the step falls below the stop size.
package golden

import (
	"context"
	"math"

	"github.com/gigjozsa/tirific-sub001/minimize"
)

const (
	accelFactor      = 1.618033988749894 // AFAC, (1-omega)/omega
	contractFactor   = 0.6180339887498948 // BFAC, 1-omega
	maxAccelerations = 10
)

// Solver is the golden-section Method. It is stateless across loops: all
// working state lives on the stack of RunLoop, since each loop starts
// from a freshly recentred origin.
type Solver struct{}

// New returns a golden-section Method.
func New() *Solver { return &Solver{} }

func (s *Solver) RunLoop(ctx context.Context, obj minimize.NormObjective, cfg minimize.LoopConfig) (minimize.LoopResult, error) {
	n := len(cfg.Guess)
	y := append([]float64(nil), cfg.Guess...)
	solBefore := append([]float64(nil), y...)

	calls := 0
	iters := 0

	actValue, err := evalBounded(obj, y, cfg.Lower, cfg.Upper)
	calls++
	bestY := append([]float64(nil), y...)
	bestValue := actValue
	if err != nil {
		return minimize.LoopResult{Solution: y, BestY: bestY, BestValue: bestValue, LastY: y, LastValue: actValue, Calls: calls, ActiveParam: 0}, err
	}

	maxCallsPerIter := cfg.MaxCallsPerIteration
	if maxCallsPerIter <= 0 {
		maxCallsPerIter = 1000
	}

	active := 0
	for ; active < n; active++ {
		if ctx.Err() != nil {
			break
		}
		if calls >= cfg.MaxCalls {
			break
		}

		step := cfg.StartStep[active]
		if step == 0 {
			step = 1
		}
		searching := true
		nacc := 0
		callsInAxis := 0

		for {
			if ctx.Err() != nil {
				break
			}
			curStep := math.Abs(step)

			before := actValue
			beforeParam := y[active]
			y[active] += step

			val, evalErr := evalBounded(obj, y, cfg.Lower, cfg.Upper)
			calls++
			callsInAxis++
			actValue = val

			if searching {
				if evalErr != nil || actValue >= before {
					y[active] = beforeParam
					step = -step
					actValue = before
					if callsInAxis > 1 {
						searching = false
						nacc = 0
						step *= contractFactor
					}
				} else if nacc < maxAccelerations {
					step *= accelFactor
					nacc++
				}
			} else {
				step *= contractFactor
				if evalErr != nil || actValue >= before {
					y[active] = beforeParam
					step = -step
					actValue = before
				}
			}

			if actValue < bestValue {
				bestValue = actValue
				bestY = append([]float64(nil), y...)
			}

			if callsInAxis == maxCallsPerIter || curStep < cfg.StopSize || calls >= cfg.MaxCalls {
				iters++
				break
			}
		}
	}

	characteristic := 0.0
	for i := 0; i < n; i++ {
		if d := math.Abs(solBefore[i] - y[i]); d > characteristic {
			characteristic = d
		}
	}

	result := minimize.LoopResult{
		Solution:           y,
		BestY:              bestY,
		BestValue:          bestValue,
		LastY:              y,
		LastValue:          actValue,
		Calls:              calls,
		Iterations:         iters,
		CharacteristicSize: characteristic,
		ActiveParam:        active % n,
	}
	return result, ctx.Err()
}

// evalBounded rejects a point as infinitely bad if it falls outside the
// supplied normalised bounds, letting the caller's search logic treat an
// out-of-bounds trial exactly like a worse chi-square.
func evalBounded(obj minimize.NormObjective, y, lower, upper []float64) (float64, error) {
	for i, v := range lower {
		if !math.IsInf(v, -1) && y[i] < v {
			return math.Inf(1), nil
		}
	}
	for i, v := range upper {
		if !math.IsInf(v, 1) && y[i] > v {
			return math.Inf(1), nil
		}
	}
	return obj(y)
}
