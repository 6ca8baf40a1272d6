package golden

import (
	"context"
	"testing"

	"github.com/gigjozsa/tirific-sub001/minimize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paraboloid centred at (3,-1): objective(x,y) = (x-3)^2 + (y+1)^2.
func paraboloid(y []float64) (float64, error) {
	dx := y[0] - 3
	dy := y[1] + 1
	return dx*dx + dy*dy, nil
}

func TestS5ConvergesToKnownMinimum(t *testing.T) {
	solver := New()
	cfg := minimize.LoopConfig{
		Guess:                []float64{0, 0},
		StartStep:            []float64{1, 1},
		StopSize:             1e-8,
		MaxCalls:             100000,
		MaxCallsPerIteration: 200,
	}

	var result minimize.LoopResult
	var err error
	for loop := 0; loop < 20; loop++ {
		result, err = solver.RunLoop(context.Background(), paraboloid, cfg)
		require.NoError(t, err)
		cfg.Guess = result.Solution
		cfg.StartStep = []float64{cfg.StartStep[0] * 0.5, cfg.StartStep[1] * 0.5}
	}

	assert.InDelta(t, 3.0, result.Solution[0], 1e-3)
	assert.InDelta(t, -1.0, result.Solution[1], 1e-3)
}

func TestRunLoopRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := New()
	cfg := minimize.LoopConfig{
		Guess:                []float64{5, 5},
		StartStep:            []float64{1, 1},
		StopSize:             1e-8,
		MaxCalls:             100000,
		MaxCallsPerIteration: 200,
	}
	result, err := solver.RunLoop(ctx, paraboloid, cfg)
	assert.Error(t, err)
	assert.NotNil(t, result.Solution)
}

func TestRunLoopHonoursBounds(t *testing.T) {
	solver := New()
	cfg := minimize.LoopConfig{
		Guess:                []float64{0, 0},
		Lower:                []float64{-1, -1},
		Upper:                []float64{1, 1},
		StartStep:            []float64{1, 1},
		StopSize:             1e-8,
		MaxCalls:             5000,
		MaxCallsPerIteration: 200,
	}
	result, err := solver.RunLoop(context.Background(), paraboloid, cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Solution[0], 1.0)
	assert.GreaterOrEqual(t, result.Solution[1], -1.0)
}
