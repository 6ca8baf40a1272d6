package simplex

import (
	"context"
	"testing"

	"github.com/gigjozsa/tirific-sub001/minimize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paraboloid(y []float64) (float64, error) {
	dx := y[0] - 3
	dy := y[1] + 1
	return dx*dx + dy*dy, nil
}

func TestConvergesToKnownMinimum(t *testing.T) {
	solver := New()
	cfg := minimize.LoopConfig{
		Guess:         []float64{0, 0},
		StartStep:     []float64{1, 1},
		StopSize:      1e-9,
		MaxCalls:      10000,
		MaxIterations: 2000,
	}
	result, err := solver.RunLoop(context.Background(), paraboloid, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, result.Solution[0], 1e-3)
	assert.InDelta(t, -1.0, result.Solution[1], 1e-3)
}

func TestDiameterShrinksAcrossLoops(t *testing.T) {
	solver := New()
	cfg := minimize.LoopConfig{
		Guess:         []float64{10, 10},
		StartStep:     []float64{2, 2},
		StopSize:      1e-9,
		MaxCalls:      50,
		MaxIterations: 20,
	}
	first, err := solver.RunLoop(context.Background(), paraboloid, cfg)
	require.NoError(t, err)

	cfg.Guess = first.Solution
	cfg.MaxCalls = 10000
	cfg.MaxIterations = 2000
	second, err := solver.RunLoop(context.Background(), paraboloid, cfg)
	require.NoError(t, err)

	assert.Less(t, second.CharacteristicSize, first.CharacteristicSize+1e-6)
}

func TestRunLoopRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := New()
	cfg := minimize.LoopConfig{
		Guess:         []float64{5, 5},
		StartStep:     []float64{1, 1},
		StopSize:      1e-9,
		MaxCalls:      10000,
		MaxIterations: 2000,
	}
	result, err := solver.RunLoop(ctx, paraboloid, cfg)
	assert.Error(t, err)
	assert.NotNil(t, result.Solution)
}
