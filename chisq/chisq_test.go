package chisq

import (
	"math"
	"testing"

	"github.com/gigjozsa/tirific-sub001/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCubes(t *testing.T, sx, sy, sv int) (*cube.Cube, *cube.Cube) {
	t.Helper()
	o, err := cube.New(sx, sy, sv)
	require.NoError(t, err)
	p, err := cube.New(sx, sy, sv)
	require.NoError(t, err)
	return o, p
}

// S1: all-zero cubes, bit 0 clear -> chi2 == 0 for every sigma_v.
func TestS1AllZeroChiSquareIsZero(t *testing.T) {
	o, p := newCubes(t, 8, 8, 4)
	e, err := NewEngine(o, p, EngineConfig{
		Beam: cube.BeamInfo{MajorDeg: 2, MinorDeg: 2}, Scale: 1, SigmaRMS: 1, Threads: 2,
	})
	require.NoError(t, err)

	for _, sv := range []float64{0.5, 1.0, 2.0} {
		chi2, err := e.Evaluate(sv)
		require.NoError(t, err)
		assert.InDelta(t, 0, chi2, 1e-6)
	}
}

// S2: O = ones, P = zero, sigma_rms=1, bit0 clear -> chi2 == X*Y*V.
func TestS2PureNoise(t *testing.T) {
	sx, sy, sv := 8, 8, 4
	o, p := newCubes(t, sx, sy, sv)
	for iv := 0; iv < sv; iv++ {
		for iy := 0; iy < sy; iy++ {
			for ix := 0; ix < sx; ix++ {
				o.Set(ix, iy, iv, 1.0)
			}
		}
	}
	e, err := NewEngine(o, p, EngineConfig{
		Beam: cube.BeamInfo{MajorDeg: 2, MinorDeg: 2}, Scale: 1, SigmaRMS: 1, Threads: 1,
	})
	require.NoError(t, err)
	chi2, err := e.Evaluate(1.0)
	require.NoError(t, err)
	assert.InDelta(t, float64(sx*sy*sv), chi2, 1e-3)
}

// S3: as S2 but O[0,0,0] = NaN -> chi2 == 255 after RefreshFlags (for an
// 8x8x4 = 256 voxel cube, one flagged).
func TestS3FlagMask(t *testing.T) {
	sx, sy, sv := 8, 8, 4
	o, p := newCubes(t, sx, sy, sv)
	for iv := 0; iv < sv; iv++ {
		for iy := 0; iy < sy; iy++ {
			for ix := 0; ix < sx; ix++ {
				o.Set(ix, iy, iv, 1.0)
			}
		}
	}
	o.Set(0, 0, 0, float32(math.NaN()))

	e, err := NewEngine(o, p, EngineConfig{
		Beam: cube.BeamInfo{MajorDeg: 2, MinorDeg: 2}, Scale: 1, SigmaRMS: 1, Threads: 1,
	})
	require.NoError(t, err)
	e.RefreshFlags()

	chi2, err := e.Evaluate(1.0)
	require.NoError(t, err)
	assert.InDelta(t, float64(sx*sy*sv-1), chi2, 1e-3)
}

func TestEvaluateDeterministic(t *testing.T) {
	sx, sy, sv := 8, 8, 4
	o, p := newCubes(t, sx, sy, sv)
	o.Set(3, 3, 1, 2.0)
	p.Set(4, 4, 2, 1.0)

	e, err := NewEngine(o, p, EngineConfig{
		Beam: cube.BeamInfo{MajorDeg: 2, MinorDeg: 2}, Scale: 1, SigmaRMS: 1, Threads: 4,
	})
	require.NoError(t, err)

	chi2a, err := e.Evaluate(1.0)
	require.NoError(t, err)

	// Re-populate P (Evaluate overwrites it with the convolved model).
	p.Zero()
	p.Set(4, 4, 2, 1.0)
	chi2b, err := e.Evaluate(1.0)
	require.NoError(t, err)

	assert.InDelta(t, chi2a, chi2b, 1e-6)
}

func TestWeightMapModeIdempotentChiSquare(t *testing.T) {
	sx, sy, sv := 8, 8, 4
	o, p := newCubes(t, sx, sy, sv)
	o.Set(3, 3, 1, 2.0)
	p.Set(4, 4, 2, 1.0)

	cfg := EngineConfig{
		Beam: cube.BeamInfo{MajorDeg: 2, MinorDeg: 2}, Scale: 1, Flux: 1,
		SigmaRMS: 1, NoiseWeight: 1, Mode: ModeWeightMap, Threads: 2,
	}

	e1, err := NewEngine(o.Copy(), p.Copy(), cfg)
	require.NoError(t, err)
	chi2a, err := e1.Evaluate(1.0)
	require.NoError(t, err)

	e2, err := NewEngine(o.Copy(), p.Copy(), cfg)
	require.NoError(t, err)
	chi2b, err := e2.Evaluate(1.0)
	require.NoError(t, err)

	assert.InDelta(t, chi2a, chi2b, 1e-6)
}

func TestNewEngineRejectsShapeMismatch(t *testing.T) {
	o, err := cube.New(8, 8, 4)
	require.NoError(t, err)
	p, err := cube.New(4, 4, 4)
	require.NoError(t, err)
	_, err = NewEngine(o, p, EngineConfig{Threads: 1})
	assert.Error(t, err)
}

func TestProbabilityMonotonic(t *testing.T) {
	o, p := newCubes(t, 4, 4, 2)
	e, err := NewEngine(o, p, EngineConfig{
		Beam: cube.BeamInfo{MajorDeg: 2, MinorDeg: 2}, Scale: 1, SigmaRMS: 1, Threads: 1,
	})
	require.NoError(t, err)
	low := e.Probability(1.0, 5)
	high := e.Probability(20.0, 5)
	assert.Greater(t, low, high)
}
