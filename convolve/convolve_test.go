package convolve

import (
	"testing"

	"github.com/gigjozsa/tirific-sub001/cube"
	"github.com/gigjozsa/tirific-sub001/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointSource(t *testing.T, sizeX, sizeY, sizeV, cx, cy, cv int, flux float32) *cube.Cube {
	t.Helper()
	c, err := cube.New(sizeX, sizeY, sizeV)
	require.NoError(t, err)
	c.Set(cx, cy, cv, flux)
	return c
}

func TestNewEngineRejectsBadShape(t *testing.T) {
	_, err := NewEngine(0, 4, 4, false, 1, Estimate)
	assert.Error(t, err)
}

func TestConvolveShapeMismatch(t *testing.T) {
	e, err := NewEngine(8, 8, 4, false, 1, Estimate)
	require.NoError(t, err)
	c, err := cube.New(4, 4, 4)
	require.NoError(t, err)
	k := kernel.New(cube.BeamInfo{MajorDeg: 1, MinorDeg: 1}, 4, 4, 4, 1)
	k.UpdateSigmaV(1)
	assert.Error(t, e.Convolve(c, k))
}

func TestConvolvePeakAtPointSource(t *testing.T) {
	sizeX, sizeY, sizeV := 16, 16, 8
	cx, cy, cv := 8, 8, 4

	e, err := NewEngine(sizeX, sizeY, sizeV, false, 1, Estimate)
	require.NoError(t, err)
	k := kernel.New(cube.BeamInfo{MajorDeg: 2, MinorDeg: 2, PADeg: 0}, sizeX, sizeY, sizeV, 1.0)
	k.UpdateSigmaV(1.0)

	c := pointSource(t, sizeX, sizeY, sizeV, cx, cy, cv, 1.0)
	require.NoError(t, e.Convolve(c, k))

	peak := c.At(cx, cy, cv)
	assert.Greater(t, peak, float32(0))

	// Values should decay monotonically away from the point source along x.
	assert.Greater(t, peak, c.At(cx+1, cy, cv))
	assert.Greater(t, c.At(cx+1, cy, cv), c.At(cx+2, cy, cv))
	// ... and along v.
	assert.Greater(t, peak, c.At(cx, cy, cv+1))
}

func TestConvolveDeterministic(t *testing.T) {
	sizeX, sizeY, sizeV := 8, 8, 4
	e, err := NewEngine(sizeX, sizeY, sizeV, false, 1, Estimate)
	require.NoError(t, err)
	k := kernel.New(cube.BeamInfo{MajorDeg: 2, MinorDeg: 1.5, PADeg: 30}, sizeX, sizeY, sizeV, 1.0)
	k.UpdateSigmaV(0.8)

	c1 := pointSource(t, sizeX, sizeY, sizeV, 3, 2, 1, 2.0)
	c2 := c1.Copy()

	require.NoError(t, e.Convolve(c1, k))
	require.NoError(t, e.Convolve(c2, k))

	for i := range c1.Data {
		assert.InDelta(t, c1.Data[i], c2.Data[i], 1e-6)
	}
}

func TestConvolveOutOfPlaceMatchesInPlace(t *testing.T) {
	sizeX, sizeY, sizeV := 8, 8, 4
	k := kernel.New(cube.BeamInfo{MajorDeg: 2, MinorDeg: 1.5, PADeg: 30}, sizeX, sizeY, sizeV, 1.0)
	k.UpdateSigmaV(0.8)

	inPlace, err := NewEngine(sizeX, sizeY, sizeV, false, 1, Estimate)
	require.NoError(t, err)
	outOfPlace, err := NewEngine(sizeX, sizeY, sizeV, true, 1, Estimate)
	require.NoError(t, err)

	c1 := pointSource(t, sizeX, sizeY, sizeV, 3, 2, 1, 2.0)
	c2 := c1.Copy()

	require.NoError(t, inPlace.Convolve(c1, k))
	require.NoError(t, outOfPlace.Convolve(c2, k))

	for i := range c1.Data {
		assert.InDelta(t, c1.Data[i], c2.Data[i], 1e-6)
	}
}

func TestForwardInPlaceReusesScratchAcrossCalls(t *testing.T) {
	sizeX, sizeY, sizeV := 8, 8, 4
	inPlace, err := NewEngine(sizeX, sizeY, sizeV, false, 1, Estimate)
	require.NoError(t, err)
	c := pointSource(t, sizeX, sizeY, sizeV, 1, 1, 1, 1.0)

	first := inPlace.Forward(c)
	second := inPlace.Forward(c)
	assert.Same(t, &first[:1][0], &second[:1][0])

	outOfPlace, err := NewEngine(sizeX, sizeY, sizeV, true, 1, Estimate)
	require.NoError(t, err)
	third := outOfPlace.Forward(c)
	fourth := outOfPlace.Forward(c)
	assert.NotSame(t, &third[:1][0], &fourth[:1][0])
}

func TestConvolve2DCubeHasNoVLoop(t *testing.T) {
	e, err := NewEngine(8, 8, 1, false, 1, Estimate)
	require.NoError(t, err)
	assert.Nil(t, e.vFFT)
	k := kernel.New(cube.BeamInfo{MajorDeg: 2, MinorDeg: 2}, 8, 8, 1, 1.0)
	k.UpdateSigmaV(0)
	c := pointSource(t, 8, 8, 1, 4, 4, 0, 1.0)
	require.NoError(t, e.Convolve(c, k))
	assert.Greater(t, c.At(4, 4, 0), float32(0))
}
