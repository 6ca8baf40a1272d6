package cube

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	c, err := New(4, 4, 3)
	require.NoError(t, err)
	c.WCS = WCS{
		X: Axis{CType: "RA---SIN", CRPix: 2, CRVal: 10.0, CDelt: -0.001},
		Y: Axis{CType: "DEC--SIN", CRPix: 2, CRVal: -30.0, CDelt: 0.001},
		V: Axis{CType: "VELO-HEL", CRPix: 1, CRVal: 1000.0, CDelt: 5.0},
	}
	c.Epoch = 2000.0
	c.Unit = "JY/BEAM"
	c.BScale = 1.0
	c.BZero = 0.0
	c.RestFreq = DefaultRestFreqHI
	c.Beam = BeamInfo{MajorDeg: 0.01, MinorDeg: 0.008, PADeg: 30}

	for iv := 0; iv < c.SizeV; iv++ {
		for iy := 0; iy < c.SizeY; iy++ {
			for ix := 0; ix < c.SizeX; ix++ {
				c.Set(ix, iy, iv, float32(ix+10*iy+100*iv))
			}
		}
	}

	path := filepath.Join(t.TempDir(), "cube.fits")
	require.NoError(t, c.Write(path, nil))

	got, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, c.SizeX, got.SizeX)
	assert.Equal(t, c.SizeY, got.SizeY)
	assert.Equal(t, c.SizeV, got.SizeV)
	assert.InDelta(t, c.Epoch, got.Epoch, 1e-9)
	assert.Equal(t, c.Unit, got.Unit)
	assert.InDelta(t, c.WCS.X.CRVal, got.WCS.X.CRVal, 1e-9)
	assert.InDelta(t, c.WCS.V.CDelt, got.WCS.V.CDelt, 1e-9)

	for iv := 0; iv < c.SizeV; iv++ {
		for iy := 0; iy < c.SizeY; iy++ {
			for ix := 0; ix < c.SizeX; ix++ {
				assert.InDelta(t, c.At(ix, iy, iv), got.At(ix, iy, iv), 1e-4)
			}
		}
	}
}
