package cube

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatBasic(t *testing.T) {
	c, err := New(2, 2, 2)
	require.NoError(t, err)
	vals := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	i := 0
	for iv := 0; iv < 2; iv++ {
		for iy := 0; iy < 2; iy++ {
			for ix := 0; ix < 2; ix++ {
				c.Set(ix, iy, iv, vals[i])
				i++
			}
		}
	}
	s := c.Stat()
	assert.Equal(t, 8, s.NFinite)
	assert.Equal(t, 0, s.NFlagged)
	assert.Equal(t, float64(1), s.Min)
	assert.Equal(t, float64(8), s.Max)
	assert.InDelta(t, 4.5, s.Mean, 1e-9)
}

func TestStatSkipsNonFinite(t *testing.T) {
	c, err := New(2, 2, 1)
	require.NoError(t, err)
	c.Set(0, 0, 0, float32(math.NaN()))
	c.Set(1, 0, 0, 1)
	c.Set(0, 1, 0, 2)
	c.Set(1, 1, 0, float32(math.Inf(1)))
	s := c.Stat()
	assert.Equal(t, 2, s.NFinite)
	assert.Equal(t, 2, s.NFlagged)
}
