package cube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStride(t *testing.T) {
	c, err := New(7, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, c.StrideX())
	assert.False(t, c.Padding)
	assert.Equal(t, 7*4*3, len(c.Data))
	assert.GreaterOrEqual(t, cap(c.Data), 3*4*2*(7/2+1))
}

func TestNewRejectsNonPositive(t *testing.T) {
	_, err := New(0, 4, 3)
	assert.Error(t, err)
}

func TestPadUnpadInvolution(t *testing.T) {
	c, err := New(7, 4, 3)
	require.NoError(t, err)
	for iv := 0; iv < c.SizeV; iv++ {
		for iy := 0; iy < c.SizeY; iy++ {
			for ix := 0; ix < c.SizeX; ix++ {
				c.Set(ix, iy, iv, float32(ix+10*iy+100*iv))
			}
		}
	}
	before := c.Copy()

	c.Pad()
	assert.True(t, c.Padding)
	assert.Equal(t, 2*(7/2+1), c.StrideX())

	c.Unpad()
	assert.False(t, c.Padding)

	for iv := 0; iv < c.SizeV; iv++ {
		for iy := 0; iy < c.SizeY; iy++ {
			for ix := 0; ix < c.SizeX; ix++ {
				assert.Equal(t, before.At(ix, iy, iv), c.At(ix, iy, iv))
			}
		}
	}
}

func TestPadIsNoOpWhenAlreadyPadded(t *testing.T) {
	c, err := New(6, 5, 2)
	require.NoError(t, err)
	c.Pad()
	data := c.Data
	c.Pad()
	assert.Same(t, &data[0], &c.Data[0])
}

func TestCopyIsDeep(t *testing.T) {
	c, err := New(4, 4, 2)
	require.NoError(t, err)
	c.Set(0, 0, 0, 42)
	cp := c.Copy()
	cp.Set(0, 0, 0, 7)
	assert.Equal(t, float32(42), c.At(0, 0, 0))
	assert.Equal(t, float32(7), cp.At(0, 0, 0))
}

func TestZero(t *testing.T) {
	c, err := New(3, 3, 1)
	require.NoError(t, err)
	c.Set(1, 1, 0, 9)
	c.Zero()
	for _, v := range c.Data {
		assert.Equal(t, float32(0), v)
	}
}
