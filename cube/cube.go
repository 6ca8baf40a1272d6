// Package cube implements the immutable-shape 3-D float grid used by the
// χ² engine: a padded-row pixel buffer plus the FITS-level metadata needed
// to read, write and convert pixel/world coordinates for a spectral-line
// data cube.
package cube

import "fmt"

// BeamInfo describes the instrumental point-spread function: an elliptical
// Gaussian in (x, y) given by its half-power beam widths in degrees and a
// position angle, also in degrees, measured North through East.
type BeamInfo struct {
	MajorDeg float64 `yaml:"major_deg" desc:"beam HPBW, major axis, degrees"`
	MinorDeg float64 `yaml:"minor_deg" desc:"beam HPBW, minor axis, degrees"`
	PADeg    float64 `yaml:"pa_deg" desc:"beam position angle, degrees, N through E"`
}

// Cube is a 3-D regular grid of single-precision intensity samples plus the
// WCS and beam metadata carried by a FITS spectral-line cube.
//
// The physical x-row stride is StrideX() elements. When Padding is true it
// equals 2*(SizeX/2+1) so an in-place real-to-complex FFT can store its
// Hermitian output without reallocation; the trailing columns beyond SizeX
// are then reserved, not meaningful. When Padding is false the stride
// equals SizeX and every element is meaningful.
type Cube struct {
	SizeX, SizeY, SizeV int
	Padding             bool
	Data                []float32

	WCS  WCS
	Beam BeamInfo

	RestFreq float64 `desc:"rest frequency, Hz; defaults to HI 1.420405751786e9"`
	VObs     float64 `desc:"observing velocity, m/s"`
	CellScal string  `desc:"CELLSCAL header value, e.g. CONSTANT or 1/F"`
	BScale   float64
	BZero    float64
	BType    string
	Unit     string `desc:"BUNIT"`
	Epoch    float64
}

// DefaultRestFreqHI is the rest frequency of the HI 21cm line in Hz.
const DefaultRestFreqHI = 1.420405751786e9

// New allocates a cube of the given logical size. The returned cube starts
// unpadded (every column of every x-row is meaningful) but its backing
// array already has the capacity required for the padded layout, so a
// subsequent Pad() never needs to reallocate.
func New(sizeX, sizeY, sizeV int) (*Cube, error) {
	if sizeX <= 0 || sizeY <= 0 || sizeV <= 0 {
		return nil, fmt.Errorf("cube: non-positive size (%d,%d,%d)", sizeX, sizeY, sizeV)
	}
	c := &Cube{SizeX: sizeX, SizeY: sizeY, SizeV: sizeV}
	paddedStride := 2 * (sizeX/2 + 1)
	total := sizeV * sizeY * sizeX
	paddedTotal := sizeV * sizeY * paddedStride
	c.Data = make([]float32, total, paddedTotal)
	c.RestFreq = DefaultRestFreqHI
	return c, nil
}

// StrideX returns the physical number of float32 elements per x-row.
func (c *Cube) StrideX() int {
	if c.Padding {
		return 2 * (c.SizeX/2 + 1)
	}
	return c.SizeX
}

func (c *Cube) index(ix, iy, iv int) int {
	stride := c.StrideX()
	return iv*stride*c.SizeY + iy*stride + ix
}

// At returns the value at the logical voxel (ix, iy, iv), ix in [0,SizeX).
func (c *Cube) At(ix, iy, iv int) float32 {
	return c.Data[c.index(ix, iy, iv)]
}

// Set stores a value at the logical voxel (ix, iy, iv).
func (c *Cube) Set(ix, iy, iv int, v float32) {
	c.Data[c.index(ix, iy, iv)] = v
}

// Pad toggles the cube into the Hermitian padded layout, interleaving
// reserved columns into every x-row. It is a no-op if already padded.
func (c *Cube) Pad() {
	if c.Padding {
		return
	}
	oldStride := c.SizeX
	newStride := 2 * (c.SizeX/2 + 1)
	needed := c.SizeV * c.SizeY * newStride

	var dst []float32
	if cap(c.Data) >= needed {
		dst = c.Data[:needed]
	} else {
		dst = make([]float32, needed)
	}

	rows := c.SizeV * c.SizeY
	// Walk rows back to front so the widening copy never overwrites
	// source data it has not read yet, whether or not dst aliases Data.
	for r := rows - 1; r >= 0; r-- {
		srcOff := r * oldStride
		dstOff := r * newStride
		copy(dst[dstOff:dstOff+oldStride], c.Data[srcOff:srcOff+oldStride])
		for k := oldStride; k < newStride; k++ {
			dst[dstOff+k] = 0
		}
	}
	c.Data = dst
	c.Padding = true
}

// Unpad toggles the cube back to the compact layout, de-interleaving the
// reserved columns out of every x-row. It is a no-op if already unpadded.
func (c *Cube) Unpad() {
	if !c.Padding {
		return
	}
	oldStride := 2 * (c.SizeX/2 + 1)
	newStride := c.SizeX
	rows := c.SizeV * c.SizeY

	for r := 0; r < rows; r++ {
		srcOff := r * oldStride
		dstOff := r * newStride
		copy(c.Data[dstOff:dstOff+newStride], c.Data[srcOff:srcOff+newStride])
	}
	c.Data = c.Data[:rows*newStride]
	c.Padding = false
}

// Copy returns a deep copy, including header-derived metadata.
func (c *Cube) Copy() *Cube {
	out := *c
	out.Data = make([]float32, len(c.Data))
	copy(out.Data, c.Data)
	return &out
}

// Zero resets every element (meaningful or reserved) to zero, without
// touching shape or metadata.
func (c *Cube) Zero() {
	for i := range c.Data {
		c.Data[i] = 0
	}
}
