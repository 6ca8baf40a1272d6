// Package convolve implements the FFT-based separable 3-D (or 2-D, when
// SizeV==1) Gaussian convolution at the heart of the χ² engine: one
// real-to-complex transform, a Fourier-space multiplication against a
// kernel.Cache, and one complex-to-real inverse transform.
package convolve

import (
	"fmt"

	"github.com/gigjozsa/tirific-sub001/cube"
	"github.com/gigjozsa/tirific-sub001/kernel"
	"gonum.org/v1/gonum/fourier"
)

// PlanEffort mirrors the FFT planner's time/quality trade-off knob; it has
// no effect on a gonum-backed engine (gonum has no plan-caching strategy
// to tune) beyond being threaded through for interface parity with the
// reference engine and recorded for diagnostics.
type PlanEffort int

const (
	Estimate PlanEffort = iota
	Measure
	Patient
	Exhaustive
)

// Engine owns the forward/inverse FFT machinery for cubes of one fixed
// logical shape. Exactly one engine is built per shape; it is reused
// across every convolution call (plans are never rebuilt per call).
type Engine struct {
	SizeX, SizeY, SizeV int
	HalfX               int
	// OutOfPlace selects how Forward obtains its Fourier-domain slab. When
	// false (in-place), Forward reuses a single scratch buffer owned by
	// the engine across every call instead of allocating afresh; when
	// true, each Forward call returns an independently allocated slab, at
	// the cost of one allocation per convolution. Callers never hold two
	// slabs from the same engine at once today, so in-place is the
	// default; out-of-place exists for callers that need a previous
	// slab to outlive the next Forward call.
	OutOfPlace bool
	Threads    int
	Effort     PlanEffort

	xFFT *fourier.FFT
	yFFT *fourier.CmplxFFT
	vFFT *fourier.CmplxFFT // nil when SizeV == 1 (2-D case)

	slabScratch []complex128 // reused by Forward when !OutOfPlace
}

// NewEngine builds the FFT plans for cubes of shape (sizeX, sizeY, sizeV).
func NewEngine(sizeX, sizeY, sizeV int, outOfPlace bool, threads int, effort PlanEffort) (*Engine, error) {
	if sizeX <= 0 || sizeY <= 0 || sizeV <= 0 {
		return nil, fmt.Errorf("convolve: non-positive cube size")
	}
	if threads <= 0 {
		threads = 1
	}
	e := &Engine{
		SizeX: sizeX, SizeY: sizeY, SizeV: sizeV,
		HalfX: sizeX/2 + 1, OutOfPlace: outOfPlace, Threads: threads, Effort: effort,
	}
	e.xFFT = fourier.NewFFT(sizeX)
	e.yFFT = fourier.NewCmplxFFT(sizeY)
	if sizeV > 1 {
		e.vFFT = fourier.NewCmplxFFT(sizeV)
	}
	return e, nil
}

// Convolve replaces c's meaningful data with its convolution against the
// Gaussian described by xy, per the pseudo-contract of spec §4.3. c must
// already be in the padded (Hermitian-ready) layout. c itself is always
// mutated by the inverse transform regardless of e.OutOfPlace; that flag
// only controls whether the intermediate Fourier-domain slab is a fresh
// allocation or the engine's reused scratch buffer (see Engine.OutOfPlace).
func (e *Engine) Convolve(c *cube.Cube, xy *kernel.Cache) error {
	if c.SizeX != e.SizeX || c.SizeY != e.SizeY || c.SizeV != e.SizeV {
		return fmt.Errorf("convolve: cube shape (%d,%d,%d) does not match engine shape (%d,%d,%d)",
			c.SizeX, c.SizeY, c.SizeV, e.SizeX, e.SizeY, e.SizeV)
	}
	if !c.Padding {
		c.Pad()
	}

	slab := e.Forward(c)
	e.Multiply(slab, xy)
	e.Inverse(slab, c)
	return nil
}

// SlabSize returns the number of complex128 elements in one Fourier-space
// slab for this engine's cube shape.
func (e *Engine) SlabSize() int {
	return e.HalfX * e.SizeY * e.SizeV
}

// SlabIndex returns the flat index of Fourier bin (kx, ky, kv) within a
// slab produced by Forward.
func (e *Engine) SlabIndex(kx, ky, kv int) int {
	return e.slabIndex(kx, ky, kv)
}

// Forward computes the half-complex 3-D FFT of c into a slab of size
// HalfX*SizeY*SizeV, ordered [ix + HalfX*(iy + SizeY*iv)] — freshly
// allocated when e.OutOfPlace, otherwise the engine's reused scratch
// buffer, valid until the next Forward call on this engine. Exported so
// callers (e.g. weight.Builder) that need to touch the Fourier-space
// representation between the forward and inverse transforms can do so.
func (e *Engine) Forward(c *cube.Cube) []complex128 {
	size := e.HalfX * e.SizeY * e.SizeV
	var slab []complex128
	if e.OutOfPlace {
		slab = make([]complex128, size)
	} else {
		if cap(e.slabScratch) < size {
			e.slabScratch = make([]complex128, size)
		}
		slab = e.slabScratch[:size]
	}

	// x axis: real -> half-complex, per (y, v) row.
	row := make([]float64, e.SizeX)
	for iv := 0; iv < e.SizeV; iv++ {
		for iy := 0; iy < e.SizeY; iy++ {
			for ix := 0; ix < e.SizeX; ix++ {
				row[ix] = float64(c.At(ix, iy, iv))
			}
			coeffs := e.xFFT.Coefficients(nil, row)
			base := e.slabRowOffset(iy, iv)
			copy(slab[base:base+e.HalfX], coeffs)
		}
	}

	// y axis: complex -> complex, per (kx, v) column.
	if e.SizeY > 1 {
		col := make([]complex128, e.SizeY)
		for iv := 0; iv < e.SizeV; iv++ {
			for kx := 0; kx < e.HalfX; kx++ {
				for iy := 0; iy < e.SizeY; iy++ {
					col[iy] = slab[e.slabIndex(kx, iy, iv)]
				}
				out := e.yFFT.Coefficients(nil, col)
				for iy := 0; iy < e.SizeY; iy++ {
					slab[e.slabIndex(kx, iy, iv)] = out[iy]
				}
			}
		}
	}

	// v axis: complex -> complex, per (kx, ky) column. Absent for 2-D cubes.
	if e.vFFT != nil {
		col := make([]complex128, e.SizeV)
		for ky := 0; ky < e.SizeY; ky++ {
			for kx := 0; kx < e.HalfX; kx++ {
				for iv := 0; iv < e.SizeV; iv++ {
					col[iv] = slab[e.slabIndex(kx, ky, iv)]
				}
				out := e.vFFT.Coefficients(nil, col)
				for iv := 0; iv < e.SizeV; iv++ {
					slab[e.slabIndex(kx, ky, iv)] = out[iv]
				}
			}
		}
	}

	return slab
}

// Inverse runs the three transforms in reverse and writes the real result
// back into c's padded buffer.
func (e *Engine) Inverse(slab []complex128, c *cube.Cube) {
	if e.vFFT != nil {
		col := make([]complex128, e.SizeV)
		for ky := 0; ky < e.SizeY; ky++ {
			for kx := 0; kx < e.HalfX; kx++ {
				for iv := 0; iv < e.SizeV; iv++ {
					col[iv] = slab[e.slabIndex(kx, ky, iv)]
				}
				out := e.vFFT.Sequence(nil, col)
				for iv := 0; iv < e.SizeV; iv++ {
					slab[e.slabIndex(kx, ky, iv)] = out[iv]
				}
			}
		}
	}

	if e.SizeY > 1 {
		col := make([]complex128, e.SizeY)
		for iv := 0; iv < e.SizeV; iv++ {
			for kx := 0; kx < e.HalfX; kx++ {
				for iy := 0; iy < e.SizeY; iy++ {
					col[iy] = slab[e.slabIndex(kx, iy, iv)]
				}
				out := e.yFFT.Sequence(nil, col)
				for iy := 0; iy < e.SizeY; iy++ {
					slab[e.slabIndex(kx, iy, iv)] = out[iy]
				}
			}
		}
	}

	row := make([]complex128, e.HalfX)
	for iv := 0; iv < e.SizeV; iv++ {
		for iy := 0; iy < e.SizeY; iy++ {
			base := e.slabRowOffset(iy, iv)
			copy(row, slab[base:base+e.HalfX])
			out := e.xFFT.Sequence(nil, row)
			for ix := 0; ix < e.SizeX; ix++ {
				c.Set(ix, iy, iv, float32(out[ix]))
			}
		}
	}
}

// Multiply applies the kernel in Fourier space per the pseudo-contract of
// spec §4.3: the Nyquist v-bin (when SizeV is even) gets one multiply,
// and every other nv in [1, (SizeV-1)/2] is applied simultaneously to its
// Hermitian mirror SizeV-nv, reusing the single kernel evaluation g.
func (e *Engine) Multiply(slab []complex128, xy *kernel.Cache) {
	for ky := 0; ky < e.SizeY; ky++ {
		signedKy := signedCoord(ky, e.SizeY)
		for kx := 0; kx < e.HalfX; kx++ {
			g0 := xy.ExpXY(kx, signedKy)

			slab[e.slabIndex(kx, ky, 0)] *= complex(g0*xy.V[0], 0)

			if e.SizeV%2 == 0 && e.SizeV > 1 {
				nyq := e.SizeV / 2
				slab[e.slabIndex(kx, ky, nyq)] *= complex(g0*xy.V[nyq], 0)
			}

			for nv := 1; nv <= (e.SizeV-1)/2; nv++ {
				g := complex(g0*xy.V[nv], 0)
				slab[e.slabIndex(kx, ky, nv)] *= g
				slab[e.slabIndex(kx, ky, e.SizeV-nv)] *= g
			}
		}
	}
}

func (e *Engine) slabIndex(kx, ky, kv int) int {
	return kx + e.HalfX*(ky+e.SizeY*kv)
}

func (e *Engine) slabRowOffset(ky, kv int) int {
	return e.slabIndex(0, ky, kv)
}

// signedCoord maps an unsigned bin index in [0,n) to the signed frequency
// convention used by kernel.Cache: [0, n/2] ∪ [-n/2+1, -1].
func signedCoord(i, n int) int {
	if i <= n/2 {
		return i
	}
	return i - n
}
