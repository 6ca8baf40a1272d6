// Package kernel precomputes the exponent factors of the separable
// Gaussian beam×line-spread kernel in Fourier space, caching the
// size-dependent xy part and rebuilding the σ_v-dependent v part only when
// σ_v actually changes.
package kernel

import (
	"math"

	"github.com/gigjozsa/tirific-sub001/cube"
)

// invSqrtTwoPi replaces a degenerate (zero) axial sigma so a 1-D
// convolution kernel still integrates to unity, per spec §4.3.
const invSqrtTwoPi = 1.0 / 2.5066282746310002

// Cache holds the five-element static factor vector E = [Axx, Axy, Ayy,
// Avv, A] of spec §3, plus the optional 2-D exponent lookup image and the
// 1-D v-axis lookup array rebuilt for the current σ_v.
type Cache struct {
	SizeX, SizeY, SizeV int

	Axx, Axy, Ayy float64
	Avv           float64
	A             float64

	ExpImage []float64 // optional, (SizeX/2+1)*SizeY, see BuildExpImage
	V        []float64 // size SizeV/2+1, rebuilt by UpdateSigmaV

	sigmaV    float64
	hasSigmaV bool
}

// New computes the σ_v-independent part of the kernel (Axx, Axy, Ayy, A)
// from the beam geometry and cube size. scale folds in any additional
// normalisation the caller needs baked into A (flux-per-point-source,
// σ_rms weighting, ...). beam.MajorDeg and beam.MinorDeg are read as
// half-power beam widths in pixels, not degrees; beam.PADeg is in degrees.
func New(beam cube.BeamInfo, sizeX, sizeY, sizeV int, scale float64) *Cache {
	sigmaMaj := hpbwToSigma(beam.MajorDeg)
	sigmaMin := hpbwToSigma(beam.MinorDeg)
	if sigmaMaj == 0 {
		sigmaMaj = invSqrtTwoPi
	}
	if sigmaMin == 0 {
		sigmaMin = invSqrtTwoPi
	}
	paRad := math.Pi * beam.PADeg / 180.0

	c := &Cache{SizeX: sizeX, SizeY: sizeY, SizeV: sizeV}
	c.buildXY(sigmaMaj, sigmaMin, paRad, scale)
	return c
}

// hpbwToSigma converts a half-power beam width to a Gaussian sigma:
// sigma = HPBW * 0.42466090014401 (spec §6.1).
func hpbwToSigma(hpbw float64) float64 {
	return hpbw * 0.42466090014401
}

func (c *Cache) buildXY(sigmaMaj, sigmaMin, pa, scale float64) {
	sinPA := math.Sin(pa)
	cosPA := math.Cos(pa)

	fx := float64(c.SizeX)
	fy := float64(c.SizeY)

	c.Axx = -2 * math.Pi * math.Pi * (sigmaMin*sigmaMin*cosPA*cosPA + sigmaMaj*sigmaMaj*sinPA*sinPA) / (fx * fx)
	c.Axy = -4 * math.Pi * math.Pi * sinPA * cosPA * (sigmaMin*sigmaMin - sigmaMaj*sigmaMaj) / (fx * fy)
	c.Ayy = -2 * math.Pi * math.Pi * (sigmaMin*sigmaMin*sinPA*sinPA + sigmaMaj*sigmaMaj*cosPA*cosPA) / (fy * fy)

	vSize := float64(c.SizeV)
	if c.SizeV <= 1 {
		vSize = 1 // 2-D cube: no spectral normalisation factor
	}
	c.A = scale * 2 * math.Pi * sigmaMaj * sigmaMin / (fx * fy * vSize)
}

// UpdateSigmaV rebuilds the σ_v-dependent exponent and the V lookup array.
// Calling it again with the same σ_v is a cheap no-op.
func (c *Cache) UpdateSigmaV(sigmaV float64) {
	if c.hasSigmaV && c.sigmaV == sigmaV {
		return
	}
	c.sigmaV = sigmaV
	c.hasSigmaV = true

	fv := float64(c.SizeV)
	c.Avv = -2 * math.Pi * math.Pi * sigmaV * sigmaV / (fv * fv)

	n := c.SizeV/2 + 1
	c.V = make([]float64, n)
	for nv := 0; nv < n; nv++ {
		c.V[nv] = math.Exp(c.Avv*float64(nv*nv)) * c.A
	}
}

// SigmaV reports the σ_v the cache is currently valid for.
func (c *Cache) SigmaV() (float64, bool) {
	return c.sigmaV, c.hasSigmaV
}

// HalfBeam returns a Cache for the weight-map path's beam, scaled by
// sqrt(1/2) in the xy plane, with an additional scale factor folded into A
// (chisq passes flux × unit scale).
func HalfBeam(beam cube.BeamInfo, sizeX, sizeY, sizeV int, scale float64) *Cache {
	sqrtHalf := 1.0 / math.Sqrt2
	half := beam
	half.MajorDeg *= sqrtHalf
	half.MinorDeg *= sqrtHalf
	return New(half, sizeX, sizeY, sizeV, scale)
}

// ExpXY evaluates exp(Axx*nx^2 + Axy*nx*ny + Ayy*ny^2) for a signed
// Fourier index pair, either from the cached lookup image (if built) or
// directly.
func (c *Cache) ExpXY(nx, ny int) float64 {
	if c.ExpImage != nil {
		halfX := c.SizeX/2 + 1
		row := nyquistIndex(ny, c.SizeY)
		col := nx
		if col < 0 || col >= halfX {
			col = nyquistIndex(nx, halfX)
		}
		return c.ExpImage[row*halfX+col]
	}
	fx, fy := float64(nx), float64(ny)
	return math.Exp(c.Axx*fx*fx + c.Axy*fx*fy + c.Ayy*fy*fy)
}

// BuildExpImage tabulates exp(Axx*nx^2 + Axy*nx*ny + Ayy*ny^2) over the
// half-Fourier grid (SizeX/2+1) x SizeY, using Nyquist-correct signed
// coordinates for ny (nx is already non-negative in the half plane).
func (c *Cache) BuildExpImage() {
	halfX := c.SizeX/2 + 1
	img := make([]float64, halfX*c.SizeY)
	for ny := 0; ny < c.SizeY; ny++ {
		signedNy := signedCoord(ny, c.SizeY)
		for nx := 0; nx < halfX; nx++ {
			fx, fy := float64(nx), float64(signedNy)
			img[ny*halfX+nx] = math.Exp(c.Axx*fx*fx + c.Axy*fx*fy + c.Ayy*fy*fy)
		}
	}
	c.ExpImage = img
}

// signedCoord maps an unsigned Fourier bin index in [0, n) to the signed
// frequency convention nx in [0, n/2] ∪ [-n/2+1, -1].
func signedCoord(i, n int) int {
	if i <= n/2 {
		return i
	}
	return i - n
}

func nyquistIndex(signed, n int) int {
	if signed >= 0 {
		return signed
	}
	return signed + n
}
