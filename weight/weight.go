// Package weight builds the spatially varying inverse-noise weight cube
// w(x,y,v) used by the χ² accumulator when quantization noise from the
// point-source representation is taken into account alongside detector
// noise.
package weight

import (
	"github.com/gigjozsa/tirific-sub001/convolve"
	"github.com/gigjozsa/tirific-sub001/cube"
	"github.com/gigjozsa/tirific-sub001/kernel"
)

// Builder populates w = (P ⋆ g_half) + σ_rms²·noiseweight², per spec §4.4.
// g_half is a Gaussian of sqrt(1/2) the linear beam sigmas. The half-beam
// kernel's A factor carries only the scale passed to kernel.HalfBeam at
// construction time (chisq.Engine passes flux-per-point-source times the
// unit scale); Build adds no σ_rms weighting or σ_v-dependent velocity
// normalisation to the convolved term.
type Builder struct {
	HalfBeam    *kernel.Cache
	SigmaRMS    float64
	NoiseWeight float64
}

// NewBuilder constructs a weight-map builder around an already-built
// half-beam kernel cache (see kernel.HalfBeam).
func NewBuilder(halfBeam *kernel.Cache, sigmaRMS, noiseWeight float64) *Builder {
	return &Builder{HalfBeam: halfBeam, SigmaRMS: sigmaRMS, NoiseWeight: noiseWeight}
}

// Build runs the point-source realization model through the convolution
// engine using the half-beam kernel, injects the detector-noise baseline
// into the DC Fourier coefficient before the inverse transform, and
// returns the resulting weight cube w directly — w is never explicitly
// inverted; callers divide by it (see chisq.Engine).
func (b *Builder) Build(model *cube.Cube, engine *convolve.Engine) (*cube.Cube, error) {
	w := model.Copy()
	if !w.Padding {
		w.Pad()
	}

	slab := engine.Forward(w)
	engine.Multiply(slab, b.HalfBeam)

	// The inverse transform is unnormalised, so a DC coefficient of c comes
	// back as the constant c in every voxel.
	baseline := b.SigmaRMS * b.SigmaRMS * b.NoiseWeight * b.NoiseWeight
	dc := engine.SlabIndex(0, 0, 0)
	slab[dc] += complex(baseline, 0)

	engine.Inverse(slab, w)
	return w, nil
}
