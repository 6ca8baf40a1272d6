// Package chisq ties the convolution engine, kernel caches and weight
// builder together into the single-call χ² evaluation described in
// spec §4.5/§6.1: given an observation cube O and a point-source
// realization P, it returns Σ w·(O−M)² where M is P convolved with the
// instrumental beam and line-spread function.
package chisq

import (
	"fmt"
	"sync"

	"github.com/gigjozsa/tirific-sub001/convolve"
	"github.com/gigjozsa/tirific-sub001/cube"
	"github.com/gigjozsa/tirific-sub001/kernel"
	"github.com/gigjozsa/tirific-sub001/weight"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mode bits, per spec §6.1.
const (
	ModeWeightMap  = 1 << 0
	ModeExpLookup  = 1 << 1
	ModeOutOfPlace = 1 << 2
)

// EngineConfig bundles the per-initialisation parameters of spec §6.1.
type EngineConfig struct {
	Beam        cube.BeamInfo // HPBWs in pixels, PA in degrees (see kernel.New)
	Scale       float64       // converts P's unit to O's unit
	Flux        float64 // flux per point source
	SigmaRMS    float64
	Mode        int
	NoiseWeight float64
	Effort      convolve.PlanEffort
	Threads     int
}

// Engine owns the observation/model cubes, the FFT plans, the kernel
// caches and the thread-pool partial-sum buffer for one χ² evaluation
// context (spec §3 ModelState). Unlike the reference implementation,
// which keeps this state in file-static globals, every Engine value is
// independent and multiple engines may coexist.
type Engine struct {
	O, P *cube.Cube
	cfg  EngineConfig

	hasWeightCube bool
	useExpCache   bool
	outOfPlaceFFT bool

	conv     *convolve.Engine
	fullBeam *kernel.Cache
	halfBeam *kernel.Cache
	wBuilder *weight.Builder

	reduce reducer
}

// NewEngine validates that O and P share shape, builds the FFT plans and
// kernel caches, and selects the flagged/unflagged reduction strategy by
// scanning O once for non-finite samples.
func NewEngine(obs, model *cube.Cube, cfg EngineConfig) (*Engine, error) {
	if obs.SizeX != model.SizeX || obs.SizeY != model.SizeY || obs.SizeV != model.SizeV {
		return nil, fmt.Errorf("chisq: observation and model cube shapes differ")
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}

	hasWeight := cfg.Mode&ModeWeightMap != 0
	noiseWeight := cfg.NoiseWeight
	if !hasWeight {
		noiseWeight = 1 // forced to 1 when bit 0 is clear, per spec §6.1
	}
	cfg.NoiseWeight = noiseWeight

	e := &Engine{
		O: obs, P: model, cfg: cfg,
		hasWeightCube: hasWeight,
		useExpCache:   cfg.Mode&ModeExpLookup != 0,
		outOfPlaceFFT: cfg.Mode&ModeOutOfPlace != 0,
	}

	conv, err := convolve.NewEngine(obs.SizeX, obs.SizeY, obs.SizeV, e.outOfPlaceFFT, cfg.Threads, cfg.Effort)
	if err != nil {
		return nil, fmt.Errorf("chisq: %w", err)
	}
	e.conv = conv

	e.fullBeam = kernel.New(cfg.Beam, obs.SizeX, obs.SizeY, obs.SizeV, cfg.Scale)
	if e.useExpCache {
		e.fullBeam.BuildExpImage()
	}

	if hasWeight {
		weightScale := cfg.Flux * cfg.Scale
		e.halfBeam = kernel.HalfBeam(cfg.Beam, obs.SizeX, obs.SizeY, obs.SizeV, weightScale)
		if e.useExpCache {
			e.halfBeam.BuildExpImage()
		}
		e.wBuilder = weight.NewBuilder(e.halfBeam, cfg.SigmaRMS, cfg.NoiseWeight)
	}

	e.RefreshFlags()
	return e, nil
}

// RefreshFlags rescans O for non-finite samples and re-selects the
// reduction strategy. Not an error condition: flagged samples are simply
// excluded from the sum.
func (e *Engine) RefreshFlags() {
	if hasNonFinite(e.O.Data, e.O.StrideX(), e.O.SizeX, e.O.SizeY, e.O.SizeV) {
		e.reduce = flaggedReducer{}
	} else {
		e.reduce = unflaggedReducer{}
	}
}

// Evaluate computes χ²(σ_v). The caller must have already populated P with
// the current point-source model realization; P is overwritten in place
// with the convolved model M.
func (e *Engine) Evaluate(sigmaV float64) (float64, error) {
	e.fullBeam.UpdateSigmaV(sigmaV)

	var w *cube.Cube
	if e.hasWeightCube {
		e.halfBeam.UpdateSigmaV(sigmaV)
		built, err := e.wBuilder.Build(e.P, e.conv)
		if err != nil {
			return 0, fmt.Errorf("chisq: building weight map: %w", err)
		}
		w = built
	}

	if err := e.conv.Convolve(e.P, e.fullBeam); err != nil {
		return 0, fmt.Errorf("chisq: convolving model: %w", err)
	}

	if !e.O.Padding {
		e.O.Pad()
	}

	sum := e.reduceParallel(w)

	var c float64
	if e.hasWeightCube {
		c = e.cfg.NoiseWeight * e.cfg.NoiseWeight
	} else {
		c = 1.0 / (e.cfg.SigmaRMS * e.cfg.SigmaRMS * e.cfg.NoiseWeight * e.cfg.NoiseWeight)
	}
	return sum * c, nil
}

// reduceParallel splits the outer v-loop across e.cfg.Threads workers,
// each accumulating into its own slot, and sums the partial results —
// safe because the reduction is associative-commutative over voxels.
func (e *Engine) reduceParallel(w *cube.Cube) float64 {
	sizeV := e.O.SizeV
	threads := e.cfg.Threads
	if threads > sizeV {
		threads = sizeV
	}
	if threads < 1 {
		threads = 1
	}

	partial := make([]float64, threads)
	var wg sync.WaitGroup
	chunk := (sizeV + threads - 1) / threads

	var wData []float32
	if w != nil {
		wData = w.Data
	}

	for t := 0; t < threads; t++ {
		start := t * chunk
		end := start + chunk
		if end > sizeV {
			end = sizeV
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(t, start, end int) {
			defer wg.Done()
			partial[t] = e.reduce.reduce(e.O.Data, e.P.Data, wData, e.O.StrideX(), e.O.SizeX, e.O.SizeY, start, end, w != nil)
		}(t, start, end)
	}
	wg.Wait()

	var sum float64
	for _, p := range partial {
		sum += p
	}
	return sum
}

// Probability is the reserved χ²-cdf hook of spec §6.1/§9: the original
// source declares but never implements it. Wired here to gonum's
// chi-squared distribution since gonum is already a first-class
// dependency of this module via the convolution engine.
func (e *Engine) Probability(chi2 float64, dof int) float64 {
	d := distuv.ChiSquared{K: float64(dof)}
	return d.Survival(chi2)
}
