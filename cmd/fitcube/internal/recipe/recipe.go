// Package recipe loads the YAML fit-recipe file consumed by cmd/fitcube:
// observation/model cube paths, beam and noise parameters, the χ² engine's
// mode bits, and the minimiser configuration for one fit run. It is a thin
// analogue of original_source/include/simparse.h's parameter-table driven
// CLI, deliberately without that table's full catalogue of fit-parameter
// defaults (spec §1 Non-goals).
package recipe

import (
	"fmt"
	"os"

	"github.com/gigjozsa/tirific-sub001/chisq"
	"github.com/gigjozsa/tirific-sub001/convolve"
	"github.com/gigjozsa/tirific-sub001/cube"
	"gopkg.in/yaml.v3"
)

// ModeConfig mirrors the χ² engine's three mode bits (spec §6.1) as named
// booleans instead of a raw integer, since a YAML recipe is meant to be
// hand-edited.
type ModeConfig struct {
	WeightMap  bool `yaml:"weight_map"`
	ExpLookup  bool `yaml:"exp_lookup"`
	OutOfPlace bool `yaml:"out_of_place"`
}

// Bits packs the named flags into the integer mode bitfield NewEngine expects.
func (m ModeConfig) Bits() int {
	var bits int
	if m.WeightMap {
		bits |= chisq.ModeWeightMap
	}
	if m.ExpLookup {
		bits |= chisq.ModeExpLookup
	}
	if m.OutOfPlace {
		bits |= chisq.ModeOutOfPlace
	}
	return bits
}

// SwarmConfig carries the nine particle-swarm tunables of spec §6.2. A zero
// value for any field means "use minimize.DefaultSwarmSpec's value".
type SwarmConfig struct {
	Particles          int     `yaml:"particles"`
	Cognition          float64 `yaml:"cognition"`
	Social             float64 `yaml:"social"`
	MaxVelocityFactor  float64 `yaml:"max_velocity_factor"`
	ItersToFinalWeight int     `yaml:"iters_to_final_weight"`
	InitialInertia     float64 `yaml:"initial_inertia"`
	FinalInertia       float64 `yaml:"final_inertia"`
	DeltaIncrease      float64 `yaml:"delta_increase"`
	DeltaDecrease      float64 `yaml:"delta_decrease"`
}

// MinimizerConfig configures the acquisition object for one fit. Guess is
// [sigma_v, amplitude] in this CLI's toy two-parameter fit (spec §1 out of
// scope: the full ring-synthesis parameter catalogue); a recipe may omit
// amplitude (length-1 Guess) to fit sigma_v alone.
type MinimizerConfig struct {
	Method               string      `yaml:"method"` // golden, simplex, swarm
	Guess                []float64   `yaml:"guess"`
	StartStep            []float64   `yaml:"start_step"`
	LowerBound           []float64   `yaml:"lower_bound"`
	UpperBound           []float64   `yaml:"upper_bound"`
	StopSize             float64     `yaml:"stop_size"`
	MaxCalls             int         `yaml:"max_calls"`
	MaxIterations        int         `yaml:"max_iterations"`
	MaxCallsPerIteration int         `yaml:"max_calls_per_iteration"`
	LoopCount            int         `yaml:"loop_count"`
	LoopStepScale        float64     `yaml:"loop_step_scale"`
	LoopStopSizeScale    float64     `yaml:"loop_stop_size_scale"`
	LoopMaxCallsScale    float64     `yaml:"loop_max_calls_scale"`
	Seed                 [2]uint32   `yaml:"seed"`
	IndependentPoints    int         `yaml:"independent_points"`
	Swarm                SwarmConfig `yaml:"swarm"`
}

// FitRecipe is the top-level YAML document consumed by `fitcube fit`.
type FitRecipe struct {
	Observation string        `yaml:"observation"`
	Model       string        `yaml:"model"`
	Beam        cube.BeamInfo `yaml:"beam"`
	SigmaRMS    float64       `yaml:"sigma_rms"`
	Flux        float64       `yaml:"flux"`
	Scale       float64       `yaml:"scale"`
	NoiseWeight float64       `yaml:"noise_weight"`
	Mode        ModeConfig    `yaml:"mode"`
	Threads     int           `yaml:"threads"`
	Effort      string        `yaml:"effort"` // estimate, measure, patient, exhaustive

	Minimizer MinimizerConfig `yaml:"minimizer"`
}

// Load parses a fit recipe from path.
func Load(path string) (*FitRecipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recipe: reading %s: %w", path, err)
	}
	var r FitRecipe
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("recipe: parsing %s: %w", path, err)
	}
	if r.Observation == "" || r.Model == "" {
		return nil, fmt.Errorf("recipe: observation and model cube paths are required")
	}
	if len(r.Minimizer.Guess) == 0 {
		return nil, fmt.Errorf("recipe: minimizer.guess must have at least one element (sigma_v)")
	}
	return &r, nil
}

// planEffort maps the recipe's effort string onto convolve.PlanEffort,
// defaulting to Estimate (the reference engine's cheapest planning mode)
// when unset.
func planEffort(s string) (convolve.PlanEffort, error) {
	switch s {
	case "", "estimate":
		return convolve.Estimate, nil
	case "measure":
		return convolve.Measure, nil
	case "patient":
		return convolve.Patient, nil
	case "exhaustive":
		return convolve.Exhaustive, nil
	default:
		return 0, fmt.Errorf("recipe: unknown plan effort %q", s)
	}
}

// EngineConfig builds the chisq.EngineConfig this recipe describes.
func (r *FitRecipe) EngineConfig() (chisq.EngineConfig, error) {
	effort, err := planEffort(r.Effort)
	if err != nil {
		return chisq.EngineConfig{}, err
	}
	threads := r.Threads
	if threads <= 0 {
		threads = 1
	}
	return chisq.EngineConfig{
		Beam:        r.Beam,
		Scale:       r.Scale,
		Flux:        r.Flux,
		SigmaRMS:    r.SigmaRMS,
		Mode:        r.Mode.Bits(),
		NoiseWeight: r.NoiseWeight,
		Effort:      effort,
		Threads:     threads,
	}, nil
}
