package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gigjozsa/tirific-sub001/chisq"
	"github.com/gigjozsa/tirific-sub001/cmd/fitcube/internal/recipe"
	"github.com/gigjozsa/tirific-sub001/cube"
	"github.com/gigjozsa/tirific-sub001/minimize"
	"github.com/gigjozsa/tirific-sub001/minimize/golden"
	"github.com/gigjozsa/tirific-sub001/minimize/simplex"
	"github.com/gigjozsa/tirific-sub001/minimize/swarm"
)

var recipePath string

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Run a χ² minimisation against a FITS cube pair using a YAML fit recipe",
	RunE:  runFit,
}

func init() {
	fitCmd.Flags().StringVarP(&recipePath, "recipe", "r", "", "path to the YAML fit recipe (required)")
	fitCmd.MarkFlagRequired("recipe")
}

// FitResult is the YAML document fitcube fit prints to stdout.
type FitResult struct {
	SigmaV           float64   `yaml:"sigma_v"`
	Amplitude        float64   `yaml:"amplitude,omitempty"`
	ChiSquare        float64   `yaml:"chi_square"`
	ReducedChiSquare float64   `yaml:"reduced_chi_square,omitempty"`
	Probability      float64   `yaml:"survival_probability,omitempty"`
	Calls            int       `yaml:"calls"`
	Iterations       int       `yaml:"iterations"`
	State            string    `yaml:"state"`
	BestParams       []float64 `yaml:"best_params"`
}

func runFit(cmd *cobra.Command, args []string) error {
	rec, err := recipe.Load(recipePath)
	if err != nil {
		return err
	}
	logrus.WithField("recipe", recipePath).Info("loaded fit recipe")

	obs, err := cube.Read(rec.Observation)
	if err != nil {
		return fmt.Errorf("reading observation cube: %w", err)
	}
	model, err := cube.Read(rec.Model)
	if err != nil {
		return fmt.Errorf("reading model cube: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"shape":       [3]int{obs.SizeX, obs.SizeY, obs.SizeV},
		"observation": obs.Stat(),
	}).Info("observation cube loaded")

	// basePoints is the pristine point-source realization read from disk;
	// the objective rescales it by the trial amplitude and hands the
	// result to the engine, which then overwrites model in place with the
	// convolved M. Captured unpadded so every trial starts from the same
	// logical layout.
	model.Unpad()
	basePoints := model.Copy()

	engCfg, err := rec.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := chisq.NewEngine(obs, model, engCfg)
	if err != nil {
		return fmt.Errorf("building chi-square engine: %w", err)
	}

	ctrl := minimize.New()
	method, err := selectMethod(rec.Minimizer.Method)
	if err != nil {
		return err
	}
	if err := configureControl(ctrl, method, rec); err != nil {
		return err
	}

	fitAmplitude := len(rec.Minimizer.Guess) > 1
	ctrl.PutFunction(func(x []float64, _ interface{}) (float64, error) {
		sigmaV := x[0]
		amplitude := 1.0
		if fitAmplitude {
			amplitude = x[1]
		}
		model.Unpad()
		copy(model.Data, basePoints.Data)
		if amplitude != 1 {
			for i, v := range model.Data {
				model.Data[i] = v * float32(amplitude)
			}
		}
		return engine.Evaluate(sigmaV)
	})

	if err := ctrl.Act(minimize.VerbInit); err != nil {
		return fmt.Errorf("initialising minimiser: %w", err)
	}
	logrus.WithField("method", rec.Minimizer.Method).Info("starting minimisation")
	if err := ctrl.Act(minimize.VerbStart); err != nil {
		return fmt.Errorf("starting minimiser: %w", err)
	}
	if err := ctrl.Act(minimize.VerbFlush); err != nil {
		return fmt.Errorf("waiting for minimiser: %w", err)
	}

	state, _ := ctrl.Get(minimize.KeyState)
	if state.(minimize.State) == minimize.StateError {
		errFlag, _ := ctrl.Get(minimize.KeyErrorFlag)
		return fmt.Errorf("minimisation failed, error flag %v: %w", errFlag, ctrl.LastError())
	}

	best, _ := ctrl.Get(minimize.KeyBestValue)
	reducedBest, _ := ctrl.Get(minimize.KeyReducedBestValue)
	bestParams, _ := ctrl.Get(minimize.KeyBestParams)
	calls, _ := ctrl.Get(minimize.KeyCallCount)
	iters, _ := ctrl.Get(minimize.KeyIterationCount)

	bp := bestParams.([]float64)
	result := FitResult{
		SigmaV:           bp[0],
		ChiSquare:        best.(float64),
		ReducedChiSquare: reducedBest.(float64),
		Probability:      engine.Probability(best.(float64), degreesOfFreedom(rec, bp)),
		Calls:            calls.(int),
		Iterations:       iters.(int),
		State:            state.(minimize.State).String(),
		BestParams:       bp,
	}
	if fitAmplitude && len(bp) > 1 {
		result.Amplitude = bp[1]
	}

	out, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding fit result: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func selectMethod(name string) (minimize.Method, error) {
	switch name {
	case "", "golden":
		return golden.New(), nil
	case "simplex":
		return simplex.New(), nil
	case "swarm":
		return swarm.New(), nil
	default:
		return nil, fmt.Errorf("unknown minimiser method %q (want golden, simplex or swarm)", name)
	}
}

func configureControl(ctrl *minimize.Control, method minimize.Method, rec *recipe.FitRecipe) error {
	m := rec.Minimizer
	seed := m.Seed
	if rec.Minimizer.Method == "swarm" && seed == ([2]uint32{}) {
		seed = swarm.NewSourceFromTime()
		logrus.WithField("seed", seed).Info("no swarm seed in recipe, drew one from the wall clock")
	}
	puts := []struct {
		key   minimize.Key
		value interface{}
	}{
		{minimize.KeyMethod, method},
		{minimize.KeyDimension, len(m.Guess)},
		{minimize.KeyGuess, m.Guess},
		{minimize.KeyStartStep, defaultStartStep(m.StartStep, len(m.Guess))},
		{minimize.KeySeed, seed},
		{minimize.KeyIndependentPoints, m.IndependentPoints},
		{minimize.KeySwarmParticles, m.Swarm.Particles},
		{minimize.KeySwarmCognition, m.Swarm.Cognition},
		{minimize.KeySwarmSocial, m.Swarm.Social},
		{minimize.KeySwarmMaxVelocityFactor, m.Swarm.MaxVelocityFactor},
		{minimize.KeySwarmItersToFinalWeight, m.Swarm.ItersToFinalWeight},
		{minimize.KeySwarmInitialInertia, m.Swarm.InitialInertia},
		{minimize.KeySwarmFinalInertia, m.Swarm.FinalInertia},
		{minimize.KeySwarmDeltaIncrease, m.Swarm.DeltaIncrease},
		{minimize.KeySwarmDeltaDecrease, m.Swarm.DeltaDecrease},
	}
	for _, p := range puts {
		if err := ctrl.Put(p.key, p.value); err != nil {
			return fmt.Errorf("configuring minimiser: %w", err)
		}
	}
	if len(m.LowerBound) > 0 {
		if err := ctrl.Put(minimize.KeyLowerBound, m.LowerBound); err != nil {
			return err
		}
	}
	if len(m.UpperBound) > 0 {
		if err := ctrl.Put(minimize.KeyUpperBound, m.UpperBound); err != nil {
			return err
		}
	}
	if m.StopSize > 0 {
		if err := ctrl.Put(minimize.KeyStopSize, m.StopSize); err != nil {
			return err
		}
	}
	if m.MaxCalls > 0 {
		if err := ctrl.Put(minimize.KeyMaxCalls, m.MaxCalls); err != nil {
			return err
		}
	}
	if m.MaxIterations > 0 {
		if err := ctrl.Put(minimize.KeyMaxIterations, m.MaxIterations); err != nil {
			return err
		}
	}
	if m.MaxCallsPerIteration > 0 {
		if err := ctrl.Put(minimize.KeyMaxCallsPerIteration, m.MaxCallsPerIteration); err != nil {
			return err
		}
	}
	if m.LoopCount > 0 {
		if err := ctrl.Put(minimize.KeyLoopCount, m.LoopCount); err != nil {
			return err
		}
	}
	if m.LoopStepScale > 0 {
		if err := ctrl.Put(minimize.KeyLoopStepScale, m.LoopStepScale); err != nil {
			return err
		}
	}
	if m.LoopStopSizeScale > 0 {
		if err := ctrl.Put(minimize.KeyLoopStopSizeScale, m.LoopStopSizeScale); err != nil {
			return err
		}
	}
	if m.LoopMaxCallsScale > 0 {
		if err := ctrl.Put(minimize.KeyLoopMaxCallsScale, m.LoopMaxCallsScale); err != nil {
			return err
		}
	}
	return nil
}

// degreesOfFreedom returns independent_points - n_params, floored at 1 so
// the reserved χ²-survival hook (spec §6.1/§9) never sees a non-positive
// degree-of-freedom count.
func degreesOfFreedom(rec *recipe.FitRecipe, bestParams []float64) int {
	dof := rec.Minimizer.IndependentPoints - len(bestParams)
	if dof < 1 {
		dof = 1
	}
	return dof
}

func defaultStartStep(step []float64, n int) []float64 {
	if len(step) == n {
		return step
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
