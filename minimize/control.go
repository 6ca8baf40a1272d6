package minimize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
)

// Control is the acquisition object of spec §4.6/§9: a single handle
// carrying the problem definition, run control parameters and output
// state for one minimisation, exposing put/get/act verbs in place of the
// reference implementation's untyped variant dictionary and function
// pointer. The back-end algorithm is injected rather than selected by an
// internal factory, which is what keeps this package free of an import
// cycle with minimize/golden, minimize/simplex and minimize/swarm: each
// of those packages imports minimize for the Method contract, never the
// reverse.
type Control struct {
	mu sync.Mutex

	method Method

	dimension            int
	guess                []float64
	lower, upper         []float64
	startStep            []float64
	userData             interface{}
	seed                 [2]uint32
	independentPoints    int
	maxCalls             int
	maxIterations        int
	maxCallsPerIteration int
	stopSize             float64
	loopCount            int
	loopStepScale        float64
	loopStopSizeScale    float64
	loopMaxCallsScale    float64
	swarm                SwarmSpec

	objective Objective

	state   State
	errFlag ErrorFlag

	callCount          int
	iterationCount     int
	currentLoop        int
	activeParam        int
	bestValue          float64
	bestRaw            []float64
	solutionRaw        []float64
	lastRaw            []float64
	lastValue          float64
	characteristicSize float64

	stopRequested  bool
	breakRequested bool
	runErr         error
	done           chan struct{}
}

// New returns an idle Control with the reference implementation's
// conventional defaults (spec §6.2): a relative loop scaling of 1 (no
// shrinkage across loops) and a single loop.
func New() *Control {
	return &Control{
		loopCount:            1,
		loopStepScale:        1,
		loopStopSizeScale:    1,
		loopMaxCallsScale:    1,
		stopSize:             1e-6,
		maxCalls:             100000,
		maxIterations:        10000,
		maxCallsPerIteration: 1000,
		swarm:                DefaultSwarmSpec(),
		state:                StateIdle,
	}
}

// DefaultSwarmSpec returns the particle-swarm tunables the reference
// implementation ships as defaults (grounded on original_source/gft/pswarm.c).
func DefaultSwarmSpec() SwarmSpec {
	return SwarmSpec{
		Particles:          20,
		Cognition:          2.05,
		Social:             2.05,
		MaxVelocityFactor:  0.5,
		ItersToFinalWeight: 100,
		InitialInertia:     0.9,
		FinalInertia:       0.4,
		DeltaIncrease:      2.0,
		DeltaDecrease:      0.5,
	}
}

// PutFunction installs the objective to minimise. It must be set before
// Act(VerbStart).
func (c *Control) PutFunction(obj Objective) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objective = obj
}

// Put sets one field of the problem definition or run control block. It
// returns an error (and sets the busy error flag) if called while the
// run is in progress, mirroring the reference engine's refusal to accept
// writes mid-flight.
func (c *Control) Put(key Key, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		c.errFlag |= ErrBusy
		return fmt.Errorf("minimize: control is running")
	}

	switch key {
	case KeyMethod:
		m, ok := value.(Method)
		if !ok {
			return typeErr(key, "Method")
		}
		c.method = m
	case KeyDimension:
		n, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.dimension = n
	case KeyGuess:
		v, ok := value.([]float64)
		if !ok {
			return typeErr(key, "[]float64")
		}
		c.guess = append([]float64(nil), v...)
	case KeyLowerBound:
		v, ok := value.([]float64)
		if !ok {
			return typeErr(key, "[]float64")
		}
		c.lower = append([]float64(nil), v...)
	case KeyUpperBound:
		v, ok := value.([]float64)
		if !ok {
			return typeErr(key, "[]float64")
		}
		c.upper = append([]float64(nil), v...)
	case KeyStartStep:
		v, ok := value.([]float64)
		if !ok {
			return typeErr(key, "[]float64")
		}
		c.startStep = append([]float64(nil), v...)
	case KeyUserData:
		c.userData = value
	case KeySeed:
		v, ok := value.([2]uint32)
		if !ok {
			return typeErr(key, "[2]uint32")
		}
		c.seed = v
	case KeyIndependentPoints:
		v, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.independentPoints = v
	case KeyMaxCalls:
		v, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.maxCalls = v
	case KeyMaxIterations:
		v, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.maxIterations = v
	case KeyMaxCallsPerIteration:
		v, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.maxCallsPerIteration = v
	case KeyStopSize:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.stopSize = v
	case KeyLoopCount:
		v, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.loopCount = v
	case KeyLoopStepScale:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.loopStepScale = v
	case KeyLoopStopSizeScale:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.loopStopSizeScale = v
	case KeyLoopMaxCallsScale:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.loopMaxCallsScale = v
	case KeySwarmParticles:
		v, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.swarm.Particles = v
	case KeySwarmCognition:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.swarm.Cognition = v
	case KeySwarmSocial:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.swarm.Social = v
	case KeySwarmMaxVelocityFactor:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.swarm.MaxVelocityFactor = v
	case KeySwarmItersToFinalWeight:
		v, ok := value.(int)
		if !ok {
			return typeErr(key, "int")
		}
		c.swarm.ItersToFinalWeight = v
	case KeySwarmInitialInertia:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.swarm.InitialInertia = v
	case KeySwarmFinalInertia:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.swarm.FinalInertia = v
	case KeySwarmDeltaIncrease:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.swarm.DeltaIncrease = v
	case KeySwarmDeltaDecrease:
		v, ok := value.(float64)
		if !ok {
			return typeErr(key, "float64")
		}
		c.swarm.DeltaDecrease = v
	default:
		c.errFlag |= ErrUnknownKey
		return fmt.Errorf("minimize: key %d is not writable", key)
	}
	return nil
}

// Get reads one field, including the output block populated by the most
// recent run.
func (c *Control) Get(key Key) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch key {
	case KeyMethod:
		return c.method, nil
	case KeyDimension:
		return c.dimension, nil
	case KeyGuess:
		return append([]float64(nil), c.guess...), nil
	case KeyLowerBound:
		return append([]float64(nil), c.lower...), nil
	case KeyUpperBound:
		return append([]float64(nil), c.upper...), nil
	case KeyStartStep:
		return append([]float64(nil), c.startStep...), nil
	case KeyUserData:
		return c.userData, nil
	case KeySeed:
		return c.seed, nil
	case KeyIndependentPoints:
		return c.independentPoints, nil
	case KeyMaxCalls:
		return c.maxCalls, nil
	case KeyMaxIterations:
		return c.maxIterations, nil
	case KeyMaxCallsPerIteration:
		return c.maxCallsPerIteration, nil
	case KeyStopSize:
		return c.stopSize, nil
	case KeyLoopCount:
		return c.loopCount, nil
	case KeyState:
		return c.state, nil
	case KeyErrorFlag:
		return c.errFlag, nil
	case KeyCallCount:
		return c.callCount, nil
	case KeyIterationCount:
		return c.iterationCount, nil
	case KeyCurrentLoop:
		return c.currentLoop, nil
	case KeyActiveParam:
		return c.activeParam, nil
	case KeyBestValue:
		return c.bestValue, nil
	case KeyBestParams:
		return append([]float64(nil), c.bestRaw...), nil
	case KeySolutionParams:
		return append([]float64(nil), c.solutionRaw...), nil
	case KeyLastParams:
		return append([]float64(nil), c.lastRaw...), nil
	case KeyLastValue:
		return c.lastValue, nil
	case KeyReducedValue:
		return c.reduced(c.lastValue), nil
	case KeyReducedBestValue:
		return c.reduced(c.bestValue), nil
	case KeyCharacteristicSize:
		return c.characteristicSize, nil
	default:
		return nil, fmt.Errorf("minimize: key %d is not readable", key)
	}
}

// reduced divides value by the degrees of freedom (independent points minus
// fitted parameters), per spec §6.2's "reduced variants" outputs. With no
// independent-points count configured, or non-positive dof, it returns the
// unreduced value unchanged rather than dividing by zero.
func (c *Control) reduced(value float64) float64 {
	dof := c.independentPoints - c.dimension
	if dof <= 0 {
		return value
	}
	return value / float64(dof)
}

func typeErr(key Key, want string) error {
	return fmt.Errorf("minimize: key %d expects a %s value", key, want)
}

// Act dispatches one of the six state-machine verbs of spec §4.6.
func (c *Control) Act(verb Verb) error {
	switch verb {
	case VerbInit:
		return c.actInit()
	case VerbStart:
		return c.actStart()
	case VerbStop:
		c.mu.Lock()
		c.stopRequested = true
		c.mu.Unlock()
		return nil
	case VerbBreak:
		c.mu.Lock()
		c.breakRequested = true
		c.mu.Unlock()
		return nil
	case VerbFlush:
		c.mu.Lock()
		d := c.done
		running := c.state == StateRunning
		c.mu.Unlock()
		if running && d != nil {
			<-d
		}
		return nil
	case VerbClearError:
		c.mu.Lock()
		if c.state == StateError {
			c.state = StateIdle
			c.errFlag = ErrNone
		}
		c.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("minimize: unknown verb %d", verb)
	}
}

func (c *Control) actInit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		c.errFlag |= ErrBusy
		return fmt.Errorf("minimize: control is running")
	}
	if c.method == nil {
		c.errFlag |= ErrMissingInput
		return fmt.Errorf("minimize: no method installed")
	}
	if c.dimension <= 0 || len(c.guess) != c.dimension || len(c.startStep) != c.dimension {
		c.errFlag |= ErrMissingInput
		return fmt.Errorf("minimize: guess/start step must match dimension %d", c.dimension)
	}
	for i, step := range c.startStep {
		if step == 0 {
			c.errFlag |= ErrWrongValue
			return fmt.Errorf("minimize: start step at index %d must be non-zero", i)
		}
	}

	c.callCount = 0
	c.iterationCount = 0
	c.currentLoop = 0
	c.activeParam = -1
	c.bestValue = math.Inf(1)
	c.bestRaw = nil
	c.solutionRaw = append([]float64(nil), c.guess...)
	c.lastRaw = append([]float64(nil), c.guess...)
	c.lastValue = math.Inf(1)
	c.characteristicSize = math.Inf(1)
	c.errFlag = ErrNone
	c.stopRequested = false
	c.breakRequested = false
	c.runErr = nil
	c.state = StateIdle
	return nil
}

func (c *Control) actStart() error {
	c.mu.Lock()
	if c.state == StateRunning {
		c.errFlag |= ErrBusy
		c.mu.Unlock()
		return fmt.Errorf("minimize: control is running")
	}
	if c.method == nil || c.objective == nil {
		c.errFlag |= ErrMissingInput
		c.mu.Unlock()
		return fmt.Errorf("minimize: method and objective must be set before starting")
	}
	c.state = StateRunning
	c.stopRequested = false
	c.breakRequested = false
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run()
	return nil
}

// run executes every configured loop, recentring the normalisation origin
// on the previous loop's solution and scaling step/tolerance/budget by
// the configured loop factors, until the loop count is exhausted, a call
// budget is exceeded, or the caller requests STOP/BREAK.
func (c *Control) run() {
	c.mu.Lock()
	dimension := c.dimension
	o := append([]float64(nil), c.guess...)
	step := append([]float64(nil), c.startStep...)
	lowerRaw := append([]float64(nil), c.lower...)
	upperRaw := append([]float64(nil), c.upper...)
	stopSize := c.stopSize
	maxCallsPerIteration := c.maxCallsPerIteration
	maxIterations := c.maxIterations
	maxCalls := c.maxCalls
	loops := c.loopCount
	loopStepScale := c.loopStepScale
	loopStopSizeScale := c.loopStopSizeScale
	loopMaxCallsScale := c.loopMaxCallsScale
	seed := c.seed
	swarmSpec := c.swarm
	method := c.method
	c.mu.Unlock()

	if loops < 1 {
		loops = 1
	}

	bestValue := math.Inf(1)
	var bestRaw []float64
	var solutionRaw = append([]float64(nil), o...)
	var lastRaw = append([]float64(nil), o...)
	lastValue := math.Inf(1)
	characteristicSize := math.Inf(1)
	var runErr error
	stoppedEarly := false

	for loop := 0; loop < loops; loop++ {
		c.mu.Lock()
		c.currentLoop = loop
		stopNow := c.stopRequested
		c.mu.Unlock()
		if stopNow {
			stoppedEarly = true
			break
		}

		ctx, cancel := context.WithCancel(context.Background())
		origin := append([]float64(nil), o...)
		d := append([]float64(nil), step...)

		obj := func(y []float64) (float64, error) {
			c.mu.Lock()
			stop := c.stopRequested
			c.mu.Unlock()
			if stop {
				cancel()
				return 0, context.Canceled
			}
			x := make([]float64, dimension)
			for i := range y {
				x[i] = origin[i] + d[i]*y[i]
			}
			val, err := c.objective(x, c.userData)
			c.mu.Lock()
			c.callCount++
			calls := c.callCount
			c.mu.Unlock()
			if calls >= maxCalls {
				cancel()
			}
			return val, err
		}

		cfg := LoopConfig{
			Guess:                make([]float64, dimension),
			Lower:                normBounds(origin, d, lowerRaw),
			Upper:                normBounds(origin, d, upperRaw),
			StartStep:            ones(dimension),
			StopSize:             stopSize,
			MaxCalls:             maxCalls,
			MaxIterations:        maxIterations,
			MaxCallsPerIteration: maxCallsPerIteration,
			Seed:                 seed,
			Swarm:                swarmSpec,
		}

		result, err := method.RunLoop(ctx, obj, cfg)
		cancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
			c.mu.Lock()
			c.errFlag |= ErrObjectiveFail
			c.mu.Unlock()
			break
		}

		c.mu.Lock()
		c.iterationCount += result.Iterations
		c.activeParam = result.ActiveParam
		c.mu.Unlock()

		solRaw := denorm(origin, d, result.Solution)
		solutionRaw = solRaw
		characteristicSize = result.CharacteristicSize

		if result.LastY != nil {
			lastRaw = denorm(origin, d, result.LastY)
			lastValue = result.LastValue
		}

		if result.BestY != nil && result.BestValue < bestValue {
			bestValue = result.BestValue
			bestRaw = denorm(origin, d, result.BestY)
		}

		o = solRaw
		for i := range step {
			step[i] *= loopStepScale
		}
		stopSize *= loopStopSizeScale
		maxCallsPerIteration = int(float64(maxCallsPerIteration) * loopMaxCallsScale)

		c.mu.Lock()
		brk := c.breakRequested
		stp := c.stopRequested
		calls := c.callCount
		c.mu.Unlock()
		if brk {
			c.mu.Lock()
			c.breakRequested = false
			c.mu.Unlock()
			break
		}
		if stp || errors.Is(err, context.Canceled) {
			stoppedEarly = true
			break
		}
		if calls >= maxCalls {
			break
		}
	}

	c.mu.Lock()
	c.bestValue = bestValue
	c.bestRaw = bestRaw
	c.solutionRaw = solutionRaw
	c.lastRaw = lastRaw
	c.lastValue = lastValue
	c.characteristicSize = characteristicSize
	c.runErr = runErr
	switch {
	case c.errFlag.Any():
		c.state = StateError
	case stoppedEarly:
		c.state = StateStopped
	default:
		c.state = StateIdle
	}
	close(c.done)
	c.mu.Unlock()
}

// LastError returns the error, if any, that ended the most recent run.
func (c *Control) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runErr
}

func normBounds(origin, step, raw []float64) []float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = (v - origin[i]) / step[i]
	}
	return out
}

func denorm(origin, step, y []float64) []float64 {
	out := make([]float64, len(origin))
	for i := range out {
		out[i] = origin[i] + step[i]*y[i]
	}
	return out
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
