package minimize

// Key enumerates every field the acquisition object exposes through
// Put/Get, replacing the reference implementation's string-keyed variant
// dictionary with a closed, typed enumeration (spec §9 design note).
type Key int

const (
	// Problem definition, set before Act(VerbInit).
	KeyMethod Key = iota // value is a Method, the back-end implementation
	KeyDimension
	KeyGuess            // []float64, raw units, length Dimension
	KeyLowerBound       // []float64, raw units; nil, or -Inf per unbounded axis
	KeyUpperBound       // []float64, raw units; nil, or +Inf per unbounded axis
	KeyStartStep        // []float64, raw units
	KeyUserData         // interface{}, opaque passthrough
	KeySeed             // [2]uint32, swarm RNG seed
	KeyIndependentPoints // int, for the reduced-χ² outputs below

	// Run control.
	KeyMaxCalls
	KeyMaxIterations
	KeyMaxCallsPerIteration
	KeyStopSize
	KeyLoopCount
	KeyLoopStepScale
	KeyLoopStopSizeScale
	KeyLoopMaxCallsScale

	// Swarm tunables, ignored by golden/simplex.
	KeySwarmParticles
	KeySwarmCognition
	KeySwarmSocial
	KeySwarmMaxVelocityFactor
	KeySwarmItersToFinalWeight
	KeySwarmInitialInertia
	KeySwarmFinalInertia
	KeySwarmDeltaIncrease
	KeySwarmDeltaDecrease

	// Outputs, read-only after Act(VerbStart).
	KeyState
	KeyErrorFlag
	KeyCallCount
	KeyIterationCount
	KeyCurrentLoop
	KeyActiveParam
	KeyBestValue
	KeyBestParams    // []float64, raw units
	KeySolutionParams // []float64, raw units, end-of-run point
	KeyLastParams     // []float64, raw units, most recent objective call
	KeyLastValue      // float64, most recent objective value ("actual χ²")
	KeyReducedValue     // float64, KeyLastValue / dof
	KeyReducedBestValue // float64, KeyBestValue / dof
	KeyCharacteristicSize
)
