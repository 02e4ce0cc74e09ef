package itc

import "time"

// SignificantFigures controls optional rounding of graph outputs. Each
// field is the number of significant digits to keep; a zero field leaves
// the corresponding values untrimmed.
type SignificantFigures struct {
	XAxis int
	YAxis int
	CCD   int
}

// IsZero reports whether no trimming was requested.
func (sf SignificantFigures) IsZero() bool {
	return sf.XAxis == 0 && sf.YAxis == 0 && sf.CCD == 0
}

// CalculationGoal is what the caller wants out of the calculation: either a
// target signal-to-noise to solve exposure parameters for, or a fixed
// exposure plan to produce graphs from. SignalToNoise and the fixed plan are
// never both set; SignalToNoiseAt may accompany either.
type CalculationGoal struct {
	// SignalToNoise is the requested total S/N; > 0 when solving for time.
	SignalToNoise float64
	// SignalToNoiseAt is the wavelength the S/N is requested at when solving,
	// or evaluated at for graph requests. The zero value means "at the peak
	// of the final S/N curve" (graph requests then report no at-wavelength
	// S/N).
	SignalToNoiseAt Wavelength

	// ExposureTime and Exposures describe a fixed plan for graph requests.
	ExposureTime time.Duration
	Exposures    int
}

// CalculationRequest is the normalised input to the orchestrator: a fully
// coerced target, instrument configuration, conditions and goal. Equal
// requests produce equal cache fingerprints.
type CalculationRequest struct {
	Target     TargetProfile
	Mode       ObservingMode
	Conditions ObservingConditions
	Goal       CalculationGoal

	// Figures trims graph output. Trimmed results are what gets cached,
	// so Figures participates in the fingerprint like every other field.
	Figures SignificantFigures
}
