package itc

import (
	"fmt"
	"time"
)

// SourceTooBrightError reports that the target would half-fill the detector
// well in under a second, so no usable exposure exists.
type SourceTooBrightError struct {
	// HalfWellTime is the time to fill half the detector well at the
	// observed peak pixel flux.
	HalfWellTime time.Duration
}

func (e *SourceTooBrightError) Error() string {
	return fmt.Sprintf("source saturates the detector: half-well time %.4fs", e.HalfWellTime.Seconds())
}

// CalculationError reports a numeric problem detected while post-processing
// calculator output: an S/N of zero, a requested wavelength outside the
// computed range, or a chart with no usable data.
type CalculationError struct {
	Message string
}

func (e *CalculationError) Error() string { return e.Message }

// UpstreamError carries the error string returned by the legacy calculator
// verbatim. It is never retried.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// IntegrationTimeError reports an exposure plan that went non-positive
// during solving.
type IntegrationTimeError struct {
	ExposureTime time.Duration
	Exposures    int
}

func (e *IntegrationTimeError) Error() string {
	return fmt.Sprintf("solver produced a non-positive exposure plan: %d x %gs",
		e.Exposures, e.ExposureTime.Seconds())
}
