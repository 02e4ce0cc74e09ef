// Package exptime solves exposure plans: given a requested signal-to-noise
// it finds an (exposure time, exposure count) pair that reaches it without
// saturating the detector.
//
// When the request names a wavelength, the legacy calculator can solve the
// plan in one call and the solver delegates to it. For the peak-S/N mode
// the calculator offers no direct solution, so the solver iterates: probe
// the calculator with a candidate plan, read the achieved S/N off the
// final-S/N curve, rescale total time by (target/achieved)², and repeat
// until the plan stops moving or the iteration budget runs out.
package exptime

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
	"github.com/cquiroz/lucuma-itc/pkg/series"
)

// Loop parameters.
const (
	// MaxIterations is the circuit breaker on the probe loop.
	MaxIterations = 10
	// InitialExposureSeconds is the duration of the first probe exposure.
	InitialExposureSeconds = 1200
	// InitialExposures is the exposure count of the first probe.
	InitialExposures = 1
	// minHalfWellSeconds is the shortest usable half-well time; anything
	// shorter means the source saturates before a 1 s exposure completes.
	minHalfWellSeconds = 1.0
)

// ProbeFunc runs one graph calculation for a fixed exposure plan and
// returns the resulting charts. Each invocation reaches the legacy
// calculator through the worker, so probes from different requests
// interleave but never overlap.
type ProbeFunc func(ctx context.Context, exposureTime time.Duration, exposures int) (itc.GraphResult, error)

// DirectFunc asks the legacy calculator to solve the plan for a target S/N
// at a specific wavelength in a single call.
type DirectFunc func(ctx context.Context, signalToNoise float64, at itc.Wavelength) (itc.IntegrationTime, error)

// Solver finds exposure plans for spectroscopy requests.
type Solver struct {
	Probe  ProbeFunc
	Direct DirectFunc
	Logger *slog.Logger

	// OnIteration, when set, observes each probe of the iterative loop.
	OnIteration func()
}

// Solve returns an exposure plan reaching goal.SignalToNoise. A request
// with a wavelength delegates to the calculator's at-wavelength solution;
// a peak-S/N request runs the iterative loop.
func (s *Solver) Solve(ctx context.Context, goal itc.CalculationGoal) (itc.IntegrationTime, error) {
	if goal.SignalToNoise <= 0 {
		return itc.IntegrationTime{}, &itc.CalculationError{Message: "requested signal-to-noise must be positive"}
	}
	if !goal.SignalToNoiseAt.IsZero() {
		return s.Direct(ctx, goal.SignalToNoise, goal.SignalToNoiseAt)
	}
	return s.solvePeak(ctx, goal.SignalToNoise)
}

// solvePeak is the fixed-point loop for the peak-S/N mode.
func (s *Solver) solvePeak(ctx context.Context, target float64) (itc.IntegrationTime, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	count := int64(InitialExposures)
	seconds := int64(InitialExposureSeconds)

	graphs, err := s.probe(ctx, seconds, count)
	if err != nil {
		return itc.IntegrationTime{}, err
	}

	// Saturation guard from the first probe: the detector must survive at
	// least a one-second exposure at half well.
	halfWell := halfWellSeconds(graphs)
	if halfWell < minHalfWellSeconds {
		return itc.IntegrationTime{}, &itc.SourceTooBrightError{
			HalfWellTime: time.Duration(halfWell * float64(time.Second)),
		}
	}
	maxStepSeconds := math.Min(InitialExposureSeconds, halfWell)

	observed, err := peakSN(graphs)
	if err != nil {
		return itc.IntegrationTime{}, err
	}

	for iteration := 1; ; iteration++ {
		if observed == 0 {
			return itc.IntegrationTime{}, &itc.CalculationError{Message: "S/N obtained is 0"}
		}

		ratio := target / observed
		totalSeconds := float64(count) * float64(seconds) * ratio * ratio

		// Converting an out-of-range float to int64 is platform-specific,
		// so the overflow guard runs on the float values.
		countF := math.Ceil(totalSeconds / maxStepSeconds)
		secondsF := math.Ceil(totalSeconds / math.Max(countF, 1))
		if countF >= float64(math.MaxInt64) || secondsF >= float64(math.MaxInt64) {
			return s.plan(graphs, seconds, count, observed)
		}

		nextCount := int64(countF)
		if nextCount <= 0 {
			return itc.IntegrationTime{}, &itc.IntegrationTimeError{
				ExposureTime: time.Duration(seconds) * time.Second,
				Exposures:    int(nextCount),
			}
		}
		nextSeconds := int64(math.Ceil(totalSeconds / float64(nextCount)))
		if nextSeconds <= 0 {
			return itc.IntegrationTime{}, &itc.IntegrationTimeError{
				ExposureTime: time.Duration(nextSeconds) * time.Second,
				Exposures:    int(nextCount),
			}
		}

		converged := nextCount == count && absInt64(nextSeconds-seconds) <= 1

		logger.Debug("exposure solver step",
			"iteration", iteration,
			"observed_sn", observed,
			"target_sn", target,
			"next_exposures", nextCount,
			"next_seconds", nextSeconds,
			"converged", converged,
		)

		if converged || iteration >= MaxIterations {
			return s.plan(graphs, nextSeconds, nextCount, observed)
		}

		count, seconds = nextCount, nextSeconds
		if graphs, err = s.probe(ctx, seconds, count); err != nil {
			return itc.IntegrationTime{}, err
		}
		if observed, err = peakSN(graphs); err != nil {
			return itc.IntegrationTime{}, err
		}
	}
}

func (s *Solver) probe(ctx context.Context, seconds, count int64) (itc.GraphResult, error) {
	if s.OnIteration != nil {
		s.OnIteration()
	}
	return s.Probe(ctx, time.Duration(seconds)*time.Second, int(count))
}

// plan assembles the final exposure plan. The single-exposure S/N comes
// from the single-S/N curve when the calculator produced one, otherwise
// from the total assuming uncorrelated exposures.
func (s *Solver) plan(graphs itc.GraphResult, seconds, count int64, total float64) (itc.IntegrationTime, error) {
	single := total / math.Sqrt(float64(count))
	if r := series.Peak(graphs.Groups, itc.SingleS2NData); r.Kind == series.Success {
		single = r.Value
	}
	return itc.IntegrationTime{
		ExposureTime:        time.Duration(seconds) * time.Second,
		Exposures:           int(count),
		TotalSignalToNoise:  total,
		SingleSignalToNoise: single,
	}, nil
}

// halfWellSeconds computes the time to half-fill the detector well at the
// peak pixel flux observed in the first probe. With several CCDs the most
// exposed one governs.
func halfWellSeconds(graphs itc.GraphResult) float64 {
	limiting := math.Inf(1)
	for _, ccd := range graphs.Ccds {
		if ccd.PeakPixelFlux <= 0 {
			continue
		}
		if t := ccd.WellDepth / (2 * ccd.PeakPixelFlux); t < limiting {
			limiting = t
		}
	}
	return limiting
}

func peakSN(graphs itc.GraphResult) (float64, error) {
	r := series.Peak(graphs.Groups, itc.FinalS2NData)
	if r.Kind != series.Success {
		return 0, r.Err()
	}
	return r.Value, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
