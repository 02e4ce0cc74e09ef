package service

import (
	"context"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
	"github.com/cquiroz/lucuma-itc/pkg/series"
)

// SpectroscopyIntegrationTime solves an exposure plan reaching the
// requested signal-to-noise for a spectroscopic configuration.
func (s *Service) SpectroscopyIntegrationTime(ctx context.Context, req itc.CalculationRequest) (IntegrationTimeResult, error) {
	if err := requireSpectroscopy(req); err != nil {
		return IntegrationTimeResult{}, err
	}

	plan, fromCache, err := s.specTime.GetOrCompute(ctx, req, func(ctx context.Context) (itc.IntegrationTime, error) {
		solved, err := s.solver(req).Solve(ctx, req.Goal)
		if err != nil {
			return itc.IntegrationTime{}, err
		}
		if err := validatePlan(solved); err != nil {
			return itc.IntegrationTime{}, err
		}
		return solved, nil
	})
	if err != nil {
		return IntegrationTimeResult{}, err
	}

	s.logger.Info("spectroscopy integration time computed",
		"cached", fromCache,
		"exposures", plan.Exposures,
		"exposure_seconds", plan.ExposureTime.Seconds(),
	)
	return IntegrationTimeResult{Versions: s.Versions(ctx), Result: plan}, nil
}

// ImagingIntegrationTime solves an exposure plan for an imaging
// configuration. The legacy calculator solves imaging plans directly, so
// there is no iterative loop on this path.
func (s *Service) ImagingIntegrationTime(ctx context.Context, req itc.CalculationRequest) (IntegrationTimeResult, error) {
	if err := requireImaging(req); err != nil {
		return IntegrationTimeResult{}, err
	}

	plan, fromCache, err := s.imgTime.GetOrCompute(ctx, req, func(ctx context.Context) (itc.IntegrationTime, error) {
		solved, err := s.callExposureTime(ctx, req)
		if err != nil {
			return itc.IntegrationTime{}, err
		}
		if err := validatePlan(solved); err != nil {
			return itc.IntegrationTime{}, err
		}
		return solved, nil
	})
	if err != nil {
		return IntegrationTimeResult{}, err
	}

	s.logger.Info("imaging integration time computed",
		"cached", fromCache,
		"exposures", plan.Exposures,
		"exposure_seconds", plan.ExposureTime.Seconds(),
	)
	return IntegrationTimeResult{Versions: s.Versions(ctx), Result: plan}, nil
}

// SpectroscopyGraph runs a graph calculation for a fixed exposure plan and
// assembles the S/N summary values from the final-S/N curve. Trimming to
// significant figures happens before the result is cached, so a trimmed
// and an untrimmed request are distinct cache entries.
func (s *Service) SpectroscopyGraph(ctx context.Context, req itc.CalculationRequest) (GraphsResult, error) {
	if err := requireSpectroscopy(req); err != nil {
		return GraphsResult{}, err
	}

	graphs, fromCache, err := s.specGraph.GetOrCompute(ctx, req, func(ctx context.Context) (itc.GraphResult, error) {
		computed, err := s.callGraphs(ctx, req)
		if err != nil {
			return itc.GraphResult{}, err
		}
		assembled, err := assembleSN(computed, req.Goal.SignalToNoiseAt)
		if err != nil {
			return itc.GraphResult{}, err
		}
		return trimGraphResult(assembled, req.Figures), nil
	})
	if err != nil {
		return GraphsResult{}, err
	}

	s.logger.Info("spectroscopy graphs computed",
		"cached", fromCache,
		"groups", len(graphs.Groups),
		"ccds", len(graphs.Ccds),
	)
	return GraphsResult{Versions: s.Versions(ctx), Result: graphs}, nil
}

// assembleSN fills in the peak and at-wavelength S/N summary values of a
// graph result. A missing final-S/N curve, or a requested wavelength
// outside its domain, fails the whole calculation.
func assembleSN(graphs itc.GraphResult, at itc.Wavelength) (itc.GraphResult, error) {
	peakFinal := series.Peak(graphs.Groups, itc.FinalS2NData)
	if peakFinal.Kind != series.Success {
		return itc.GraphResult{}, peakFinal.Err()
	}
	graphs.PeakFinalSN = peakFinal.Value

	// Not every configuration produces a single-exposure curve; its
	// absence is not an error.
	if peakSingle := series.Peak(graphs.Groups, itc.SingleS2NData); peakSingle.Kind == series.Success {
		graphs.PeakSingleSN = peakSingle.Value
	}

	if at.IsZero() {
		return graphs, nil
	}

	nm := at.Nanometers()
	atFinal := series.At(graphs.Groups, itc.FinalS2NData, nm)
	if atFinal.Kind != series.Success {
		return itc.GraphResult{}, atFinal.Err()
	}
	sn := &itc.SNAt{Wavelength: at, Final: atFinal.Value}
	if atSingle := series.At(graphs.Groups, itc.SingleS2NData, nm); atSingle.Kind == series.Success {
		sn.Single = atSingle.Value
	}
	graphs.AtWavelength = sn
	return graphs, nil
}
