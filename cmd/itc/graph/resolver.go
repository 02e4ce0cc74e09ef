package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/cquiroz/lucuma-itc/cmd/itc/metrics"
	"github.com/cquiroz/lucuma-itc/pkg/itc"
	"github.com/cquiroz/lucuma-itc/pkg/service"
)

// Resolver is the root query resolver. Queries validate and coerce their
// inputs, hand the resulting calculation request to the orchestrator, and
// map its payloads onto the schema's output types.
type Resolver struct {
	Service *service.Service
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// VersionsPayload backs the Versions output type.
type VersionsPayload struct {
	ServerVersion string
	DataVersion   *string
}

// DurationPayload backs the Duration output type.
type DurationPayload struct {
	Seconds      float64
	Milliseconds float64
}

// IntegrationTimePayload backs the IntegrationTimeResult output type.
type IntegrationTimePayload struct {
	ServerVersion       string
	DataVersion         *string
	ExposureTime        DurationPayload
	Exposures           int32
	SignalToNoise       float64
	SingleSignalToNoise float64
}

// CcdPayload backs the Ccd output type.
type CcdPayload struct {
	SingleSNRatio float64
	TotalSNRatio  float64
	PeakPixelFlux float64
	WellDepth     float64
	AmpGain       float64
	Warnings      []string
}

// ChartSeriesPayload backs the ChartSeries output type.
type ChartSeriesPayload struct {
	Title    string
	DataType string
	XAxis    []float64
	YAxis    []float64
}

// ChartGroupPayload backs the ChartGroup output type.
type ChartGroupPayload struct {
	Series []ChartSeriesPayload
}

// GraphPayload backs the SpectroscopyGraphResult output type.
type GraphPayload struct {
	ServerVersion                   string
	DataVersion                     *string
	Ccds                            []CcdPayload
	Charts                          []ChartGroupPayload
	PeakFinalSignalToNoise          float64
	PeakSingleSignalToNoise         float64
	AtWavelengthFinalSignalToNoise  *float64
	AtWavelengthSingleSignalToNoise *float64
}

// Versions resolves the versions query.
func (r *Resolver) Versions(ctx context.Context) VersionsPayload {
	return versionsPayload(r.Service.Versions(ctx))
}

// SpectroscopyIntegrationTime resolves the spectroscopyIntegrationTime query.
func (r *Resolver) SpectroscopyIntegrationTime(ctx context.Context, args struct{ Input SpectroscopyTimeInput }) (*IntegrationTimePayload, error) {
	defer r.observe("spectroscopyIntegrationTime", time.Now())

	req, err := args.Input.coerce()
	if err != nil {
		return nil, err
	}

	result, err := r.Service.SpectroscopyIntegrationTime(ctx, req)
	if err != nil {
		return nil, r.fail("spectroscopyIntegrationTime", err)
	}
	return integrationTimePayload(result), nil
}

// ImagingIntegrationTime resolves the imagingIntegrationTime query.
func (r *Resolver) ImagingIntegrationTime(ctx context.Context, args struct{ Input ImagingTimeInput }) (*IntegrationTimePayload, error) {
	defer r.observe("imagingIntegrationTime", time.Now())

	req, err := args.Input.coerce()
	if err != nil {
		return nil, err
	}

	result, err := r.Service.ImagingIntegrationTime(ctx, req)
	if err != nil {
		return nil, r.fail("imagingIntegrationTime", err)
	}
	return integrationTimePayload(result), nil
}

// OptimizedSpectroscopyGraph resolves the optimizedSpectroscopyGraph query.
func (r *Resolver) OptimizedSpectroscopyGraph(ctx context.Context, args struct{ Input SpectroscopyGraphInput }) (*GraphPayload, error) {
	defer r.observe("optimizedSpectroscopyGraph", time.Now())

	req, err := args.Input.coerce()
	if err != nil {
		return nil, err
	}

	result, err := r.Service.SpectroscopyGraph(ctx, req)
	if err != nil {
		return nil, r.fail("optimizedSpectroscopyGraph", err)
	}
	return graphPayload(result), nil
}

func (r *Resolver) observe(query string, start time.Time) {
	if r.Metrics != nil {
		r.Metrics.ObserveQuery(query, time.Since(start).Seconds())
	}
}

// fail records the failure and passes the error through to the GraphQL
// error channel; partial data handling is the transport layer's concern.
func (r *Resolver) fail(query string, err error) error {
	if r.Metrics != nil {
		r.Metrics.RecordError(query, errorReason(err))
	}
	if r.Logger != nil {
		r.Logger.Warn("query failed", "query", query, "error", err)
	}
	return err
}

func errorReason(err error) string {
	switch err.(type) {
	case *itc.SourceTooBrightError:
		return "source_too_bright"
	case *itc.CalculationError:
		return "calculation_error"
	case *itc.UpstreamError:
		return "upstream_error"
	case *itc.IntegrationTimeError:
		return "integration_time_error"
	default:
		return "internal"
	}
}

func versionsPayload(v service.Versions) VersionsPayload {
	out := VersionsPayload{ServerVersion: v.ServerVersion}
	if v.DataVersion != "" {
		dv := v.DataVersion
		out.DataVersion = &dv
	}
	return out
}

func integrationTimePayload(result service.IntegrationTimeResult) *IntegrationTimePayload {
	versions := versionsPayload(result.Versions)
	return &IntegrationTimePayload{
		ServerVersion: versions.ServerVersion,
		DataVersion:   versions.DataVersion,
		ExposureTime: DurationPayload{
			Seconds:      result.Result.ExposureTime.Seconds(),
			Milliseconds: float64(result.Result.ExposureTime.Milliseconds()),
		},
		Exposures:           int32(result.Result.Exposures),
		SignalToNoise:       result.Result.TotalSignalToNoise,
		SingleSignalToNoise: result.Result.SingleSignalToNoise,
	}
}

func graphPayload(result service.GraphsResult) *GraphPayload {
	versions := versionsPayload(result.Versions)
	out := &GraphPayload{
		ServerVersion:           versions.ServerVersion,
		DataVersion:             versions.DataVersion,
		PeakFinalSignalToNoise:  result.Result.PeakFinalSN,
		PeakSingleSignalToNoise: result.Result.PeakSingleSN,
	}

	for _, ccd := range result.Result.Ccds {
		warnings := ccd.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		out.Ccds = append(out.Ccds, CcdPayload{
			SingleSNRatio: ccd.SingleSNRatio,
			TotalSNRatio:  ccd.TotalSNRatio,
			PeakPixelFlux: ccd.PeakPixelFlux,
			WellDepth:     ccd.WellDepth,
			AmpGain:       ccd.AmpGain,
			Warnings:      warnings,
		})
	}

	for _, group := range result.Result.Groups {
		chart := ChartGroupPayload{Series: []ChartSeriesPayload{}}
		for _, s := range group.Series {
			chart.Series = append(chart.Series, ChartSeriesPayload{
				Title:    s.Title,
				DataType: string(s.DataType),
				XAxis:    s.XValues,
				YAxis:    s.YValues,
			})
		}
		out.Charts = append(out.Charts, chart)
	}

	if at := result.Result.AtWavelength; at != nil {
		final, single := at.Final, at.Single
		out.AtWavelengthFinalSignalToNoise = &final
		out.AtWavelengthSingleSignalToNoise = &single
	}
	return out
}
