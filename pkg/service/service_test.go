package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/cquiroz/lucuma-itc/pkg/cache"
	"github.com/cquiroz/lucuma-itc/pkg/itc"
	"github.com/cquiroz/lucuma-itc/pkg/sched"
)

// stubBridge is a scripted calculator: handlers receive the canonical
// document so tests can assert on what actually reached the bridge.
type stubBridge struct {
	graphCalls    atomic.Int32
	exposureCalls atomic.Int32

	graphs   func(doc []byte) (itc.GraphResult, error)
	exposure func(doc []byte) (itc.IntegrationTime, error)
	version  string
}

func (s *stubBridge) CalculateGraphs(ctx context.Context, doc []byte) (itc.GraphResult, error) {
	s.graphCalls.Add(1)
	return s.graphs(doc)
}

func (s *stubBridge) CalculateExposureTime(ctx context.Context, doc []byte) (itc.IntegrationTime, error) {
	s.exposureCalls.Add(1)
	return s.exposure(doc)
}

func (s *stubBridge) DataVersion(ctx context.Context) (string, error) {
	if s.version == "" {
		return "", errors.New("no version scripted")
	}
	return s.version, nil
}

func graphsPayload() itc.GraphResult {
	return itc.GraphResult{
		Ccds: []itc.CcdResult{{WellDepth: 150000, PeakPixelFlux: 520, AmpGain: 1.63, SingleSNRatio: 300.44, TotalSNRatio: 1001.26}},
		Groups: []itc.GraphGroup{{
			Series: []itc.Series{{
				Title:    "Final S/N",
				DataType: itc.FinalS2NData,
				XValues:  []float64{1.0, 2.0},
				YValues:  []float64{1000.0, 1001.0},
			}},
		}},
	}
}

func newTestService(t *testing.T, bridge *stubBridge) (*Service, *cache.MemoryStore) {
	t.Helper()

	worker := sched.NewWorker(4, nil)
	t.Cleanup(worker.Close)

	store := cache.NewMemoryStore()
	gate := cache.NewVersionGate(store, bridge.DataVersion, nil)
	if bridge.version != "" {
		if err := gate.Refresh(context.Background()); err != nil {
			t.Fatalf("gate refresh: %v", err)
		}
	}

	return New(bridge, worker, store, gate, "v1.2.3", nil, Hooks{}), store
}

func graphRequest(atNm float64) itc.CalculationRequest {
	cw, _ := itc.WavelengthFromNanometers(60)
	req := itc.CalculationRequest{
		Target: itc.TargetProfile{
			Source: itc.SourceProfile{
				Geometry:     itc.GeometryPoint,
				Distribution: &itc.SpectralDistribution{Kind: itc.SEDStellarLibrary, Template: "K5III"},
				Brightness:   &itc.Brightness{Band: itc.BandR, Value: 14, Unit: itc.UnitVegaMagnitude},
			},
		},
		Mode: itc.ObservingMode{
			Spectroscopy: &itc.SpectroscopyMode{
				Site:              itc.SiteNorth,
				Grating:           itc.GratingB1200G5301,
				FocalPlane:        itc.FocalPlane{BuiltIn: itc.FpuLongSlit025},
				Filter:            itc.FilterGPrime,
				CentralWavelength: cw,
			},
		},
		Conditions: itc.ObservingConditions{
			ImageQuality:    itc.ImageQualityPointEight,
			CloudExtinction: itc.CloudExtinctionPointThree,
			SkyBackground:   itc.SkyBackgroundDark,
			WaterVapor:      itc.WaterVaporMedian,
			AirMass:         1.2,
		},
		Goal: itc.CalculationGoal{ExposureTime: 2500 * time.Microsecond, Exposures: 10},
	}
	if atNm > 0 {
		at, _ := itc.WavelengthFromNanometers(atNm)
		req.Goal.SignalToNoiseAt = at
	}
	return req
}

func TestSpectroscopyGraphPeak(t *testing.T) {
	bridge := &stubBridge{
		version: "2025A.1",
		graphs:  func([]byte) (itc.GraphResult, error) { return graphsPayload(), nil },
	}
	svc, _ := newTestService(t, bridge)

	got, err := svc.SpectroscopyGraph(context.Background(), graphRequest(0))
	if err != nil {
		t.Fatalf("SpectroscopyGraph: %v", err)
	}

	if got.Result.PeakFinalSN != 1001.0 {
		t.Errorf("PeakFinalSN = %v, want 1001", got.Result.PeakFinalSN)
	}
	if got.Result.AtWavelength != nil {
		t.Errorf("AtWavelength = %+v, want nil", got.Result.AtWavelength)
	}
	if got.ServerVersion != "v1.2.3" || got.DataVersion != "2025A.1" {
		t.Errorf("versions = %+v", got.Versions)
	}
}

func TestSpectroscopyGraphAtWavelength(t *testing.T) {
	bridge := &stubBridge{
		version: "2025A.1",
		graphs:  func([]byte) (itc.GraphResult, error) { return graphsPayload(), nil },
	}
	svc, _ := newTestService(t, bridge)

	got, err := svc.SpectroscopyGraph(context.Background(), graphRequest(1.5))
	if err != nil {
		t.Fatalf("SpectroscopyGraph: %v", err)
	}
	if got.Result.AtWavelength == nil {
		t.Fatal("AtWavelength missing")
	}
	if got.Result.AtWavelength.Final != 1000.5 {
		t.Errorf("at-wavelength S/N = %v, want 1000.5", got.Result.AtWavelength.Final)
	}
}

func TestSpectroscopyGraphOutOfRange(t *testing.T) {
	bridge := &stubBridge{
		version: "2025A.1",
		graphs:  func([]byte) (itc.GraphResult, error) { return graphsPayload(), nil },
	}
	svc, _ := newTestService(t, bridge)

	for _, nm := range []float64{0.1, 5.1} {
		_, err := svc.SpectroscopyGraph(context.Background(), graphRequest(nm))
		var calcErr *itc.CalculationError
		if !errors.As(err, &calcErr) {
			t.Errorf("at %v nm: error = %v, want CalculationError", nm, err)
		}
	}
}

func TestSpectroscopyGraphCacheTransparency(t *testing.T) {
	bridge := &stubBridge{
		version: "2025A.1",
		graphs:  func([]byte) (itc.GraphResult, error) { return graphsPayload(), nil },
	}
	svc, _ := newTestService(t, bridge)
	ctx := context.Background()

	first, err := svc.SpectroscopyGraph(ctx, graphRequest(1.5))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.SpectroscopyGraph(ctx, graphRequest(1.5))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if n := bridge.graphCalls.Load(); n != 1 {
		t.Errorf("calculator invoked %d times, want 1", n)
	}
	if !reflect.DeepEqual(first.Result, second.Result) {
		t.Errorf("cached payload differs:\nfirst  %+v\nsecond %+v", first.Result, second.Result)
	}
}

func TestSpectroscopyGraphTrimsSignificantFigures(t *testing.T) {
	bridge := &stubBridge{
		version: "2025A.1",
		graphs:  func([]byte) (itc.GraphResult, error) { return graphsPayload(), nil },
	}
	svc, _ := newTestService(t, bridge)

	req := graphRequest(0)
	req.Figures = itc.SignificantFigures{YAxis: 3, CCD: 2}

	got, err := svc.SpectroscopyGraph(context.Background(), req)
	if err != nil {
		t.Fatalf("SpectroscopyGraph: %v", err)
	}
	if got.Result.PeakFinalSN != 1000 {
		t.Errorf("trimmed peak = %v, want 1000", got.Result.PeakFinalSN)
	}
	if got.Result.Groups[0].Series[0].YValues[0] != 1000 {
		t.Errorf("trimmed y = %v, want 1000", got.Result.Groups[0].Series[0].YValues[0])
	}
	if got.Result.Ccds[0].AmpGain != 1.6 {
		t.Errorf("trimmed amp gain = %v, want 1.6", got.Result.Ccds[0].AmpGain)
	}
	// X axis untouched when unset.
	if got.Result.Groups[0].Series[0].XValues[0] != 1.0 {
		t.Errorf("x axis modified: %v", got.Result.Groups[0].Series[0].XValues)
	}
}

func TestSpectroscopyIntegrationTimeAtWavelength(t *testing.T) {
	want := itc.IntegrationTime{
		ExposureTime:        time.Second,
		Exposures:           10,
		TotalSignalToNoise:  10,
		SingleSignalToNoise: 3.16,
	}
	bridge := &stubBridge{
		version: "2025A.1",
		exposure: func(doc []byte) (itc.IntegrationTime, error) {
			if method := gjson.GetBytes(doc, "observation.method").String(); method != "S2N_AT" {
				t.Errorf("method = %q, want S2N_AT", method)
			}
			return want, nil
		},
	}
	svc, _ := newTestService(t, bridge)

	req := graphRequest(60)
	req.Goal = itc.CalculationGoal{SignalToNoise: 2, SignalToNoiseAt: req.Goal.SignalToNoiseAt}

	got, err := svc.SpectroscopyIntegrationTime(context.Background(), req)
	if err != nil {
		t.Fatalf("SpectroscopyIntegrationTime: %v", err)
	}
	if got.Result != want {
		t.Errorf("got %+v, want %+v", got.Result, want)
	}

	// Second call is served from the cache.
	if _, err := svc.SpectroscopyIntegrationTime(context.Background(), req); err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if n := bridge.exposureCalls.Load(); n != 1 {
		t.Errorf("calculator invoked %d times, want 1", n)
	}
}

func TestSpectroscopyIntegrationTimePeakIterates(t *testing.T) {
	bridge := &stubBridge{
		version: "2025A.1",
		graphs: func(doc []byte) (itc.GraphResult, error) {
			// Fake physics: S/N grows with sqrt of the probed total time.
			seconds := gjson.GetBytes(doc, "observation.exposureTime").Float()
			n := gjson.GetBytes(doc, "observation.exposures").Float()
			sn := 0.5 * math.Sqrt(n*seconds)
			g := graphsPayload()
			g.Groups[0].Series[0].YValues = []float64{sn * 0.9, sn}
			return g, nil
		},
	}
	svc, _ := newTestService(t, bridge)

	req := graphRequest(0)
	req.Goal = itc.CalculationGoal{SignalToNoise: 40}

	got, err := svc.SpectroscopyIntegrationTime(context.Background(), req)
	if err != nil {
		t.Fatalf("SpectroscopyIntegrationTime: %v", err)
	}
	if got.Result.Exposures <= 0 || got.Result.ExposureTime <= 0 {
		t.Fatalf("plan not positive: %+v", got.Result)
	}
	if bridge.graphCalls.Load() < 2 {
		t.Errorf("expected an iterative probe sequence, got %d calls", bridge.graphCalls.Load())
	}
}

func TestImagingIntegrationTime(t *testing.T) {
	want := itc.IntegrationTime{ExposureTime: 30 * time.Second, Exposures: 4, TotalSignalToNoise: 55, SingleSignalToNoise: 27.5}
	bridge := &stubBridge{
		version:  "2025A.1",
		exposure: func(doc []byte) (itc.IntegrationTime, error) { return want, nil },
	}
	svc, _ := newTestService(t, bridge)

	req := itc.CalculationRequest{
		Target: itc.TargetProfile{Source: itc.SourceProfile{
			Geometry:     itc.GeometryPoint,
			Distribution: &itc.SpectralDistribution{Kind: itc.SEDPowerLaw, Index: -1},
			Brightness:   &itc.Brightness{Band: itc.BandI, Value: 20, Unit: itc.UnitABMagnitude},
		}},
		Mode: itc.ObservingMode{Imaging: &itc.ImagingMode{Site: itc.SiteSouth, Filter: itc.FilterIPrime}},
		Conditions: itc.ObservingConditions{
			ImageQuality:    itc.ImageQualityPointSix,
			CloudExtinction: itc.CloudExtinctionPointOne,
			SkyBackground:   itc.SkyBackgroundBright,
			WaterVapor:      itc.WaterVaporDry,
			AirMass:         2.0,
		},
		Goal: itc.CalculationGoal{SignalToNoise: 55},
	}

	got, err := svc.ImagingIntegrationTime(context.Background(), req)
	if err != nil {
		t.Fatalf("ImagingIntegrationTime: %v", err)
	}
	if got.Result != want {
		t.Errorf("got %+v, want %+v", got.Result, want)
	}

	// A spectroscopy request on the imaging path is rejected up front.
	if _, err := svc.ImagingIntegrationTime(context.Background(), graphRequest(0)); err == nil {
		t.Error("imaging path accepted a spectroscopy mode")
	}
}

func TestUpstreamErrorSurfaces(t *testing.T) {
	bridge := &stubBridge{
		version: "2025A.1",
		graphs: func([]byte) (itc.GraphResult, error) {
			return itc.GraphResult{}, &itc.UpstreamError{Message: "no flux in band"}
		},
	}
	svc, store := newTestService(t, bridge)

	_, err := svc.SpectroscopyGraph(context.Background(), graphRequest(0))
	var upstream *itc.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}

	// Failures are never cached: only the version key may be present.
	if store.Len() != 1 {
		t.Errorf("store has %d entries after a failure, want only the version key", store.Len())
	}
}

func TestVersions(t *testing.T) {
	bridge := &stubBridge{version: "2025A.1", graphs: func([]byte) (itc.GraphResult, error) { return graphsPayload(), nil }}
	svc, _ := newTestService(t, bridge)

	v := svc.Versions(context.Background())
	if v.ServerVersion != "v1.2.3" || v.DataVersion != "2025A.1" {
		t.Errorf("Versions = %+v", v)
	}
}
