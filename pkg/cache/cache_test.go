package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

func sampleRequest() itc.CalculationRequest {
	cw, _ := itc.WavelengthFromNanometers(500)
	return itc.CalculationRequest{
		Target: itc.TargetProfile{
			Source: itc.SourceProfile{
				Geometry: itc.GeometryPoint,
				Distribution: &itc.SpectralDistribution{
					Kind:     itc.SEDStellarLibrary,
					Template: "A0V",
				},
				Brightness: &itc.Brightness{Band: itc.BandR, Value: 15, Unit: itc.UnitVegaMagnitude},
			},
			RadialVelocity: itc.RadialVelocity{MetersPerSecond: 1000},
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
			AirMass:         1.5,
		},
		Goal: itc.CalculationGoal{SignalToNoise: 100},
	}
}

func TestKeyStability(t *testing.T) {
	k1, err := Key(NamespaceSpectroscopyTime, sampleRequest())
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	k2, err := Key(NamespaceSpectroscopyTime, sampleRequest())
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Errorf("equal requests produced different keys: %s vs %s", k1, k2)
	}
}

func TestKeyFormat(t *testing.T) {
	key, err := Key(NamespaceSpectroscopyGraph, sampleRequest())
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	s := string(key)
	if !strings.HasPrefix(s, NamespaceSpectroscopyGraph+":") {
		t.Fatalf("key %q lacks namespace prefix", s)
	}
	hex := strings.TrimPrefix(s, NamespaceSpectroscopyGraph+":")
	if len(hex) != 16 {
		t.Errorf("key hash %q is %d chars, want 16", hex, len(hex))
	}
	if hex != strings.ToLower(hex) {
		t.Errorf("key hash %q is not lowercase", hex)
	}
}

func TestKeyDistinguishesRequestsAndNamespaces(t *testing.T) {
	base := sampleRequest()

	changed := sampleRequest()
	changed.Goal.SignalToNoise = 101

	kBase, _ := Key(NamespaceSpectroscopyTime, base)
	kChanged, _ := Key(NamespaceSpectroscopyTime, changed)
	if bytes.Equal(kBase, kChanged) {
		t.Errorf("different goals hashed to the same key %s", kBase)
	}

	kOtherNs, _ := Key(NamespaceSpectroscopyGraph, base)
	if bytes.Equal(kBase, kOtherNs) {
		t.Errorf("namespaces share key %s", kBase)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	original := itc.GraphResult{
		Ccds: []itc.CcdResult{{
			SingleSNRatio: 10.5,
			TotalSNRatio:  33.2,
			PeakPixelFlux: 1250,
			WellDepth:     150000,
			AmpGain:       1.63,
			Warnings:      []string{"near saturation"},
		}},
		Groups: []itc.GraphGroup{{
			Series: []itc.Series{{
				Title:    "Final S/N",
				DataType: itc.FinalS2NData,
				XValues:  []float64{1.0, 2.0},
				YValues:  []float64{1000.0, 1001.0},
			}},
		}},
		PeakFinalSN:  1001,
		PeakSingleSN: 300.25,
	}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode[itc.GraphResult](data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(decoded.Ccds) != 1 || decoded.Ccds[0].AmpGain != 1.63 {
		t.Errorf("ccds did not round-trip: %+v", decoded.Ccds)
	}
	if len(decoded.Groups) != 1 || len(decoded.Groups[0].Series) != 1 {
		t.Fatalf("groups did not round-trip: %+v", decoded.Groups)
	}
	got := decoded.Groups[0].Series[0]
	if got.DataType != itc.FinalS2NData || got.YValues[1] != 1001.0 {
		t.Errorf("series did not round-trip: %+v", got)
	}
	if decoded.PeakFinalSN != 1001 || decoded.PeakSingleSN != 300.25 {
		t.Errorf("peaks did not round-trip: %+v", decoded)
	}
}

func TestCodecDeterministic(t *testing.T) {
	plan := itc.IntegrationTime{
		ExposureTime:        90 * time.Second,
		Exposures:           4,
		TotalSignalToNoise:  20,
		SingleSignalToNoise: 10,
	}

	a, _ := Encode(plan)
	b, _ := Encode(plan)
	if !bytes.Equal(a, b) {
		t.Error("equal values encoded to different bytes")
	}
}

func TestGetOrComputeCachesOnce(t *testing.T) {
	store := NewMemoryStore()
	cached := Cached[itc.IntegrationTime]{Namespace: NamespaceSpectroscopyTime, Store: store}

	computes := 0
	compute := func(ctx context.Context) (itc.IntegrationTime, error) {
		computes++
		return itc.IntegrationTime{ExposureTime: time.Second, Exposures: 10, TotalSignalToNoise: 10}, nil
	}

	ctx := context.Background()
	first, fromCache, err := cached.GetOrCompute(ctx, sampleRequest(), compute)
	if err != nil {
		t.Fatalf("first GetOrCompute: %v", err)
	}
	if fromCache {
		t.Error("first lookup reported a cache hit")
	}

	second, fromCache, err := cached.GetOrCompute(ctx, sampleRequest(), compute)
	if err != nil {
		t.Fatalf("second GetOrCompute: %v", err)
	}
	if !fromCache {
		t.Error("second lookup missed")
	}
	if computes != 1 {
		t.Errorf("compute ran %d times, want 1", computes)
	}
	if first != second {
		t.Errorf("cached payload differs: %+v vs %+v", first, second)
	}
}

func TestGetOrComputeUndecodableIsAMiss(t *testing.T) {
	store := NewMemoryStore()
	key, _ := Key(NamespaceImagingTime, sampleRequest())
	if err := store.Set(context.Background(), key, []byte("not msgpack at all")); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	cached := Cached[itc.IntegrationTime]{Namespace: NamespaceImagingTime, Store: store}
	computes := 0
	got, fromCache, err := cached.GetOrCompute(context.Background(), sampleRequest(), func(ctx context.Context) (itc.IntegrationTime, error) {
		computes++
		return itc.IntegrationTime{ExposureTime: time.Second, Exposures: 1}, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if fromCache || computes != 1 {
		t.Errorf("undecodable entry not treated as miss: fromCache=%v computes=%d", fromCache, computes)
	}
	if got.Exposures != 1 {
		t.Errorf("got %+v", got)
	}
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (f *failingStore) Set(ctx context.Context, key, value []byte) error {
	return errors.New("backend down")
}

func TestGetOrComputeSwallowsBackendErrors(t *testing.T) {
	cached := Cached[itc.IntegrationTime]{
		Namespace: NamespaceSpectroscopyTime,
		Store:     &failingStore{MemoryStore{entries: map[string][]byte{}}},
	}

	got, fromCache, err := cached.GetOrCompute(context.Background(), sampleRequest(), func(ctx context.Context) (itc.IntegrationTime, error) {
		return itc.IntegrationTime{ExposureTime: 2 * time.Second, Exposures: 3}, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute with failing backend: %v", err)
	}
	if fromCache {
		t.Error("failing backend reported a hit")
	}
	if got.Exposures != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestGetOrComputeHooks(t *testing.T) {
	store := NewMemoryStore()
	hits, misses := 0, 0
	cached := Cached[itc.IntegrationTime]{
		Namespace: NamespaceSpectroscopyTime,
		Store:     store,
		OnHit:     func() { hits++ },
		OnMiss:    func() { misses++ },
	}

	compute := func(ctx context.Context) (itc.IntegrationTime, error) {
		return itc.IntegrationTime{ExposureTime: time.Second, Exposures: 1}, nil
	}
	ctx := context.Background()
	cached.GetOrCompute(ctx, sampleRequest(), compute)
	cached.GetOrCompute(ctx, sampleRequest(), compute)

	if hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1 and 1", hits, misses)
	}
}

func TestVersionGateFlushOnChange(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	upstream := "2025A.1"
	gate := NewVersionGate(store, func(ctx context.Context) (string, error) {
		return upstream, nil
	}, nil)

	if err := gate.Refresh(ctx); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	if got := gate.Current(); got != "2025A.1" {
		t.Errorf("Current() = %q, want 2025A.1", got)
	}

	// Populate an entry under the current version.
	key, _ := Key(NamespaceSpectroscopyTime, sampleRequest())
	if err := store.Set(ctx, key, []byte{0x01}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Same version: contents survive.
	if err := gate.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, found, _ := store.Get(ctx, key); !found {
		t.Fatal("entry lost without a version change")
	}

	// Version change: everything must miss afterwards.
	upstream = "2025B.1"
	if err := gate.Refresh(ctx); err != nil {
		t.Fatalf("refresh after change: %v", err)
	}
	if _, found, _ := store.Get(ctx, key); found {
		t.Error("entry survived a data-version change")
	}
	if data, found, _ := store.Get(ctx, []byte(VersionKey)); !found || string(data) != "2025B.1" {
		t.Errorf("recorded version = %q (found=%v), want 2025B.1", data, found)
	}
	if got := gate.Current(); got != "2025B.1" {
		t.Errorf("Current() = %q, want 2025B.1", got)
	}
}

func TestVersionGateSourceFailure(t *testing.T) {
	store := NewMemoryStore()
	gate := NewVersionGate(store, func(ctx context.Context) (string, error) {
		return "", errors.New("sidecar down")
	}, nil)

	if err := gate.Refresh(context.Background()); err == nil {
		t.Error("Refresh with failing source: want error")
	}
	if got := gate.Current(); got != "" {
		t.Errorf("Current() = %q, want empty", got)
	}
}
