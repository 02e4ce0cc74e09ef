// Package service implements the request orchestrator: the three
// calculation entry points composing the cache, the calculator worker, the
// legacy bridge, the S/N extractor and the exposure-time solver, plus the
// version metadata attached to every response.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cquiroz/lucuma-itc/pkg/cache"
	"github.com/cquiroz/lucuma-itc/pkg/exptime"
	"github.com/cquiroz/lucuma-itc/pkg/itc"
	"github.com/cquiroz/lucuma-itc/pkg/legacy"
	"github.com/cquiroz/lucuma-itc/pkg/sched"
)

// Bridge is the two-method calculator surface plus the data-version probe.
// *legacy.Client satisfies it; tests substitute stubs.
type Bridge interface {
	CalculateGraphs(ctx context.Context, doc []byte) (itc.GraphResult, error)
	CalculateExposureTime(ctx context.Context, doc []byte) (itc.IntegrationTime, error)
	DataVersion(ctx context.Context) (string, error)
}

// Hooks are optional instrumentation callbacks, wired to Prometheus by the
// binary. All fields may be nil.
type Hooks struct {
	CacheHit          func(namespace string)
	CacheMiss         func(namespace string)
	SolverIteration   func()
	LegacyCallSeconds func(seconds float64)
}

// Versions is the metadata attached to every response.
type Versions struct {
	// ServerVersion identifies this build.
	ServerVersion string
	// DataVersion is the upstream data-version token; empty when the
	// upstream has not been reachable yet.
	DataVersion string
}

// IntegrationTimeResult is an integration-time response with versions.
type IntegrationTimeResult struct {
	Versions
	Result itc.IntegrationTime
}

// GraphsResult is a spectroscopy graph response with versions.
type GraphsResult struct {
	Versions
	Result itc.GraphResult
}

// Service is the request orchestrator. All dependencies are injected; the
// service itself holds no mutable state beyond what they encapsulate.
type Service struct {
	bridge        Bridge
	worker        *sched.Worker
	gate          *cache.VersionGate
	serverVersion string
	logger        *slog.Logger
	hooks         Hooks

	specGraph cache.Cached[itc.GraphResult]
	specTime  cache.Cached[itc.IntegrationTime]
	imgTime   cache.Cached[itc.IntegrationTime]
}

// New assembles the orchestrator.
func New(bridge Bridge, worker *sched.Worker, store cache.Store, gate *cache.VersionGate, serverVersion string, logger *slog.Logger, hooks Hooks) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		bridge:        bridge,
		worker:        worker,
		gate:          gate,
		serverVersion: serverVersion,
		logger:        logger,
		hooks:         hooks,
	}
	s.specGraph = cached[itc.GraphResult](s, store, cache.NamespaceSpectroscopyGraph)
	s.specTime = cached[itc.IntegrationTime](s, store, cache.NamespaceSpectroscopyTime)
	s.imgTime = cached[itc.IntegrationTime](s, store, cache.NamespaceImagingTime)
	return s
}

func cached[T any](s *Service, store cache.Store, ns string) cache.Cached[T] {
	return cache.Cached[T]{
		Namespace: ns,
		Store:     store,
		Logger:    s.logger,
		OnHit: func() {
			if s.hooks.CacheHit != nil {
				s.hooks.CacheHit(ns)
			}
		},
		OnMiss: func() {
			if s.hooks.CacheMiss != nil {
				s.hooks.CacheMiss(ns)
			}
		},
	}
}

// Versions returns the build identifier and the last observed upstream
// data version.
func (s *Service) Versions(ctx context.Context) Versions {
	return Versions{
		ServerVersion: s.serverVersion,
		DataVersion:   s.gate.Current(),
	}
}

// callGraphs encodes req and runs a graph calculation on the calculator
// worker.
func (s *Service) callGraphs(ctx context.Context, req itc.CalculationRequest) (itc.GraphResult, error) {
	doc, err := legacy.EncodeDocument(req)
	if err != nil {
		return itc.GraphResult{}, err
	}
	var out itc.GraphResult
	err = s.worker.Do(ctx, func(ctx context.Context) error {
		defer s.timeLegacyCall(time.Now())
		var callErr error
		out, callErr = s.bridge.CalculateGraphs(ctx, doc)
		return callErr
	})
	return out, err
}

func (s *Service) timeLegacyCall(start time.Time) {
	if s.hooks.LegacyCallSeconds != nil {
		s.hooks.LegacyCallSeconds(time.Since(start).Seconds())
	}
}

// callExposureTime encodes req and runs an exposure-time calculation on
// the calculator worker.
func (s *Service) callExposureTime(ctx context.Context, req itc.CalculationRequest) (itc.IntegrationTime, error) {
	doc, err := legacy.EncodeDocument(req)
	if err != nil {
		return itc.IntegrationTime{}, err
	}
	var out itc.IntegrationTime
	err = s.worker.Do(ctx, func(ctx context.Context) error {
		defer s.timeLegacyCall(time.Now())
		var callErr error
		out, callErr = s.bridge.CalculateExposureTime(ctx, doc)
		return callErr
	})
	return out, err
}

// solver builds an exposure-time solver whose probes run req's target and
// configuration with candidate exposure plans.
func (s *Service) solver(req itc.CalculationRequest) *exptime.Solver {
	return &exptime.Solver{
		Probe: func(ctx context.Context, exposureTime time.Duration, exposures int) (itc.GraphResult, error) {
			probe := req
			probe.Goal = itc.CalculationGoal{ExposureTime: exposureTime, Exposures: exposures}
			return s.callGraphs(ctx, probe)
		},
		Direct: func(ctx context.Context, signalToNoise float64, at itc.Wavelength) (itc.IntegrationTime, error) {
			direct := req
			direct.Goal = itc.CalculationGoal{SignalToNoise: signalToNoise, SignalToNoiseAt: at}
			return s.callExposureTime(ctx, direct)
		},
		Logger:      s.logger,
		OnIteration: s.hooks.SolverIteration,
	}
}

func validatePlan(p itc.IntegrationTime) error {
	if p.ExposureTime <= 0 || p.Exposures <= 0 {
		return &itc.IntegrationTimeError{ExposureTime: p.ExposureTime, Exposures: p.Exposures}
	}
	return nil
}

func requireSpectroscopy(req itc.CalculationRequest) error {
	if req.Mode.Spectroscopy == nil {
		return fmt.Errorf("request requires a spectroscopy observing mode")
	}
	return nil
}

func requireImaging(req itc.CalculationRequest) error {
	if req.Mode.Imaging == nil {
		return fmt.Errorf("request requires an imaging observing mode")
	}
	return nil
}
