// Command itc serves the GraphQL front-end of the integration time
// calculator.
//
// The service accepts target, instrument and conditions descriptions and
// answers exposure-time and spectroscopy-graph queries by delegating the
// numeric work to the legacy calculator sidecar, caching every successful
// result keyed by a fingerprint of the request.
//
// The HTTP API provides:
//   - POST /graphql - versions, spectroscopyIntegrationTime,
//     imagingIntegrationTime and optimizedSpectroscopyGraph queries
//   - GET /healthz - health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	itc \
//	  -itc-url=http://legacy-itc:8080 \
//	  -storage=redis \
//	  -redis-addr=redis:6379
//
// Environment variables:
//
//	LISTEN         - HTTP listen address (default :6060)
//	ITC_URL        - Legacy calculator sidecar URL (required)
//	ITC_TIMEOUT    - Legacy calculator call timeout (default 2m)
//	STORAGE        - Cache backend: memory or redis (default memory)
//	REDIS_ADDR     - Redis server address
//	REDIS_PASSWORD - Redis password
//	REDIS_DB       - Redis database number
//	VERSION_POLL   - Upstream data-version poll interval (default 5m)
//	LOG_LEVEL      - Logging level: debug, info, warn, error (default info)
//	LOG_FORMAT     - Logging format: text, json (default text)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/cquiroz/lucuma-itc/cmd/itc/config"
	"github.com/cquiroz/lucuma-itc/cmd/itc/graph"
	"github.com/cquiroz/lucuma-itc/cmd/itc/logger"
	"github.com/cquiroz/lucuma-itc/cmd/itc/metrics"
	"github.com/cquiroz/lucuma-itc/cmd/itc/router"
	"github.com/cquiroz/lucuma-itc/pkg/cache"
	"github.com/cquiroz/lucuma-itc/pkg/httpx"
	"github.com/cquiroz/lucuma-itc/pkg/legacy"
	"github.com/cquiroz/lucuma-itc/pkg/sched"
	"github.com/cquiroz/lucuma-itc/pkg/service"
	itctls "github.com/cquiroz/lucuma-itc/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	slog.SetDefault(log)

	log.Info("starting itc service",
		"version", version,
		"itc_url", cfg.ItcURL,
		"storage", cfg.Storage,
	)

	store, err := newStore(cfg)
	if err != nil {
		log.Error("failed to create cache store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close cache store", "error", err)
		}
	}()

	// When mTLS is enabled the same keypair authenticates this service to
	// the legacy sidecar.
	httpClient, err := httpx.NewClient(cfg.TLS, cfg.LegacyTimeout)
	if err != nil {
		log.Error("failed to create legacy itc HTTP client", "error", err)
		os.Exit(1)
	}

	bridge, err := legacy.NewClient(cfg.ItcURL, httpClient, log)
	if err != nil {
		log.Error("failed to create legacy itc client", "error", err)
		os.Exit(1)
	}

	worker := sched.NewWorker(cfg.QueueDepth, log)
	defer worker.Close()

	gate := cache.NewVersionGate(store, bridge.DataVersion, log)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := gate.Refresh(startupCtx); err != nil {
		// The sidecar may come up after us; the polling loop keeps trying.
		log.Warn("initial data-version refresh failed", "error", err)
	}
	cancelStartup()

	m := metrics.New()
	svc := service.New(bridge, worker, store, gate, version, log, service.Hooks{
		CacheHit:          m.RecordCacheHit,
		CacheMiss:         m.RecordCacheMiss,
		SolverIteration:   m.RecordSolverIteration,
		LegacyCallSeconds: m.ObserveLegacyCall,
	})

	schema := graphql.MustParseSchema(graph.Schema, &graph.Resolver{
		Service: svc,
		Logger:  log,
		Metrics: m,
	}, graphql.UseFieldResolvers())

	health := func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("cache store: %w", err)
		}
		if _, err := bridge.DataVersion(ctx); err != nil {
			return fmt.Errorf("legacy itc: %w", err)
		}
		return nil
	}
	handler := router.SetupRoutes(schema, health, log)
	httpServer := httpx.NewServer(cfg.Listen, handler, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := gate.Run(ctx, cfg.VersionPoll); err != nil && err != context.Canceled {
			log.Error("data-version poll loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		if cfg.TLS.Enabled {
			tlsConfig, err := itctls.NewServerTLSConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile)
			if err != nil {
				serverErr <- err
				return
			}
			httpServer.SetTLSConfig(tlsConfig)
			serverErr <- httpServer.StartTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", "error", err)
		}
	}

	log.Info("shutting down")
	cancel()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

// newStore builds the configured cache backend.
func newStore(cfg *config.Config) (cache.Store, error) {
	if cfg.Storage == "redis" {
		return cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	return cache.NewMemoryStore(), nil
}
