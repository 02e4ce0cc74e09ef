// Package router wires the service's HTTP routes.
//
// Routes configured:
//   - POST /graphql - GraphQL endpoint (queries per the schema in cmd/itc/graph)
//   - GET /healthz - Health check (cache store and legacy sidecar reachability)
//   - GET /metrics - Prometheus metrics endpoint
package router

import (
	"context"
	"log/slog"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cquiroz/lucuma-itc/pkg/httpx"
)

// SetupRoutes configures the HTTP handler tree: the GraphQL relay handler,
// the health check and the Prometheus endpoint, wrapped in logging and
// panic-recovery middleware.
func SetupRoutes(schema *graphql.Schema, health func(ctx context.Context) error, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/graphql", &relay.Handler{Schema: schema})
	mux.Handle("/healthz", httpx.HealthHandlerWithCheck(health))
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = httpx.LoggingMiddleware(logger)(handler)
	handler = httpx.RecoveryMiddleware(logger)(handler)
	return handler
}
