package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// VersionGate keeps cached results consistent with the upstream data
// version. Every cached entry was produced under the version stored at
// VersionKey; when the upstream token changes, the whole cache is flushed
// before the new token is recorded, so stale entries are unreachable.
type VersionGate struct {
	store  Store
	source func(ctx context.Context) (string, error)
	logger *slog.Logger

	mu      sync.RWMutex
	current string
}

// NewVersionGate creates a gate reading the authoritative version from
// source (the legacy bridge's DataVersion).
func NewVersionGate(store Store, source func(ctx context.Context) (string, error), logger *slog.Logger) *VersionGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &VersionGate{store: store, source: source, logger: logger}
}

// Current returns the last data version observed by Refresh, or "" if no
// refresh has succeeded yet.
func (g *VersionGate) Current() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Refresh queries the upstream data version and reconciles the cache with
// it: on a token change the store is flushed wholesale and the new token
// recorded. Called at startup and from the polling loop.
func (g *VersionGate) Refresh(ctx context.Context) error {
	upstream, err := g.source(ctx)
	if err != nil {
		return fmt.Errorf("query upstream data version: %w", err)
	}

	stored := ""
	if data, found, err := g.store.Get(ctx, []byte(VersionKey)); err != nil {
		g.logger.Warn("stored data version unavailable, assuming stale", "error", err)
	} else if found {
		stored = string(data)
	}

	if stored != upstream {
		g.logger.Info("upstream data version changed, flushing cache",
			"stored", stored,
			"upstream", upstream,
		)
		if err := g.store.Flush(ctx); err != nil {
			return fmt.Errorf("flush cache for new data version: %w", err)
		}
		if err := g.store.Set(ctx, []byte(VersionKey), []byte(upstream)); err != nil {
			return fmt.Errorf("record new data version: %w", err)
		}
	}

	g.mu.Lock()
	g.current = upstream
	g.mu.Unlock()
	return nil
}

// Run refreshes the gate at regular intervals.
// Blocks until context is canceled.
func (g *VersionGate) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.Refresh(ctx); err != nil {
				g.logger.Error("data version refresh failed", "error", err)
			}
		}
	}
}
