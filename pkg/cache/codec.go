package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

// Encode serialises a result value to its compact binary form.
//
// msgpack was chosen after measuring a representative graph response:
// plain JSON ≈ 1.44 MiB, gzip JSON ≈ 590 KiB, msgpack ≈ 260 KiB. Struct
// fields encode in declaration order, so equal values produce equal bytes.
func Encode[T any](v T) ([]byte, error) {
	out, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cached value: %w", err)
	}
	return out, nil
}

// Decode deserialises bytes produced by Encode. The format is not
// versioned across builds: callers treat a decode failure as a cache miss
// and recompute.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode cached value: %w", err)
	}
	return v, nil
}

// Cached wraps a Store with the encode/decode and fingerprinting for one
// result shape under one namespace.
type Cached[T any] struct {
	Namespace string
	Store     Store
	Logger    *slog.Logger

	// OnHit and OnMiss, when set, observe lookup outcomes (wired to
	// Prometheus counters by the service).
	OnHit  func()
	OnMiss func()
}

// GetOrCompute returns the cached value for req, or runs compute, caches
// its result, and returns it. The second return reports whether the value
// came from the cache.
//
// Backend and decode failures degrade to a miss; set failures are logged
// and dropped. There is deliberately no locking across instances: two
// simultaneous misses both compute and both set, which is harmless because
// values are pure functions of their keys.
func (c *Cached[T]) GetOrCompute(ctx context.Context, req itc.CalculationRequest, compute func(context.Context) (T, error)) (T, bool, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	key, err := Key(c.Namespace, req)
	if err != nil {
		// An unfingerprintable request cannot be cached, only computed.
		logger.Warn("cache key derivation failed", "namespace", c.Namespace, "error", err)
		v, err := compute(ctx)
		return v, false, err
	}

	if data, found, err := c.Store.Get(ctx, key); err != nil {
		logger.Warn("cache get failed", "key", string(key), "error", err)
	} else if found {
		if v, err := Decode[T](data); err != nil {
			logger.Warn("cached bytes failed to decode, recomputing", "key", string(key), "error", err)
		} else {
			if c.OnHit != nil {
				c.OnHit()
			}
			return v, true, nil
		}
	}
	if c.OnMiss != nil {
		c.OnMiss()
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, false, err
	}

	if data, err := Encode(v); err != nil {
		logger.Warn("cache encode failed", "key", string(key), "error", err)
	} else if err := c.Store.Set(ctx, key, data); err != nil {
		logger.Warn("cache set failed", "key", string(key), "error", err)
	}
	return v, false, nil
}
