//go:build integration

package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupRedisContainer starts a Redis container for testing
func setupRedisContainer(t *testing.T) (*tcredis.RedisContainer, string) {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	// Strip "redis://" prefix if present
	addr := endpoint
	if len(endpoint) > 8 && endpoint[:8] == "redis://" {
		addr = endpoint[8:]
	}

	return redisContainer, addr
}

func terminate(t *testing.T, container *tcredis.RedisContainer) {
	t.Helper()
	if err := testcontainers.TerminateContainer(container); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func TestRedisStoreGetSetFlush(t *testing.T) {
	container, addr := setupRedisContainer(t)
	defer terminate(t, container)

	store, err := NewRedisStore(addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, found, err := store.Get(ctx, []byte("spec-graph:dead")); err != nil || found {
		t.Fatalf("Get on empty db = found %v, err %v", found, err)
	}

	if err := store.Set(ctx, []byte("spec-graph:dead"), []byte{0xde, 0xad}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, found, err := store.Get(ctx, []byte("spec-graph:dead"))
	if err != nil || !found {
		t.Fatalf("Get = found %v, err %v", found, err)
	}
	if !bytes.Equal(value, []byte{0xde, 0xad}) {
		t.Errorf("Get = %x", value)
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, found, _ := store.Get(ctx, []byte("spec-graph:dead")); found {
		t.Error("entry survived Flush")
	}
}

func TestRedisStoreNoExpiry(t *testing.T) {
	container, addr := setupRedisContainer(t)
	defer terminate(t, container)

	store, err := NewRedisStore(addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, []byte(VersionKey), []byte("2025A.1")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ttl := store.client.TTL(ctx, VersionKey).Val()
	if ttl >= 0 {
		t.Errorf("TTL = %v, want none (-1)", ttl)
	}
}

func TestRedisStoreConcurrentWrites(t *testing.T) {
	container, addr := setupRedisContainer(t)
	defer terminate(t, container)

	store, err := NewRedisStore(addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Writes are idempotent: many writers racing on the same key is fine.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				key := []byte(fmt.Sprintf("img-time:%016x", j))
				if err := store.Set(ctx, key, []byte{byte(j)}); err != nil {
					t.Errorf("Set: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	for j := 0; j < 20; j++ {
		key := []byte(fmt.Sprintf("img-time:%016x", j))
		value, found, err := store.Get(ctx, key)
		if err != nil || !found || value[0] != byte(j) {
			t.Errorf("key %s: value=%v found=%v err=%v", key, value, found, err)
		}
	}
}

func TestRedisStoreCloseIdempotent(t *testing.T) {
	container, addr := setupRedisContainer(t)
	defer terminate(t, container)

	store, err := NewRedisStore(addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
