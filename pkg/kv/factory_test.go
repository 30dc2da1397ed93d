package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/coinwatch/coinwatch-backend/pkg/kv"
	_ "github.com/coinwatch/coinwatch-backend/pkg/kv/memory"
	_ "github.com/coinwatch/coinwatch-backend/pkg/kv/redis"
)

func TestFactoryMemoryBackend(t *testing.T) {
	store, err := kv.NewStoreFromConfig(kv.Config{Backend: kv.BackendMemory})
	if err != nil {
		t.Fatalf("NewStoreFromConfig failed: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestFactoryUnsupportedBackend(t *testing.T) {
	if _, err := kv.NewStoreFromConfig(kv.Config{Backend: "etcd"}); err == nil {
		t.Fatal("Expected error for unsupported backend")
	}
}

func TestFactoryRedisRequiresURL(t *testing.T) {
	if _, err := kv.NewStoreFromConfig(kv.Config{Backend: kv.BackendRedis}); err == nil {
		t.Fatal("Expected error when redis URL is missing")
	}
}

func TestFactoryFallsBackToMemory(t *testing.T) {
	var logged bool
	store, err := kv.NewStoreFromConfig(kv.Config{
		Backend:             kv.BackendRedis,
		RedisURL:            "redis://127.0.0.1:1/0", // nothing listens here
		StartupProbeTimeout: 200 * time.Millisecond,
		Logger:              func(msg string, fields ...any) { logged = true },
	})
	if err != nil {
		t.Fatalf("Expected fallback, got error: %v", err)
	}
	defer store.Close()

	if !logged {
		t.Error("Expected fallback to be logged")
	}

	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Errorf("Fallback store Set failed: %v", err)
	}
}
