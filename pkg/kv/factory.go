package kv

import (
	"context"
	"fmt"
	"time"
)

// Backend represents the storage backend type
type Backend string

const (
	// BackendMemory uses the in-memory store
	BackendMemory Backend = "memory"
	// BackendRedis uses Redis as the backend
	BackendRedis Backend = "redis"
)

// LogFunc is a function type for structured logging
type LogFunc func(msg string, fields ...any)

// Config holds configuration for creating a Store instance
type Config struct {
	// Backend specifies which storage backend to use
	Backend Backend

	// RedisURL is the connection string for Redis (required when Backend is "redis")
	// Format: redis://localhost:6379/0 or redis://:password@localhost:6379/1
	RedisURL string

	// JanitorInterval controls how often the in-memory store cleans up expired keys.
	// Default: 30 seconds
	JanitorInterval time.Duration

	// StartupProbeTimeout controls how long to wait for Redis at startup
	// Default: 1 second
	StartupProbeTimeout time.Duration

	// Logger is used for logging fallback events. If nil, no logging occurs.
	Logger LogFunc
}

// StoreFactory defines a function that creates a Store instance
type StoreFactory func(cfg Config) (Store, error)

// factories holds registered store factories
var factories = make(map[Backend]StoreFactory)

// RegisterBackend registers a store factory for a given backend
func RegisterBackend(backend Backend, factory StoreFactory) {
	factories[backend] = factory
}

// NewStoreFromConfig creates a new Store instance based on the provided configuration.
// When the Redis backend is requested but unreachable at startup, the in-memory
// store is returned instead so the service can run without durable storage.
func NewStoreFromConfig(cfg Config) (Store, error) {
	if cfg.JanitorInterval == 0 {
		cfg.JanitorInterval = 30 * time.Second
	}
	if cfg.StartupProbeTimeout == 0 {
		cfg.StartupProbeTimeout = 1 * time.Second
	}

	memoryFactory, ok := factories[BackendMemory]
	if !ok {
		return nil, fmt.Errorf("memory backend not registered")
	}

	switch cfg.Backend {
	case BackendMemory:
		return memoryFactory(cfg)

	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis URL is required when backend is 'redis'")
		}
		redisFactory, ok := factories[BackendRedis]
		if !ok {
			return nil, fmt.Errorf("redis backend not registered")
		}

		redisStore, err := redisFactory(cfg)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger("Redis unavailable at startup; using in-memory store", "error", err.Error())
			}
			return memoryFactory(cfg)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.StartupProbeTimeout)
		defer cancel()

		if err := redisStore.Ping(ctx); err != nil {
			redisStore.Close()
			if cfg.Logger != nil {
				cfg.Logger("Redis health check failed at startup; using in-memory store", "error", err.Error())
			}
			return memoryFactory(cfg)
		}

		return redisStore, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: %s, %s)",
			cfg.Backend, BackendMemory, BackendRedis)
	}
}
