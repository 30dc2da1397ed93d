// Package kvtest provides conformance tests for kv.Store implementations
package kvtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coinwatch/coinwatch-backend/pkg/kv"
)

// StoreFactory creates a fresh Store instance for testing
type StoreFactory func(t *testing.T) kv.Store

// RunConformanceTests runs all conformance tests against a Store implementation
func RunConformanceTests(t *testing.T, factory StoreFactory) {
	tests := []struct {
		name string
		test func(t *testing.T, store kv.Store)
	}{
		{"SetGet", testSetGet},
		{"GetNonExistent", testGetNonExistent},
		{"SetGetString", testSetGetString},
		{"Overwrite", testOverwrite},
		{"DelExists", testDelExists},
		{"TTLExpiry", testTTLExpiry},
		{"ExpireMissingKey", testExpireMissingKey},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			tt.test(t, store)
		})
	}
}

func testSetGet(t *testing.T, store kv.Store) {
	ctx := context.Background()
	key := "test:string"
	value := []byte(`["bitcoin","ethereum"]`)

	if err := store.Set(ctx, key, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(result) != string(value) {
		t.Errorf("Expected %q, got %q", value, result)
	}
}

func testGetNonExistent(t *testing.T, store kv.Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "test:missing")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func testSetGetString(t *testing.T, store kv.Store) {
	ctx := context.Background()
	key := "test:str"

	if err := store.SetString(ctx, key, "hello"); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	result, err := store.GetString(ctx, key)
	if err != nil {
		t.Fatalf("GetString failed: %v", err)
	}
	if result != "hello" {
		t.Errorf("Expected %q, got %q", "hello", result)
	}
}

func testOverwrite(t *testing.T, store kv.Store) {
	ctx := context.Background()
	key := "test:overwrite"

	if err := store.Set(ctx, key, []byte("first")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, key, []byte("second")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(result) != "second" {
		t.Errorf("Expected overwritten value, got %q", result)
	}
}

func testDelExists(t *testing.T, store kv.Store) {
	ctx := context.Background()
	key := "test:del"

	if err := store.Set(ctx, key, []byte("value")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	count, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected key to exist, count=%d", count)
	}

	deleted, err := store.Del(ctx, key)
	if err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted key, got %d", deleted)
	}

	count, err = store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected key to be gone, count=%d", count)
	}
}

func testTTLExpiry(t *testing.T, store kv.Store) {
	ctx := context.Background()
	key := "test:ttl"

	if err := store.Set(ctx, key, []byte("value"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set with TTL failed: %v", err)
	}

	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	_, err := store.Get(ctx, key)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after expiry, got %v", err)
	}
}

func testExpireMissingKey(t *testing.T, store kv.Store) {
	ctx := context.Background()

	ok, err := store.Expire(ctx, "test:expire-missing", time.Minute)
	if err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if ok {
		t.Error("Expected Expire on a missing key to report false")
	}
}

func testPing(t *testing.T, store kv.Store) {
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
