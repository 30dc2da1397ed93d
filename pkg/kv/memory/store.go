package memory

import (
	"context"
	"sync"
	"time"

	"github.com/coinwatch/coinwatch-backend/pkg/kv"
)

// Store is an in-memory implementation of the kv.Store interface
type Store struct {
	mu          sync.RWMutex
	values      map[string][]byte
	expirations map[string]time.Time

	janitorInterval time.Duration
	janitorStop     chan struct{}
	janitorDone     chan struct{}
}

// New creates a new in-memory store with optional janitor for TTL cleanup
func New(janitorInterval time.Duration) *Store {
	s := &Store{
		values:          make(map[string][]byte),
		expirations:     make(map[string]time.Time),
		janitorInterval: janitorInterval,
		janitorStop:     make(chan struct{}),
		janitorDone:     make(chan struct{}),
	}

	if janitorInterval > 0 {
		go s.janitor()
	} else {
		close(s.janitorDone)
	}

	return s
}

// janitor runs background expiration cleanup
func (s *Store) janitor() {
	defer close(s.janitorDone)
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.janitorStop:
			return
		}
	}
}

// evictExpired removes all expired keys
func (s *Store) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, expiry := range s.expirations {
		if now.After(expiry) {
			delete(s.values, key)
			delete(s.expirations, key)
		}
	}
}

// isExpired checks if a key has expired (must hold lock)
func (s *Store) isExpired(key string) bool {
	if expiry, exists := s.expirations[key]; exists {
		return time.Now().After(expiry)
	}
	return false
}

// setExpiration sets TTL for a key (must hold write lock)
func (s *Store) setExpiration(key string, ttl time.Duration) {
	if ttl > 0 {
		s.expirations[key] = time.Now().Add(ttl)
	} else {
		delete(s.expirations, key)
	}
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl ...time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	delete(s.expirations, key)

	if len(ttl) > 0 && ttl[0] > 0 {
		s.setExpiration(key, ttl[0])
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isExpired(key) {
		delete(s.values, key)
		delete(s.expirations, key)
		return nil, kv.ErrNotFound
	}

	value, exists := s.values[key]
	if !exists {
		return nil, kv.ErrNotFound
	}

	return value, nil
}

func (s *Store) SetString(ctx context.Context, key string, value string, ttl ...time.Duration) error {
	return s.Set(ctx, key, []byte(value), ttl...)
}

func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		if _, exists := s.values[key]; exists && !s.isExpired(key) {
			deleted++
		}
		delete(s.values, key)
		delete(s.expirations, key)
	}

	return deleted, nil
}

func (s *Store) Exists(ctx context.Context, keys ...string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int64
	for _, key := range keys {
		if s.isExpired(key) {
			continue
		}
		if _, found := s.values[key]; found {
			exists++
		}
	}

	return exists, nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isExpired(key) {
		delete(s.values, key)
		delete(s.expirations, key)
		return false, nil
	}

	if _, exists := s.values[key]; !exists {
		return false, nil
	}

	s.setExpiration(key, ttl)
	return true, nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, hasExpiry := s.expirations[key]
	if !hasExpiry {
		if _, exists := s.values[key]; !exists {
			return 0, kv.ErrNotFound
		}
		return -1, nil // Key exists but has no expiration
	}

	remaining := time.Until(expiry)
	if remaining <= 0 {
		return 0, nil // Key has expired
	}

	return remaining, nil
}

// Ping always returns nil for the in-memory store (always available)
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close stops the background janitor and cleans up resources
func (s *Store) Close() error {
	if s.janitorInterval > 0 {
		close(s.janitorStop)
		<-s.janitorDone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string][]byte)
	s.expirations = make(map[string]time.Time)

	return nil
}
