// Package favorites persists the user's favorite asset ids.
//
// The whole set lives under a single key as a JSON-encoded array, so a
// reader always sees either the previous complete set or the new one.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/coinwatch/coinwatch-backend/pkg/kv"
	"go.uber.org/zap"
)

// Key is the single storage key holding the favorites array.
const Key = "cw:favorites"

type Store struct {
	kv     kv.Store
	logger *zap.SugaredLogger
}

func NewStore(store kv.Store, logger *zap.SugaredLogger) *Store {
	return &Store{kv: store, logger: logger}
}

// Load reads the persisted favorites set. A missing key, an unreachable
// backend, or a corrupt value all yield an empty set; favorites are a
// convenience and must never block startup.
func (s *Store) Load(ctx context.Context) map[string]struct{} {
	data, err := s.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) && s.logger != nil {
			s.logger.Warnw("Failed to load favorites", "error", err)
		}
		return map[string]struct{}{}
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		if s.logger != nil {
			s.logger.Warnw("Corrupt favorites value; starting empty", "error", err)
		}
		return map[string]struct{}{}
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Save overwrites the persisted value with the full current set. Ids are
// written sorted so the stored value is deterministic.
func (s *Store) Save(ctx context.Context, ids map[string]struct{}) error {
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Strings(list)

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}

	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("persist favorites: %w", err)
	}
	return nil
}
