package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/coinwatch/coinwatch-backend/internal/coingecko"
	"github.com/coinwatch/coinwatch-backend/internal/market"
	"github.com/coinwatch/coinwatch-backend/internal/metrics"
	"go.uber.org/zap"
)

// Provider supplies one page of raw market records.
type Provider interface {
	FetchMarkets(ctx context.Context, page, perPage int) ([]coingecko.MarketRecord, error)
}

// FavoritesStore is the durable persistence behind the favorites set.
type FavoritesStore interface {
	Load(ctx context.Context) map[string]struct{}
	Save(ctx context.Context, ids map[string]struct{}) error
}

// Service orchestrates fetch, normalize and transition, and issues the
// persistence command after a favorite toggle. It exposes the full
// command surface consumed by HTTP handlers and the refresh job.
type Service struct {
	store     *Store
	provider  Provider
	favorites FavoritesStore
	logger    *zap.SugaredLogger
	metrics   *metrics.Metrics

	// notify is invoked after every transition that changes what
	// consumers see; the stream hub hangs off it. May be nil.
	notify func()
}

func NewService(store *Store, provider Provider, favorites FavoritesStore, logger *zap.SugaredLogger, m *metrics.Metrics) *Service {
	return &Service{
		store:     store,
		provider:  provider,
		favorites: favorites,
		logger:    logger,
		metrics:   m,
	}
}

// OnChange registers a callback fired after applied transitions.
func (s *Service) OnChange(fn func()) {
	s.notify = fn
}

// State returns a copy of the current snapshot.
func (s *Service) State() State {
	return s.store.State()
}

// Pagination returns the current pagination state.
func (s *Service) Pagination() (page, perPage int) {
	return s.store.Pagination()
}

// Refresh performs one fetch-normalize-apply cycle. Failures are captured
// into state and never propagate; the returned error mirrors what was
// stored so programmatic callers can inspect it.
func (s *Service) Refresh(ctx context.Context, page, perPage int) error {
	gen := s.store.BeginFetch()
	start := time.Now()

	records, err := s.provider.FetchMarkets(ctx, page, perPage)
	s.metrics.RecordFetch(ctx, page, perPage, time.Since(start), err)

	if err != nil {
		ferr := Classify(err)
		if applied := s.store.FetchFailed(gen, ferr); !applied {
			s.metrics.RecordStaleResult(ctx)
			s.logger.Debugw("Dropped stale fetch failure", "generation", gen)
			return nil
		}
		s.logger.Warnw("Market data fetch failed",
			"page", page, "perPage", perPage, "kind", ferr.Kind, "error", err)
		s.changed()
		return fmt.Errorf("fetch markets: %w", err)
	}

	assets := market.NormalizeAll(records)
	if applied := s.store.FetchSucceeded(gen, assets, len(records), page, perPage); !applied {
		s.metrics.RecordStaleResult(ctx)
		s.logger.Debugw("Dropped stale fetch result", "generation", gen, "assets", len(assets))
		return nil
	}

	s.logger.Debugw("Snapshot refreshed",
		"page", page, "perPage", perPage, "assets", len(assets), "dropped", len(records)-len(assets))
	s.changed()
	return nil
}

// ToggleFavorite flips membership of id and synchronously persists the
// resulting full set. The in-memory transition holds even when
// persistence fails; the error is surfaced to the caller.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	set, favorited := s.store.ToggleFavorite(id)
	s.metrics.RecordFavoriteToggle(ctx, favorited)
	s.changed()

	if err := s.favorites.Save(ctx, set); err != nil {
		s.logger.Errorw("Failed to persist favorites", "id", id, "error", err)
		return favorited, err
	}
	return favorited, nil
}

func (s *Service) SetCurrentPage(page int) {
	s.store.SetCurrentPage(page)
	s.changed()
}

func (s *Service) SetItemsPerPage(n int) {
	s.store.SetItemsPerPage(n)
	s.changed()
}

func (s *Service) SetSort(key SortKey) {
	s.store.SetSort(key)
	s.changed()
}

func (s *Service) SetFilters(f Filters) {
	s.store.SetFilters(f)
	s.changed()
}

func (s *Service) ResetFilters() {
	s.store.ResetFilters()
	s.changed()
}

func (s *Service) changed() {
	if s.notify != nil {
		s.notify()
	}
}
