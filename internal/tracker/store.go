package tracker

import (
	"sync"
	"time"

	"github.com/coinwatch/coinwatch-backend/internal/market"
)

// Store applies named transitions to the snapshot state atomically.
// Overlapping fetches are serialized by generation: every dispatched
// fetch gets a monotonically increasing generation number and only the
// latest dispatched generation may apply its result, so a slow earlier
// request can never overwrite a faster later one.
type Store struct {
	mu    sync.RWMutex
	state State

	// latestGen is the generation of the most recently dispatched fetch.
	latestGen uint64

	now func() time.Time
}

// Option configures a Store at construction.
type Option func(*Store)

// WithClock injects the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPagination sets the initial pagination state.
func WithPagination(page, perPage int) Option {
	return func(s *Store) {
		if page >= 1 {
			s.state.CurrentPage = page
		}
		if perPage >= 1 {
			s.state.ItemsPerPage = perPage
		}
	}
}

// NewStore creates a Store. The favorites set comes from durable storage
// at initialization and is mutated only by ToggleFavorite afterwards.
func NewStore(favorites map[string]struct{}, opts ...Option) *Store {
	if favorites == nil {
		favorites = map[string]struct{}{}
	}
	s := &Store{
		state: State{
			Assets:       []market.Asset{},
			CurrentPage:  1,
			ItemsPerPage: 5,
			HasMore:      true,
			Favorites:    favorites,
			Sort:         SortConfig{Key: SortByRank, Direction: SortAsc},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current snapshot. The assets slice and
// favorites map are cloned so callers can't mutate store internals.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneStateLocked()
}

// Pagination returns the current page and items-per-page. Scheduler ticks
// read this instead of capturing pagination at start time.
func (s *Store) Pagination() (page, perPage int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentPage, s.state.ItemsPerPage
}

// BeginFetch marks a fetch as in flight and returns its generation.
// Assets and the previous error stay visible while the refresh runs.
func (s *Store) BeginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latestGen++
	s.state.Loading = true
	s.state.Version++
	return s.latestGen
}

// FetchSucceeded replaces the snapshot with the given assets. The result
// is dropped (returns false) when a newer fetch was dispatched after gen.
// rawCount is the size of the provider batch before normalization dropped
// anything; hasMore keys off it, so a full provider page still reports
// more even when some records were rejected.
func (s *Store) FetchSucceeded(gen uint64, assets []market.Asset, rawCount, page, perPage int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.latestGen {
		return false
	}

	if assets == nil {
		assets = []market.Asset{}
	}
	now := s.now()

	s.state.Loading = false
	s.state.Assets = assets
	s.state.CurrentPage = page
	s.state.ItemsPerPage = perPage
	s.state.HasMore = rawCount == perPage
	s.state.LastUpdated = &now
	s.state.Err = nil
	s.state.Version++
	return true
}

// FetchFailed records a classified failure. The previous snapshot and its
// LastUpdated stamp stay untouched. Stale failures are dropped.
func (s *Store) FetchFailed(gen uint64, ferr *FetchError) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.latestGen {
		return false
	}

	s.state.Loading = false
	s.state.Err = ferr
	s.state.Version++
	return true
}

// ToggleFavorite flips membership of id and returns the resulting full
// set (a copy) plus whether the id is now favorited. Persisting the set
// is a follow-up command for the caller, not part of the transition.
func (s *Store) ToggleFavorite(id string) (map[string]struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]struct{}, len(s.state.Favorites)+1)
	for fav := range s.state.Favorites {
		next[fav] = struct{}{}
	}

	_, favorited := next[id]
	if favorited {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}

	s.state.Favorites = next
	s.state.Version++

	result := make(map[string]struct{}, len(next))
	for fav := range next {
		result[fav] = struct{}{}
	}
	return result, !favorited
}

// SetCurrentPage sets the page cursor. No bounds clamping happens here.
func (s *Store) SetCurrentPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentPage = page
	s.state.Version++
}

// SetItemsPerPage sets the page size and resets the cursor to page 1.
func (s *Store) SetItemsPerPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ItemsPerPage = n
	s.state.CurrentPage = 1
	s.state.Version++
}

// SetSort selects the sort key. Re-selecting the current key toggles the
// direction; a new key starts ascending.
func (s *Store) SetSort(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Sort.Key == key {
		if s.state.Sort.Direction == SortAsc {
			s.state.Sort.Direction = SortDesc
		} else {
			s.state.Sort.Direction = SortAsc
		}
	} else {
		s.state.Sort = SortConfig{Key: key, Direction: SortAsc}
	}
	s.state.Version++
}

// SetFilters replaces the filter predicates wholesale.
func (s *Store) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Filters = f
	s.state.Version++
}

// ResetFilters clears every predicate, including favorites-only.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Filters = Filters{}
	s.state.Version++
}

func (s *Store) cloneStateLocked() State {
	st := s.state

	assets := make([]market.Asset, len(s.state.Assets))
	copy(assets, s.state.Assets)
	st.Assets = assets

	favs := make(map[string]struct{}, len(s.state.Favorites))
	for id := range s.state.Favorites {
		favs[id] = struct{}{}
	}
	st.Favorites = favs

	if s.state.LastUpdated != nil {
		ts := *s.state.LastUpdated
		st.LastUpdated = &ts
	}
	if s.state.Err != nil {
		e := *s.state.Err
		st.Err = &e
	}
	return st
}
