// Package tracker holds the canonical snapshot of tracked market data and
// the transitions that advance it. It is the single source of truth for
// both the fetched snapshot and the UI-selection state (sort, filters,
// pagination, favorites).
package tracker

import (
	"time"

	"github.com/coinwatch/coinwatch-backend/internal/market"
	"github.com/shopspring/decimal"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortKey names an Asset field the derived view can be ordered by.
type SortKey string

const (
	SortByRank        SortKey = "rank"
	SortByName        SortKey = "name"
	SortBySymbol      SortKey = "symbol"
	SortByPrice       SortKey = "price"
	SortByChange1h    SortKey = "percentChange1h"
	SortByChange24h   SortKey = "percentChange24h"
	SortByChange7d    SortKey = "percentChange7d"
	SortByMarketCap   SortKey = "marketCap"
	SortByVolume24h   SortKey = "volume24h"
	SortByCircSupply  SortKey = "circulatingSupply"
)

// ValidSortKey reports whether key names a sortable field.
func ValidSortKey(key SortKey) bool {
	switch key {
	case SortByRank, SortByName, SortBySymbol, SortByPrice,
		SortByChange1h, SortByChange24h, SortByChange7d,
		SortByMarketCap, SortByVolume24h, SortByCircSupply:
		return true
	}
	return false
}

type SortConfig struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// Filters is the conjunction of optional view predicates. A nil pointer
// or empty string means the predicate is skipped.
type Filters struct {
	FavoritesOnly    bool             `json:"favoritesOnly"`
	PriceMin         *decimal.Decimal `json:"priceMin"`
	PriceMax         *decimal.Decimal `json:"priceMax"`
	PercentChangeMin *float64         `json:"percentChangeMin"`
	SearchTerm       string           `json:"searchTerm"`
}

// IsZero reports whether no predicate is set.
func (f Filters) IsZero() bool {
	return !f.FavoritesOnly && f.PriceMin == nil && f.PriceMax == nil &&
		f.PercentChangeMin == nil && f.SearchTerm == ""
}

// ErrorKind classifies a fetch failure for display. Classification never
// alters control flow.
type ErrorKind string

const (
	ErrKindConnectivity ErrorKind = "connectivity"
	ErrKindRateLimited  ErrorKind = "rate_limited"
	ErrKindAuth         ErrorKind = "unauthorized"
	ErrKindUnknown      ErrorKind = "unknown"
)

// FetchError is the classified failure of the most recent fetch.
type FetchError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// State is the snapshot value readers observe. Each applied transition
// produces a new value; no transition is ever visible half-applied.
type State struct {
	Assets       []market.Asset
	Loading      bool
	Err          *FetchError
	LastUpdated  *time.Time
	CurrentPage  int
	ItemsPerPage int
	HasMore      bool
	Favorites    map[string]struct{}
	Sort         SortConfig
	Filters      Filters

	// Version increments on every applied transition. Derived-view
	// memoization keys off it.
	Version uint64
}

// IsFavorite reports membership in the favorites set.
func (s State) IsFavorite(id string) bool {
	_, ok := s.Favorites[id]
	return ok
}

// FavoriteIDs returns the favorites as a slice, in map order.
func (s State) FavoriteIDs() []string {
	ids := make([]string, 0, len(s.Favorites))
	for id := range s.Favorites {
		ids = append(ids, id)
	}
	return ids
}
