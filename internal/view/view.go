// Package view derives the sorted, filtered asset list consumed by the
// presentation layer. The pipeline is a pure function of the snapshot and
// the UI-selection state; the Engine memoizes it on the state version.
package view

import (
	"sort"
	"strings"
	"sync"

	"github.com/coinwatch/coinwatch-backend/internal/market"
	"github.com/coinwatch/coinwatch-backend/internal/tracker"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Engine computes derived views and caches the last result. Safe for
// concurrent use.
type Engine struct {
	mu          sync.Mutex
	collator    *collate.Collator
	lastVersion uint64
	lastResult  []market.Asset
	valid       bool
}

func NewEngine() *Engine {
	return &Engine{
		collator: collate.New(language.English, collate.Loose),
	}
}

// Derive returns the sorted and filtered list for the given state. The
// result is recomputed only when the state version changed since the
// last call; callers must not mutate the returned slice.
func (e *Engine) Derive(st tracker.State) []market.Asset {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && st.Version == e.lastVersion {
		return e.lastResult
	}

	result := e.compute(st)
	e.lastVersion = st.Version
	e.lastResult = result
	e.valid = true
	return result
}

// Page slices one page window out of a derived list. Windowing applies to
// the currently loaded batch, so a filtered view can legitimately hold
// fewer entries than a full page.
func Page(assets []market.Asset, page, perPage int) []market.Asset {
	if page < 1 || perPage < 1 {
		return []market.Asset{}
	}
	start := (page - 1) * perPage
	if start >= len(assets) {
		return []market.Asset{}
	}
	end := start + perPage
	if end > len(assets) {
		end = len(assets)
	}
	return assets[start:end]
}

func (e *Engine) compute(st tracker.State) []market.Asset {
	sorted := make([]market.Asset, len(st.Assets))
	copy(sorted, st.Assets)
	e.sortAssets(sorted, st.Sort)
	return filterAssets(sorted, st.Filters, st.Favorites)
}

// sortAssets stable-sorts by the configured key. Entries whose value for
// the key is null sort after all non-null entries regardless of the
// direction; direction only flips the ordering among non-null values.
func (e *Engine) sortAssets(assets []market.Asset, cfg tracker.SortConfig) {
	if cfg.Key == "" {
		return
	}
	desc := cfg.Direction == tracker.SortDesc

	sort.SliceStable(assets, func(i, j int) bool {
		cmp, iNull, jNull := e.compareByKey(assets[i], assets[j], cfg.Key)
		if iNull || jNull {
			return !iNull && jNull
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareByKey compares two assets on the given key. The null flags mark
// sides whose value is absent; cmp is meaningful only when both are set.
func (e *Engine) compareByKey(a, b market.Asset, key tracker.SortKey) (cmp int, aNull, bNull bool) {
	switch key {
	case tracker.SortByRank:
		return intCompare(a.Rank, b.Rank), false, false
	case tracker.SortByName:
		return e.collator.CompareString(a.Name, b.Name), false, false
	case tracker.SortBySymbol:
		return e.collator.CompareString(a.Symbol, b.Symbol), false, false
	case tracker.SortByPrice:
		return a.Price.Cmp(b.Price), false, false
	case tracker.SortByMarketCap:
		return a.MarketCap.Cmp(b.MarketCap), false, false
	case tracker.SortByVolume24h:
		return a.Volume24h.Cmp(b.Volume24h), false, false
	case tracker.SortByCircSupply:
		return a.CirculatingSupply.Cmp(b.CirculatingSupply), false, false
	case tracker.SortByChange1h:
		return floatCompare(a.PercentChange1h, b.PercentChange1h)
	case tracker.SortByChange24h:
		return floatCompare(a.PercentChange24h, b.PercentChange24h)
	case tracker.SortByChange7d:
		return floatCompare(a.PercentChange7d, b.PercentChange7d)
	}
	return 0, false, false
}

func intCompare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func floatCompare(a, b *float64) (cmp int, aNull, bNull bool) {
	if a == nil || b == nil {
		return 0, a == nil, b == nil
	}
	switch {
	case *a < *b:
		return -1, false, false
	case *a > *b:
		return 1, false, false
	}
	return 0, false, false
}

// filterAssets applies the conjunction of the configured predicates.
// Unset predicates are skipped.
func filterAssets(assets []market.Asset, f tracker.Filters, favorites map[string]struct{}) []market.Asset {
	if f.IsZero() {
		return assets
	}

	term := strings.ToLower(f.SearchTerm)
	out := make([]market.Asset, 0, len(assets))
	for _, asset := range assets {
		if f.FavoritesOnly {
			if _, ok := favorites[asset.ID]; !ok {
				continue
			}
		}
		if f.PriceMin != nil && asset.Price.LessThan(*f.PriceMin) {
			continue
		}
		if f.PriceMax != nil && asset.Price.GreaterThan(*f.PriceMax) {
			continue
		}
		if f.PercentChangeMin != nil && change24h(asset) < *f.PercentChangeMin {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(asset.Name), term) &&
			!strings.Contains(strings.ToLower(asset.Symbol), term) {
			continue
		}
		out = append(out, asset)
	}
	return out
}

// change24h treats an absent 24h change as zero for filtering purposes.
func change24h(a market.Asset) float64 {
	if a.PercentChange24h == nil {
		return 0
	}
	return *a.PercentChange24h
}
