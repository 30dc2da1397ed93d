package view

import (
	"testing"

	"github.com/coinwatch/coinwatch-backend/internal/market"
	"github.com/coinwatch/coinwatch-backend/internal/tracker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func dptr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func testAssets() []market.Asset {
	return []market.Asset{
		{
			ID: "bitcoin", Rank: 1, Name: "Bitcoin", Symbol: "BTC",
			Price:            decimal.RequireFromString("64000.12"),
			PercentChange24h: fptr(2.5),
			MarketCap:        decimal.RequireFromString("1200000000000"),
		},
		{
			ID: "ethereum", Rank: 2, Name: "Ethereum", Symbol: "ETH",
			Price:            decimal.RequireFromString("3100.40"),
			PercentChange24h: fptr(-1.2),
			MarketCap:        decimal.RequireFromString("370000000000"),
		},
		{
			ID: "tether", Rank: 3, Name: "Tether", Symbol: "USDT",
			Price:            decimal.RequireFromString("1.00"),
			PercentChange24h: nil,
			MarketCap:        decimal.RequireFromString("110000000000"),
		},
		{
			ID: "solana", Rank: 4, Name: "Solana", Symbol: "SOL",
			Price:            decimal.RequireFromString("145.77"),
			PercentChange24h: fptr(5.9),
			MarketCap:        decimal.RequireFromString("67000000000"),
		},
	}
}

func stateWith(assets []market.Asset, sort tracker.SortConfig, filters tracker.Filters, version uint64) tracker.State {
	return tracker.State{
		Assets:    assets,
		Sort:      sort,
		Filters:   filters,
		Favorites: map[string]struct{}{},
		Version:   version,
	}
}

func ids(assets []market.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.ID
	}
	return out
}

func TestDeriveSortNumericAscDesc(t *testing.T) {
	e := NewEngine()

	asc := e.Derive(stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByPrice, Direction: tracker.SortAsc},
		tracker.Filters{}, 1))
	assert.Equal(t, []string{"tether", "solana", "ethereum", "bitcoin"}, ids(asc))

	desc := e.Derive(stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByPrice, Direction: tracker.SortDesc},
		tracker.Filters{}, 2))
	assert.Equal(t, []string{"bitcoin", "ethereum", "solana", "tether"}, ids(desc))
}

func TestDeriveNullsSortLastBothDirections(t *testing.T) {
	e := NewEngine()
	cfg := tracker.SortConfig{Key: tracker.SortByChange24h, Direction: tracker.SortAsc}

	asc := e.Derive(stateWith(testAssets(), cfg, tracker.Filters{}, 1))
	assert.Equal(t, []string{"ethereum", "bitcoin", "solana", "tether"}, ids(asc))

	cfg.Direction = tracker.SortDesc
	desc := e.Derive(stateWith(testAssets(), cfg, tracker.Filters{}, 2))
	assert.Equal(t, []string{"solana", "bitcoin", "ethereum", "tether"}, ids(desc))
}

func TestDeriveSortByName(t *testing.T) {
	e := NewEngine()
	got := e.Derive(stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByName, Direction: tracker.SortAsc},
		tracker.Filters{}, 1))
	assert.Equal(t, []string{"bitcoin", "ethereum", "solana", "tether"}, ids(got))
}

func TestDeriveSearchTermMatchesNameOrSymbol(t *testing.T) {
	e := NewEngine()

	got := e.Derive(stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByRank, Direction: tracker.SortAsc},
		tracker.Filters{SearchTerm: "btc"}, 1))
	require.Len(t, got, 1)
	assert.Equal(t, "bitcoin", got[0].ID)

	got = e.Derive(stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByRank, Direction: tracker.SortAsc},
		tracker.Filters{SearchTerm: "bitcoin"}, 2))
	require.Len(t, got, 1)
	assert.Equal(t, "Bitcoin", got[0].Name)
}

func TestDeriveFilterConjunction(t *testing.T) {
	e := NewEngine()

	st := stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByRank, Direction: tracker.SortAsc},
		tracker.Filters{
			PriceMin:         dptr("100"),
			PercentChangeMin: fptr(0),
		}, 1)
	got := e.Derive(st)
	// Tether's missing 24h change counts as zero, but its price is below
	// the minimum; Ethereum's change is negative.
	assert.Equal(t, []string{"bitcoin", "solana"}, ids(got))
}

func TestDeriveFavoritesOnly(t *testing.T) {
	e := NewEngine()
	st := stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByRank, Direction: tracker.SortAsc},
		tracker.Filters{FavoritesOnly: true}, 1)
	st.Favorites = map[string]struct{}{"ethereum": {}, "solana": {}}

	got := e.Derive(st)
	assert.Equal(t, []string{"ethereum", "solana"}, ids(got))
}

func TestDerivePriceMaxFilter(t *testing.T) {
	e := NewEngine()
	got := e.Derive(stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByRank, Direction: tracker.SortAsc},
		tracker.Filters{PriceMax: dptr("200")}, 1))
	assert.Equal(t, []string{"tether", "solana"}, ids(got))
}

func TestDeriveMemoizesOnVersion(t *testing.T) {
	e := NewEngine()
	st := stateWith(testAssets(),
		tracker.SortConfig{Key: tracker.SortByRank, Direction: tracker.SortAsc},
		tracker.Filters{}, 7)

	first := e.Derive(st)
	again := e.Derive(st)
	assert.Same(t, &first[0], &again[0], "same version should return the cached slice")

	st.Version = 8
	st.Sort.Direction = tracker.SortDesc
	recomputed := e.Derive(st)
	assert.Equal(t, []string{"solana", "tether", "ethereum", "bitcoin"}, ids(recomputed))
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	assets := testAssets()
	st := stateWith(assets,
		tracker.SortConfig{Key: tracker.SortByPrice, Direction: tracker.SortDesc},
		tracker.Filters{}, 1)

	NewEngine().Derive(st)
	assert.Equal(t, []string{"bitcoin", "ethereum", "tether", "solana"}, ids(assets))
}

func TestPageWindows(t *testing.T) {
	assets := testAssets()

	assert.Equal(t, []string{"bitcoin", "ethereum", "tether"}, ids(Page(assets, 1, 3)))
	assert.Equal(t, []string{"solana"}, ids(Page(assets, 2, 3)))
	assert.Empty(t, Page(assets, 3, 3))
	assert.Empty(t, Page(assets, 0, 3))
	assert.Empty(t, Page(assets, 1, 0))
	assert.Equal(t, []string{"bitcoin", "ethereum", "tether", "solana"}, ids(Page(assets, 1, 10)))
}
