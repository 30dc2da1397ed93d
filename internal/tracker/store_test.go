package tracker

import (
	"testing"
	"time"

	"github.com/coinwatch/coinwatch-backend/internal/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets(ids ...string) []market.Asset {
	assets := make([]market.Asset, 0, len(ids))
	for i, id := range ids {
		assets = append(assets, market.Asset{
			ID:     id,
			Rank:   i + 1,
			Name:   id,
			Symbol: id,
			Price:  decimal.NewFromInt(int64(100 * (i + 1))),
		})
	}
	return assets
}

func TestInitialState(t *testing.T) {
	store := NewStore(map[string]struct{}{"bitcoin": {}, "ethereum": {}})
	st := store.State()

	assert.Empty(t, st.Assets)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	assert.Nil(t, st.LastUpdated)
	assert.Equal(t, 1, st.CurrentPage)
	assert.Equal(t, 5, st.ItemsPerPage)
	assert.Equal(t, SortConfig{Key: SortByRank, Direction: SortAsc}, st.Sort)

	// Favorites from durable storage are present before any fetch completes.
	assert.True(t, st.IsFavorite("bitcoin"))
	assert.True(t, st.IsFavorite("ethereum"))
}

func TestBeginFetchKeepsStaleDataVisible(t *testing.T) {
	store := NewStore(nil)
	gen := store.BeginFetch()
	require.True(t, store.FetchSucceeded(gen, testAssets("bitcoin"), 1, 1, 5))

	store.BeginFetch()
	st := store.State()
	assert.True(t, st.Loading)
	assert.Len(t, st.Assets, 1, "stale assets stay visible during refresh")
	assert.Nil(t, st.Err)
}

func TestFetchSucceededReplacesSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(nil, WithClock(func() time.Time { return now }))

	gen := store.BeginFetch()
	require.True(t, store.FetchSucceeded(gen, testAssets("a", "b", "c", "d", "e"), 5, 1, 5))

	st := store.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	assert.Len(t, st.Assets, 5)
	assert.True(t, st.HasMore, "full page implies more data")
	require.NotNil(t, st.LastUpdated)
	assert.Equal(t, now, *st.LastUpdated)
}

func TestFetchSucceededShortPageClearsHasMore(t *testing.T) {
	store := NewStore(nil)
	gen := store.BeginFetch()
	require.True(t, store.FetchSucceeded(gen, testAssets("a", "b"), 2, 1, 5))

	st := store.State()
	assert.Len(t, st.Assets, 2)
	assert.False(t, st.HasMore)
}

func TestFetchSucceededHasMoreUsesRawCount(t *testing.T) {
	store := NewStore(nil)
	gen := store.BeginFetch()

	// A full provider page where normalization rejected one record: the
	// snapshot holds 4 assets but more pages still exist upstream.
	require.True(t, store.FetchSucceeded(gen, testAssets("a", "b", "c", "d"), 5, 1, 5))

	st := store.State()
	assert.Len(t, st.Assets, 4)
	assert.True(t, st.HasMore, "raw batch was a full page; hasMore must be true")
}

func TestFetchFailedKeepsPriorSnapshot(t *testing.T) {
	store := NewStore(nil)
	gen := store.BeginFetch()
	require.True(t, store.FetchSucceeded(gen, testAssets("bitcoin"), 1, 1, 5))
	before := store.State()

	gen = store.BeginFetch()
	require.True(t, store.FetchFailed(gen, &FetchError{Kind: ErrKindConnectivity, Message: "connection refused"}))

	st := store.State()
	assert.False(t, st.Loading)
	require.NotNil(t, st.Err)
	assert.Equal(t, ErrKindConnectivity, st.Err.Kind)
	assert.Equal(t, before.Assets, st.Assets)
	assert.Equal(t, before.LastUpdated, st.LastUpdated)
}

func TestStaleGenerationIsDropped(t *testing.T) {
	store := NewStore(nil)

	slow := store.BeginFetch()
	fast := store.BeginFetch()

	require.True(t, store.FetchSucceeded(fast, testAssets("fresh"), 1, 2, 5))
	assert.False(t, store.FetchSucceeded(slow, testAssets("stale"), 1, 1, 5),
		"earlier generation must not overwrite a later one")

	st := store.State()
	require.Len(t, st.Assets, 1)
	assert.Equal(t, "fresh", st.Assets[0].ID)
	assert.Equal(t, 2, st.CurrentPage)
}

func TestStaleFailureIsDropped(t *testing.T) {
	store := NewStore(nil)

	slow := store.BeginFetch()
	fast := store.BeginFetch()
	require.True(t, store.FetchSucceeded(fast, testAssets("fresh"), 1, 1, 5))

	assert.False(t, store.FetchFailed(slow, &FetchError{Kind: ErrKindUnknown, Message: "late"}))
	assert.Nil(t, store.State().Err)
}

func TestToggleFavoriteFlipsMembership(t *testing.T) {
	store := NewStore(nil)

	set, favorited := store.ToggleFavorite("bitcoin")
	assert.True(t, favorited)
	assert.Contains(t, set, "bitcoin")

	set, favorited = store.ToggleFavorite("bitcoin")
	assert.False(t, favorited)
	assert.NotContains(t, set, "bitcoin")
	assert.Empty(t, store.State().Favorites)
}

func TestFavoritesIndependentOfSnapshot(t *testing.T) {
	store := NewStore(nil)
	store.ToggleFavorite("dogecoin") // not in any loaded snapshot

	gen := store.BeginFetch()
	require.True(t, store.FetchSucceeded(gen, testAssets("bitcoin"), 1, 1, 5))

	assert.True(t, store.State().IsFavorite("dogecoin"))
}

func TestSetItemsPerPageResetsCurrentPage(t *testing.T) {
	store := NewStore(nil)
	store.SetCurrentPage(7)
	require.Equal(t, 7, store.State().CurrentPage)

	store.SetItemsPerPage(25)
	st := store.State()
	assert.Equal(t, 25, st.ItemsPerPage)
	assert.Equal(t, 1, st.CurrentPage)
}

func TestSetSortTogglesDirection(t *testing.T) {
	store := NewStore(nil)

	store.SetSort(SortByPrice)
	assert.Equal(t, SortConfig{Key: SortByPrice, Direction: SortAsc}, store.State().Sort)

	store.SetSort(SortByPrice)
	assert.Equal(t, SortConfig{Key: SortByPrice, Direction: SortDesc}, store.State().Sort)

	// Changing key resets to ascending.
	store.SetSort(SortByName)
	assert.Equal(t, SortConfig{Key: SortByName, Direction: SortAsc}, store.State().Sort)
}

func TestResetFiltersClearsEverything(t *testing.T) {
	store := NewStore(nil)
	min := decimal.NewFromInt(10)
	store.SetFilters(Filters{FavoritesOnly: true, PriceMin: &min, SearchTerm: "btc"})
	require.False(t, store.State().Filters.IsZero())

	store.ResetFilters()
	assert.True(t, store.State().Filters.IsZero())
}

func TestVersionAdvancesOnEveryTransition(t *testing.T) {
	store := NewStore(nil)
	v0 := store.State().Version

	store.SetCurrentPage(2)
	v1 := store.State().Version
	assert.Greater(t, v1, v0)

	store.SetFilters(Filters{SearchTerm: "eth"})
	assert.Greater(t, store.State().Version, v1)
}

func TestStateReturnsCopies(t *testing.T) {
	store := NewStore(nil)
	gen := store.BeginFetch()
	require.True(t, store.FetchSucceeded(gen, testAssets("bitcoin"), 1, 1, 5))

	st := store.State()
	st.Assets[0].ID = "mutated"
	st.Favorites["sneaky"] = struct{}{}

	fresh := store.State()
	assert.Equal(t, "bitcoin", fresh.Assets[0].ID)
	assert.False(t, fresh.IsFavorite("sneaky"))
}
