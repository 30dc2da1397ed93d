package api

import (
	"github.com/coinwatch/coinwatch-backend/internal/market"
	"github.com/coinwatch/coinwatch-backend/internal/tracker"
)

type AssetDTO struct {
	ID                string    `json:"id"`
	Rank              int       `json:"rank"`
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	Logo              string    `json:"logo"`
	Price             string    `json:"price"`
	PercentChange1h   *float64  `json:"percentChange1h"`
	PercentChange24h  *float64  `json:"percentChange24h"`
	PercentChange7d   *float64  `json:"percentChange7d"`
	MarketCap         string    `json:"marketCap"`
	Volume24h         string    `json:"volume24h"`
	CirculatingSupply string    `json:"circulatingSupply"`
	MaxSupply         *string   `json:"maxSupply"`
	SparklineData     []float64 `json:"sparklineData"`
	Favorite          bool      `json:"favorite"`
}

type FetchErrorDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type SnapshotDTO struct {
	Assets       []AssetDTO          `json:"assets"`
	Loading      bool                `json:"loading"`
	Error        *FetchErrorDTO      `json:"error"`
	LastUpdated  *int64              `json:"lastUpdated"`
	CurrentPage  int                 `json:"currentPage"`
	ItemsPerPage int                 `json:"itemsPerPage"`
	HasMore      bool                `json:"hasMore"`
	Sort         tracker.SortConfig  `json:"sort"`
	Filters      tracker.Filters     `json:"filters"`
	Version      uint64              `json:"version"`
}

// ViewDTO carries one page window of the derived view plus the total
// count of entries that survived filtering.
type ViewDTO struct {
	Assets  []AssetDTO `json:"assets"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"perPage"`
	SnapshotDTO
}

type FavoritesDTO struct {
	IDs []string `json:"ids"`
}

type ToggleFavoriteDTO struct {
	ID        string `json:"id"`
	Favorited bool   `json:"favorited"`
	Persisted bool   `json:"persisted"`
}

type SetPageRequest struct {
	Page int `json:"page"`
}

type SetPageSizeRequest struct {
	PerPage int `json:"perPage"`
}

type SetSortRequest struct {
	Key string `json:"key"`
}

type SetFiltersRequest struct {
	FavoritesOnly    bool     `json:"favoritesOnly"`
	PriceMin         *string  `json:"priceMin"`
	PriceMax         *string  `json:"priceMax"`
	PercentChangeMin *float64 `json:"percentChangeMin"`
	SearchTerm       string   `json:"searchTerm"`
}

type AcceptedDTO struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func assetToDTO(a market.Asset, favorite bool) AssetDTO {
	dto := AssetDTO{
		ID:                a.ID,
		Rank:              a.Rank,
		Name:              a.Name,
		Symbol:            a.Symbol,
		Logo:              a.Logo,
		Price:             a.Price.String(),
		PercentChange1h:   a.PercentChange1h,
		PercentChange24h:  a.PercentChange24h,
		PercentChange7d:   a.PercentChange7d,
		MarketCap:         a.MarketCap.String(),
		Volume24h:         a.Volume24h.String(),
		CirculatingSupply: a.CirculatingSupply.String(),
		SparklineData:     a.SparklineData,
		Favorite:          favorite,
	}
	if a.MaxSupply != nil {
		s := a.MaxSupply.String()
		dto.MaxSupply = &s
	}
	return dto
}

func assetsToDTOs(assets []market.Asset, st tracker.State) []AssetDTO {
	out := make([]AssetDTO, len(assets))
	for i, a := range assets {
		out[i] = assetToDTO(a, st.IsFavorite(a.ID))
	}
	return out
}

func snapshotToDTO(st tracker.State) SnapshotDTO {
	dto := SnapshotDTO{
		Assets:       assetsToDTOs(st.Assets, st),
		Loading:      st.Loading,
		CurrentPage:  st.CurrentPage,
		ItemsPerPage: st.ItemsPerPage,
		HasMore:      st.HasMore,
		Sort:         st.Sort,
		Filters:      st.Filters,
		Version:      st.Version,
	}
	if st.Err != nil {
		dto.Error = &FetchErrorDTO{Kind: string(st.Err.Kind), Message: st.Err.Message}
	}
	if st.LastUpdated != nil {
		ts := st.LastUpdated.Unix()
		dto.LastUpdated = &ts
	}
	return dto
}
