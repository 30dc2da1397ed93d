package coingecko

import "github.com/shopspring/decimal"

// MarketRecord is one raw entry from the /coins/markets endpoint.
// Optional numeric fields are pointers; the API returns null for assets
// that lack them (e.g. max_supply for uncapped coins).
type MarketRecord struct {
	ID                string           `json:"id"`
	Symbol            string           `json:"symbol"`
	Name              string           `json:"name"`
	Image             string           `json:"image"`
	MarketCapRank     int              `json:"market_cap_rank"`
	CurrentPrice      *decimal.Decimal `json:"current_price"`
	MarketCap         *decimal.Decimal `json:"market_cap"`
	TotalVolume       *decimal.Decimal `json:"total_volume"`
	CirculatingSupply *decimal.Decimal `json:"circulating_supply"`
	MaxSupply         *decimal.Decimal `json:"max_supply"`

	PriceChangePct1h  *float64 `json:"price_change_percentage_1h_in_currency"`
	PriceChangePct24h *float64 `json:"price_change_percentage_24h_in_currency"`
	PriceChangePct7d  *float64 `json:"price_change_percentage_7d_in_currency"`

	SparklineIn7d *Sparkline `json:"sparkline_in_7d"`
}

// Sparkline is the trailing 7-day price path supplied by the provider.
type Sparkline struct {
	Price []float64 `json:"price"`
}
