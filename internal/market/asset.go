// Package market holds the domain model for tracked assets.
package market

import "github.com/shopspring/decimal"

// Asset is one tracked instrument, replaced wholesale on each successful
// snapshot refresh. Pointer fields are nullable: the provider omits them
// for some assets and they sort after every non-null value.
type Asset struct {
	ID                string           `json:"id"`
	Rank              int              `json:"rank"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Logo              string           `json:"logo"`
	Price             decimal.Decimal  `json:"price"`
	PercentChange1h   *float64         `json:"percentChange1h"`
	PercentChange24h  *float64         `json:"percentChange24h"`
	PercentChange7d   *float64         `json:"percentChange7d"`
	MarketCap         decimal.Decimal  `json:"marketCap"`
	Volume24h         decimal.Decimal  `json:"volume24h"`
	CirculatingSupply decimal.Decimal  `json:"circulatingSupply"`
	MaxSupply         *decimal.Decimal `json:"maxSupply"`
	SparklineData     []float64        `json:"sparklineData"`
}
