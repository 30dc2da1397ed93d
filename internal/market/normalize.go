package market

import (
	"strings"

	"github.com/coinwatch/coinwatch-backend/internal/coingecko"
	"github.com/shopspring/decimal"
)

// Normalize maps one raw provider record to an Asset. The second return
// value is false when the record lacks an id and must be dropped; a bad
// record never fails the batch. Missing optional fields stay nil, a
// missing sparkline becomes an empty slice.
func Normalize(rec coingecko.MarketRecord) (Asset, bool) {
	if rec.ID == "" {
		return Asset{}, false
	}

	asset := Asset{
		ID:                rec.ID,
		Rank:              rec.MarketCapRank,
		Name:              rec.Name,
		Symbol:            strings.ToUpper(rec.Symbol),
		Logo:              rec.Image,
		Price:             orZero(rec.CurrentPrice),
		PercentChange1h:   rec.PriceChangePct1h,
		PercentChange24h:  rec.PriceChangePct24h,
		PercentChange7d:   rec.PriceChangePct7d,
		MarketCap:         orZero(rec.MarketCap),
		Volume24h:         orZero(rec.TotalVolume),
		CirculatingSupply: orZero(rec.CirculatingSupply),
		MaxSupply:         rec.MaxSupply,
		SparklineData:     []float64{},
	}

	if rec.SparklineIn7d != nil && len(rec.SparklineIn7d.Price) > 0 {
		asset.SparklineData = rec.SparklineIn7d.Price
	}

	return asset, true
}

// NormalizeAll normalizes a batch, silently skipping records that
// Normalize rejects.
func NormalizeAll(records []coingecko.MarketRecord) []Asset {
	assets := make([]Asset, 0, len(records))
	for _, rec := range records {
		if asset, ok := Normalize(rec); ok {
			assets = append(assets, asset)
		}
	}
	return assets
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
