package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const marketsFixture = `[
  {
    "id": "bitcoin",
    "symbol": "btc",
    "name": "Bitcoin",
    "image": "https://assets.coingecko.com/coins/images/1/large/bitcoin.png",
    "current_price": 64250.12,
    "market_cap": 1265000000000,
    "market_cap_rank": 1,
    "total_volume": 31000000000,
    "circulating_supply": 19700000,
    "max_supply": 21000000,
    "price_change_percentage_1h_in_currency": 0.12,
    "price_change_percentage_24h_in_currency": -1.4,
    "price_change_percentage_7d_in_currency": 3.8,
    "sparkline_in_7d": {"price": [63000.1, 63550.7, 64250.12]}
  },
  {
    "id": "ethereum",
    "symbol": "eth",
    "name": "Ethereum",
    "image": "https://assets.coingecko.com/coins/images/279/large/ethereum.png",
    "current_price": 3150.4,
    "market_cap": 378000000000,
    "market_cap_rank": 2,
    "total_volume": 15000000000,
    "circulating_supply": 120000000,
    "max_supply": null,
    "price_change_percentage_1h_in_currency": null,
    "price_change_percentage_24h_in_currency": 0.9,
    "price_change_percentage_7d_in_currency": null
  }
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := zap.NewNop().Sugar()
	return NewClient(server.URL, "usd", 2*time.Second, logger)
}

func TestFetchMarketsQueryShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "3", q.Get("page"))
		assert.Equal(t, "25", q.Get("per_page"))
		assert.Equal(t, "true", q.Get("sparkline"))
		assert.Equal(t, "1h,24h,7d", q.Get("price_change_percentage"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	})

	records, err := client.FetchMarkets(context.Background(), 3, 25)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchMarketsDecodesRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsFixture))
	})

	records, err := client.FetchMarkets(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	btc := records[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, 1, btc.MarketCapRank)
	assert.Equal(t, "64250.12", btc.CurrentPrice.String())
	require.NotNil(t, btc.MaxSupply)
	assert.Equal(t, "21000000", btc.MaxSupply.String())
	require.NotNil(t, btc.PriceChangePct24h)
	assert.InDelta(t, -1.4, *btc.PriceChangePct24h, 1e-9)
	require.NotNil(t, btc.SparklineIn7d)
	assert.Len(t, btc.SparklineIn7d.Price, 3)

	eth := records[1]
	assert.Nil(t, eth.MaxSupply)
	assert.Nil(t, eth.PriceChangePct1h)
	assert.Nil(t, eth.PriceChangePct7d)
	assert.Nil(t, eth.SparklineIn7d)
}

func TestFetchMarketsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	})

	_, err := client.FetchMarkets(context.Background(), 1, 5)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestFetchMarketsConnectionRefused(t *testing.T) {
	logger := zap.NewNop().Sugar()
	client := NewClient("http://127.0.0.1:1", "usd", 500*time.Millisecond, logger)

	_, err := client.FetchMarkets(context.Background(), 1, 5)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
