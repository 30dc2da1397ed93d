package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// APIError is a non-2xx response from the CoinGecko API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko API error: %d", e.StatusCode)
}

// Client fetches pages of ranked market data from CoinGecko.
type Client struct {
	baseURL    string
	vsCurrency string
	client     *http.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a new CoinGecko client. An empty baseURL or vsCurrency
// falls back to the public API and USD.
func NewClient(baseURL, vsCurrency string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		vsCurrency: vsCurrency,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchMarkets retrieves one page of assets ordered by market cap descending,
// with the 7-day sparkline and the 1h/24h/7d percent-change fields included.
func (c *Client) FetchMarkets(ctx context.Context, page, perPage int) ([]MarketRecord, error) {
	params := url.Values{}
	params.Set("vs_currency", c.vsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "true")
	params.Set("price_change_percentage", "1h,24h,7d")

	requestURL := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from CoinGecko: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var records []MarketRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debugw("Fetched markets from CoinGecko",
		"page", page, "perPage", perPage, "records", len(records))

	return records, nil
}
