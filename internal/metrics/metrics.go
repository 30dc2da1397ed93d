package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	HTTPRequests    metric.Int64Counter
	HTTPDuration    metric.Float64Histogram
	Fetches         metric.Int64Counter
	FetchFailures   metric.Int64Counter
	FetchDuration   metric.Float64Histogram
	StaleResults    metric.Int64Counter
	FavoriteToggles metric.Int64Counter
	StreamClients   metric.Int64UpDownCounter
}

func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"cw_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"cw_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.Fetches, err = meter.Int64Counter(
		"cw_provider_fetches_total",
		metric.WithDescription("Total number of market data fetches dispatched"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.FetchFailures, err = meter.Int64Counter(
		"cw_provider_fetch_failures_total",
		metric.WithDescription("Total number of failed market data fetches"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.FetchDuration, err = meter.Float64Histogram(
		"cw_provider_fetch_duration_seconds",
		metric.WithDescription("Market data fetch duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StaleResults, err = meter.Int64Counter(
		"cw_stale_fetch_results_total",
		metric.WithDescription("Fetch results dropped because a newer fetch was dispatched"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.FavoriteToggles, err = meter.Int64Counter(
		"cw_favorite_toggles_total",
		metric.WithDescription("Total number of favorite toggles"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StreamClients, err = meter.Int64UpDownCounter(
		"cw_stream_clients",
		metric.WithDescription("Number of connected SSE/WebSocket clients"),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := promhttp.Handler()
	return m, handler, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	m.HTTPRequests.Add(ctx, 1, attrs)
	m.HTTPDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) RecordFetch(ctx context.Context, page, perPage int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("per_page", perPage),
	)
	m.Fetches.Add(ctx, 1, attrs)
	m.FetchDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.FetchFailures.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordStaleResult(ctx context.Context) {
	if m == nil {
		return
	}
	m.StaleResults.Add(ctx, 1)
}

func (m *Metrics) RecordFavoriteToggle(ctx context.Context, favorited bool) {
	if m == nil {
		return
	}
	m.FavoriteToggles.Add(ctx, 1, metric.WithAttributes(attribute.Bool("favorited", favorited)))
}

func (m *Metrics) StreamClientConnected(ctx context.Context) {
	if m == nil {
		return
	}
	m.StreamClients.Add(ctx, 1)
}

func (m *Metrics) StreamClientDisconnected(ctx context.Context) {
	if m == nil {
		return
	}
	m.StreamClients.Add(ctx, -1)
}
