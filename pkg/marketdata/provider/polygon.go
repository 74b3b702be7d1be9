package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

// PolygonAggsIterator abstracts the polygon aggregates iterator so tests can
// substitute a canned sequence.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient abstracts the polygon REST client.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) PolygonAggsIterator
}

// polygonAPIAdapter wraps the real polygon client to satisfy PolygonAPIClient.
type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, opts...)
}

// PolygonClient is the alternate provider backed by Polygon.io daily
// aggregates. Instrument keys are plain tickers; configure an empty exchange
// prefix when using it. Polygon aggregates carry no open interest, so that
// field is always zero.
type PolygonClient struct {
	apiClient PolygonAPIClient
}

// NewPolygonClient creates a provider using the real Polygon REST client.
func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "apiKey is required")
	}

	client := polygon.New(apiKey)

	return &PolygonClient{
		apiClient: &polygonAPIAdapter{client: client},
	}, nil
}

// NewPolygonClientWithAPI creates a provider with an injected API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: apiClient,
	}
}

// FetchCandles lists daily aggregates for the window and maps them to candles.
func (c *PolygonClient) FetchCandles(ctx context.Context, instrumentKey string, window types.Window) ([]types.Candle, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     instrumentKey,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(window.Start),
		To:         models.Millis(window.End),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	var candles []types.Candle

	for iter.Next() {
		agg := iter.Item()

		candles = append(candles, types.Candle{
			Time:         naiveTime(time.Time(agg.Timestamp)),
			Open:         decimal.NewFromFloat(agg.Open),
			High:         decimal.NewFromFloat(agg.High),
			Low:          decimal.NewFromFloat(agg.Low),
			Close:        decimal.NewFromFloat(agg.Close),
			Volume:       int64(agg.Volume),
			OpenInterest: 0,
		})
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeFetchFailed, iter.Err(), "failed to list aggregates for %s", instrumentKey)
	}

	return candles, nil
}
