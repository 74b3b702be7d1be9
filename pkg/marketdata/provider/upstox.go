package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

// UpstoxClient fetches historical candles from the Upstox V3 historical
// candle endpoint. One instance per symbol pipeline; the embedded HTTP
// client is not shared.
type UpstoxClient struct {
	baseURL       string
	accessToken   string
	intervalUnit  string
	intervalValue string
	httpClient    *http.Client
}

// NewUpstoxClient creates a client for the given interval granularity.
func NewUpstoxClient(cfg config.UpstoxConfig, intervalUnit, intervalValue string) *UpstoxClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	return &UpstoxClient{
		baseURL:       cfg.BaseURL,
		accessToken:   cfg.AccessToken,
		intervalUnit:  intervalUnit,
		intervalValue: intervalValue,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// historicalCandleResponse is the JSON shape of the Upstox endpoint. Each
// candle is a positional array: [timestamp, open, high, low, close, volume,
// open interest].
type historicalCandleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Candles [][]any `json:"candles"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchCandles requests one window of candles. The window bounds are sent as
// calendar dates without time-of-day, matching the endpoint contract.
func (c *UpstoxClient) FetchCandles(ctx context.Context, instrumentKey string, window types.Window) ([]types.Candle, error) {
	u := fmt.Sprintf("%s/v3/historical-candle/%s/%s/%s/%s/%s",
		c.baseURL,
		url.PathEscape(instrumentKey),
		url.PathEscape(c.intervalUnit),
		url.PathEscape(c.intervalValue),
		window.End.Format("2006-01-02"),
		window.Start.Format("2006-01-02"),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "failed to build request", err)
	}

	req.Header.Set("Accept", "application/json")

	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFetchFailed, err, "request failed for %s", instrumentKey)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, errors.Newf(errors.ErrCodeFetchFailed, "upstox returned http %d for %s", res.StatusCode, instrumentKey)
	}

	decoder := json.NewDecoder(res.Body)
	decoder.UseNumber()

	var body historicalCandleResponse
	if err := decoder.Decode(&body); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResponseParseFailed, "failed to decode response", err)
	}

	if body.Status != "success" {
		msg := body.Status
		if len(body.Errors) > 0 {
			msg = body.Errors[0].Message
		}

		return nil, errors.Newf(errors.ErrCodeFetchFailed, "upstox error for %s: %s", instrumentKey, msg)
	}

	candles := make([]types.Candle, 0, len(body.Data.Candles))

	for _, row := range body.Data.Candles {
		candle, err := parseCandleRow(row)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// parseCandleRow coerces one positional candle array into a typed Candle.
func parseCandleRow(row []any) (types.Candle, error) {
	if len(row) < 7 {
		return types.Candle{}, errors.Newf(errors.ErrCodeResponseParseFailed, "candle row has %d fields, want 7", len(row))
	}

	ts, ok := row[0].(string)
	if !ok {
		return types.Candle{}, errors.Newf(errors.ErrCodeResponseParseFailed, "candle timestamp is %T, want string", row[0])
	}

	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return types.Candle{}, errors.Wrapf(errors.ErrCodeResponseParseFailed, err, "invalid candle timestamp %q", ts)
	}

	prices := make([]decimal.Decimal, 4)

	for i := 0; i < 4; i++ {
		prices[i], err = parsePrice(row[i+1])
		if err != nil {
			return types.Candle{}, err
		}
	}

	volume, err := parseCount(row[5])
	if err != nil {
		return types.Candle{}, err
	}

	openInterest, err := parseCount(row[6])
	if err != nil {
		return types.Candle{}, err
	}

	return types.Candle{
		Time:         naiveTime(t),
		Open:         prices[0],
		High:         prices[1],
		Low:          prices[2],
		Close:        prices[3],
		Volume:       volume,
		OpenInterest: openInterest,
	}, nil
}

func parsePrice(v any) (decimal.Decimal, error) {
	n, ok := v.(json.Number)
	if !ok {
		return decimal.Zero, errors.Newf(errors.ErrCodeResponseParseFailed, "candle price is %T, want number", v)
	}

	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeResponseParseFailed, err, "invalid candle price %q", n.String())
	}

	return d, nil
}

func parseCount(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeResponseParseFailed, "candle count is %T, want number", v)
	}

	if i, err := n.Int64(); err == nil {
		return i, nil
	}

	// Some responses serialize counts as floats.
	f, err := n.Float64()
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeResponseParseFailed, err, "invalid candle count %q", n.String())
	}

	return int64(f), nil
}
