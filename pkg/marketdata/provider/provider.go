// Package provider contains the market data providers the fetcher can pull
// historical candles from.
package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

// Provider fetches the candles for one bounded date window.
type Provider interface {
	// FetchCandles performs a single request for the given instrument key and
	// window and returns the raw candles, in no guaranteed order. Errors are
	// returned to the caller; the backfill engine decides whether to treat
	// them as empty windows.
	FetchCandles(ctx context.Context, instrumentKey string, window types.Window) ([]types.Candle, error)
}

// Factory builds a fresh Provider instance. Every concurrent symbol pipeline
// calls the factory once and owns the returned client exclusively; no
// session state is shared across pipelines.
type Factory func() (Provider, error)

// NewFactory returns a Factory for the provider selected in cfg.
func NewFactory(cfg config.Config) (Factory, error) {
	switch cfg.Provider {
	case config.ProviderUpstox:
		return func() (Provider, error) {
			return NewUpstoxClient(cfg.Upstox, cfg.IntervalUnit, cfg.IntervalValue), nil
		}, nil
	case config.ProviderPolygon:
		if cfg.Polygon.APIKey == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon provider requires an api key")
		}

		return func() (Provider, error) {
			return NewPolygonClient(cfg.Polygon.APIKey)
		}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", cfg.Provider)
	}
}

// naiveTime drops the timezone from t, keeping the wall-clock reading. The
// output artifact stores timezone-naive timestamps regardless of what zone
// the provider reports.
func naiveTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
