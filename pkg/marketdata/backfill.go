// Package marketdata implements the batch candle acquisition core: the
// backward pagination engine, the per-symbol normalizer, the bounded
// fan-out coordinator, and the client tying them to a writer.
package marketdata

import (
	"context"
	"time"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/marketdata/provider"
)

// Backfiller retrieves the full available history for one instrument by
// walking backward from now in bounded windows. The provider cannot return
// unbounded ranges in one call and the true start of an instrument's trading
// history is unknown in advance, so the engine keeps sliding the window back
// until the configured termination policy says stop.
type Backfiller struct {
	provider provider.Provider
	cfg      config.BackfillConfig

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewBackfiller creates an engine for one instrument fetch sequence.
func NewBackfiller(p provider.Provider, cfg config.BackfillConfig) *Backfiller {
	return &Backfiller{
		provider: p,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Fetch accumulates the candles of every window the termination policy
// visits, in no guaranteed order. Window fetch errors are treated as empty
// windows unless the config is strict; the pagination keeps going either
// way, since later windows may still succeed.
//
// After every window the engine sleeps the configured pace before issuing
// the next request. The pacing is per fetch sequence and is the primary
// rate-limit defense; it composes with the coordinator's worker bound to
// produce the effective request rate.
func (b *Backfiller) Fetch(ctx context.Context, instrumentKey string) ([]types.Candle, error) {
	switch b.cfg.Policy {
	case config.PolicyFixedHorizon:
		return b.fetchFixedHorizon(ctx, instrumentKey)
	default:
		return b.fetchAdaptiveStop(ctx, instrumentKey)
	}
}

// fetchAdaptiveStop slides the window back from now. A window that returns
// data always continues the walk. An empty window continues the walk too,
// unless its end already lies before the guard year, in which case the
// instrument almost certainly was not trading yet and the walk stops. The
// stop year hard-bounds the loop regardless.
func (b *Backfiller) fetchAdaptiveStop(ctx context.Context, instrumentKey string) ([]types.Candle, error) {
	var all []types.Candle

	end := b.now()

	for end.Year() >= b.cfg.StopYear {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		start := end.AddDate(0, 0, -b.cfg.ChunkSpanDays)

		chunk, err := b.fetchWindow(ctx, instrumentKey, types.Window{Start: start, End: end})
		if err != nil {
			return nil, err
		}

		if len(chunk) > 0 {
			all = append(all, chunk...)
		} else if end.Year() < b.cfg.GuardYear {
			// Empty this far back: assume the listing never reached here.
			break
		}

		end = start

		b.sleep(b.cfg.Pace())
	}

	return all, nil
}

// fetchFixedHorizon slides the window back from now to the floor date,
// clamping the last window. Empty windows never terminate the walk, so
// coverage of [floor, now] is complete at the cost of always issuing the
// maximum number of requests.
func (b *Backfiller) fetchFixedHorizon(ctx context.Context, instrumentKey string) ([]types.Candle, error) {
	var all []types.Candle

	floor := b.cfg.FloorTime()
	end := b.now()

	for {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		start := end.AddDate(0, 0, -b.cfg.ChunkSpanDays)
		if start.Before(floor) {
			start = floor
		}

		chunk, err := b.fetchWindow(ctx, instrumentKey, types.Window{Start: start, End: end})
		if err != nil {
			return nil, err
		}

		all = append(all, chunk...)

		if !start.After(floor) {
			break
		}

		end = start.AddDate(0, 0, -1)

		b.sleep(b.cfg.Pace())
	}

	return all, nil
}

// fetchWindow applies the fail-soft policy: a provider error counts as an
// empty window so one throttled or malformed response cannot abort the whole
// sequence. Strict mode propagates the error instead.
func (b *Backfiller) fetchWindow(ctx context.Context, instrumentKey string, window types.Window) ([]types.Candle, error) {
	chunk, err := b.provider.FetchCandles(ctx, instrumentKey, window)
	if err != nil {
		if b.cfg.Strict {
			return nil, err
		}

		return nil, nil
	}

	return chunk, nil
}
