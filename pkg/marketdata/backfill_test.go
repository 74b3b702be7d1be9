package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

// recordingProvider captures every requested window and answers through fn.
type recordingProvider struct {
	fn      func(window types.Window) ([]types.Candle, error)
	windows []types.Window
}

func (p *recordingProvider) FetchCandles(_ context.Context, _ string, window types.Window) ([]types.Candle, error) {
	p.windows = append(p.windows, window)
	return p.fn(window)
}

func testBackfillConfig(policy config.BackfillPolicy) config.BackfillConfig {
	return config.BackfillConfig{
		ChunkSpanDays: 365,
		PaceMillis:    0,
		Policy:        policy,
		GuardYear:     2010,
		StopYear:      2000,
		FloorDate:     "2010-01-01",
	}
}

func newTestBackfiller(p *recordingProvider, cfg config.BackfillConfig, now time.Time) *Backfiller {
	b := NewBackfiller(p, cfg)
	b.now = func() time.Time { return now }
	b.sleep = func(time.Duration) {}

	return b
}

func TestAdaptiveStopsAfterListingStart(t *testing.T) {
	// Data exists back to 2015; once the walk probes past the guard year on
	// empty windows it gives up.
	listed := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &recordingProvider{
		fn: func(w types.Window) ([]types.Candle, error) {
			if w.End.Before(listed) {
				return nil, nil
			}

			return []types.Candle{rawCandle(w.End.Format("2006-01-02"), 1)}, nil
		},
	}

	now := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, testBackfillConfig(config.PolicyAdaptiveStop), now)

	candles, err := b.Fetch(context.Background(), "KEY")
	require.NoError(t, err)

	// 2021 down to 2015 returns data; empty windows keep probing until one
	// ends before 2010.
	assert.NotEmpty(t, candles)
	last := p.windows[len(p.windows)-1]
	assert.Less(t, last.End.Year(), 2010)
	assert.GreaterOrEqual(t, last.End.Year(), 2000)
}

func TestAdaptiveHardStopBoundsTheWalk(t *testing.T) {
	// Even a provider that always returns data cannot drag the walk past the
	// stop year.
	p := &recordingProvider{
		fn: func(w types.Window) ([]types.Candle, error) {
			return []types.Candle{rawCandle(w.End.Format("2006-01-02"), 1)}, nil
		},
	}

	cfg := testBackfillConfig(config.PolicyAdaptiveStop)
	cfg.StopYear = 2019
	cfg.GuardYear = 2019

	now := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, cfg, now)

	_, err := b.Fetch(context.Background(), "KEY")
	require.NoError(t, err)

	for _, w := range p.windows {
		assert.GreaterOrEqual(t, w.End.Year(), 2019)
	}

	assert.Len(t, p.windows, 3)
}

func TestAdaptiveEmptyBeforeGuardYearStops(t *testing.T) {
	p := &recordingProvider{
		fn: func(types.Window) ([]types.Candle, error) { return nil, nil },
	}

	cfg := testBackfillConfig(config.PolicyAdaptiveStop)
	cfg.GuardYear = 2020

	now := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, cfg, now)

	candles, err := b.Fetch(context.Background(), "KEY")
	require.NoError(t, err)
	assert.Empty(t, candles)

	// Windows ending 2021 and 2020 keep probing; the one ending 2019 is past
	// the guard and terminates the walk.
	assert.Len(t, p.windows, 3)
}

func TestFixedHorizonCoversFloorToNowWithoutGaps(t *testing.T) {
	p := &recordingProvider{
		fn: func(types.Window) ([]types.Candle, error) { return nil, nil },
	}

	now := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	floor := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, testBackfillConfig(config.PolicyFixedHorizon), now)

	_, err := b.Fetch(context.Background(), "KEY")
	require.NoError(t, err)
	require.NotEmpty(t, p.windows)

	assert.True(t, p.windows[0].End.Equal(now))
	assert.True(t, p.windows[len(p.windows)-1].Start.Equal(floor))

	for i, w := range p.windows {
		assert.False(t, w.Start.Before(floor), "window %d starts before the floor", i)
		assert.False(t, w.Start.After(w.End), "window %d is inverted", i)

		if i > 0 {
			gap := p.windows[i-1].Start.Sub(w.End)
			assert.Equal(t, 24*time.Hour, gap, "windows %d and %d are not contiguous", i-1, i)
		}
	}
}

func TestFixedHorizonKeepsWalkingPastEmptyWindows(t *testing.T) {
	// Only one early window has data; empty windows in between must not
	// terminate the walk.
	p := &recordingProvider{
		fn: func(w types.Window) ([]types.Candle, error) {
			if w.End.Year() == 2011 {
				return []types.Candle{rawCandle("2011-02-01", 1)}, nil
			}

			return nil, nil
		},
	}

	now := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, testBackfillConfig(config.PolicyFixedHorizon), now)

	candles, err := b.Fetch(context.Background(), "KEY")
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}

func TestPacingSleepsBetweenWindows(t *testing.T) {
	p := &recordingProvider{
		fn: func(types.Window) ([]types.Candle, error) { return nil, nil },
	}

	cfg := testBackfillConfig(config.PolicyFixedHorizon)
	cfg.PaceMillis = 500

	now := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, cfg, now)

	var slept []time.Duration
	b.sleep = func(d time.Duration) { slept = append(slept, d) }

	_, err := b.Fetch(context.Background(), "KEY")
	require.NoError(t, err)

	require.NotEmpty(t, slept)
	for _, d := range slept {
		assert.Equal(t, 500*time.Millisecond, d)
	}
}

func TestWindowErrorsAreFailSoftByDefault(t *testing.T) {
	calls := 0
	p := &recordingProvider{
		fn: func(w types.Window) ([]types.Candle, error) {
			calls++
			if calls == 1 {
				return nil, errors.New(errors.ErrCodeFetchFailed, "throttled")
			}

			return []types.Candle{rawCandle(w.End.Format("2006-01-02"), 1)}, nil
		},
	}

	now := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, testBackfillConfig(config.PolicyFixedHorizon), now)

	candles, err := b.Fetch(context.Background(), "KEY")
	require.NoError(t, err)
	assert.NotEmpty(t, candles)
	assert.Greater(t, calls, 1)
}

func TestStrictModePropagatesWindowErrors(t *testing.T) {
	p := &recordingProvider{
		fn: func(types.Window) ([]types.Candle, error) {
			return nil, errors.New(errors.ErrCodeFetchFailed, "throttled")
		},
	}

	cfg := testBackfillConfig(config.PolicyFixedHorizon)
	cfg.Strict = true

	now := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newTestBackfiller(p, cfg, now)

	_, err := b.Fetch(context.Background(), "KEY")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFetchFailed))
	assert.Len(t, p.windows, 1)
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	p := &recordingProvider{
		fn: func(types.Window) ([]types.Candle, error) { return nil, nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	now := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, policy := range []config.BackfillPolicy{config.PolicyAdaptiveStop, config.PolicyFixedHorizon} {
		b := newTestBackfiller(p, testBackfillConfig(policy), now)

		_, err := b.Fetch(ctx, "KEY")
		assert.ErrorIs(t, err, context.Canceled)
	}

	assert.Empty(t, p.windows)
}
