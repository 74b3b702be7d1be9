package marketdata

import (
	"sort"

	"github.com/rxtech-lab/candlefetch/internal/types"
)

// Normalize converts the accumulated raw candles of one symbol into a
// canonical result: stable-sorted ascending by timestamp, with duplicate
// timestamps removed keeping the first occurrence after the sort. Windows
// overlap at their edges during backfill, so duplicates are expected.
//
// An empty input yields an explicitly empty result, not an error; the
// coordinator distinguishes "empty but successful" from "failed".
// Normalize is idempotent: normalizing an already-normalized sequence
// returns an identical sequence.
func Normalize(symbol string, raw []types.Candle) types.SymbolResult {
	if len(raw) == 0 {
		return types.SymbolResult{Symbol: symbol, Candles: nil}
	}

	candles := make([]types.Candle, len(raw))
	copy(candles, raw)

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	deduped := candles[:1]

	for _, c := range candles[1:] {
		if c.Time.Equal(deduped[len(deduped)-1].Time) {
			continue
		}

		deduped = append(deduped, c)
	}

	return types.SymbolResult{Symbol: symbol, Candles: deduped}
}
