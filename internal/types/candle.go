package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle represents a single historical price bar as returned by a market
// data provider. Prices are decimals to avoid float drift when the values are
// re-serialized; Volume and OpenInterest are whole counts.
type Candle struct {
	// Time is the timezone-naive bar timestamp.
	Time time.Time
	// Open is the opening price of the bar.
	Open decimal.Decimal
	// High is the highest price of the bar.
	High decimal.Decimal
	// Low is the lowest price of the bar.
	Low decimal.Decimal
	// Close is the closing price of the bar.
	Close decimal.Decimal
	// Volume is the traded volume of the bar.
	Volume int64
	// OpenInterest is the open interest at the bar close.
	OpenInterest int64
}

// Window is a bounded date range for a single provider request. Providers are
// expected to return every bar whose timestamp falls within [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// SymbolResult is the normalized outcome of fetching one symbol: candles
// sorted ascending by time with duplicate timestamps removed. An empty
// Candles slice means the fetch succeeded but found no data.
type SymbolResult struct {
	Symbol  string
	Candles []Candle
}

// Empty reports whether the result contains no candles.
func (r SymbolResult) Empty() bool {
	return len(r.Candles) == 0
}

// DateRange returns the first and last candle timestamps. The zero time is
// returned for both when the result is empty.
func (r SymbolResult) DateRange() (first, last time.Time) {
	if r.Empty() {
		return time.Time{}, time.Time{}
	}

	return r.Candles[0].Time, r.Candles[len(r.Candles)-1].Time
}
