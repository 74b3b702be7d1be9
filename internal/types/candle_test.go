package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSymbolResultEmpty(t *testing.T) {
	tests := []struct {
		name     string
		result   SymbolResult
		expected bool
	}{
		{
			name:     "nil candles",
			result:   SymbolResult{Symbol: "AAA"},
			expected: true,
		},
		{
			name:     "empty slice",
			result:   SymbolResult{Symbol: "AAA", Candles: []Candle{}},
			expected: true,
		},
		{
			name: "one candle",
			result: SymbolResult{
				Symbol:  "AAA",
				Candles: []Candle{{Time: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Empty())
		})
	}
}

func TestSymbolResultDateRange(t *testing.T) {
	first := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	result := SymbolResult{
		Symbol: "AAA",
		Candles: []Candle{
			{Time: first},
			{Time: time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)},
			{Time: last},
		},
	}

	gotFirst, gotLast := result.DateRange()
	assert.True(t, gotFirst.Equal(first))
	assert.True(t, gotLast.Equal(last))
}

func TestSymbolResultDateRangeEmpty(t *testing.T) {
	first, last := SymbolResult{Symbol: "AAA"}.DateRange()
	assert.True(t, first.IsZero())
	assert.True(t, last.IsZero())
}
