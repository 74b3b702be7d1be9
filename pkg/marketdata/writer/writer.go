// Package writer contains the sinks that persist the merged fetch results
// into a single final artifact.
package writer

import (
	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

// CandleWriter defines the interface for writing per-symbol results to a
// destination. The caller feeds symbols in ascending symbol order, each with
// candles already sorted by date, and finalizes exactly once after the last
// symbol.
type CandleWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// WriteSymbol persists the candles of one symbol.
	WriteSymbol(result types.SymbolResult) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// longFormatHeader is the canonical column order of the flat artifacts.
var longFormatHeader = []string{"symbol", "date", "open", "high", "low", "close", "volume", "open_interest"}

// dateLayout is how candle timestamps are rendered in flat artifacts.
const dateLayout = "2006-01-02 15:04:05"

// NewCandleWriter creates the writer for the configured output format.
func NewCandleWriter(format config.OutputFormat, outputPath string) (CandleWriter, error) {
	switch format {
	case config.FormatCSV:
		return NewCSVWriter(outputPath), nil
	case config.FormatXLSX:
		return NewXLSXWriter(outputPath), nil
	case config.FormatParquet:
		return NewDuckDBWriter(outputPath), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidWriter, "unsupported output format: %s", format)
	}
}
