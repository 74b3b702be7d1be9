package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rxtech-lab/candlefetch/internal/types"
)

// CSVWriter implements CandleWriter by writing one long-format table with an
// explicit symbol column. Rows come out in (symbol, date) order because the
// caller feeds symbols sorted and each result is date-sorted.
type CSVWriter struct {
	outputPath string
	file       *os.File
	csv        *csv.Writer
}

// NewCSVWriter creates a new CSVWriter targeting outputPath.
func NewCSVWriter(outputPath string) *CSVWriter {
	return &CSVWriter{
		outputPath: outputPath,
	}
}

// Initialize creates the output file and writes the header row.
func (w *CSVWriter) Initialize() error {
	file, err := os.Create(w.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w.file = file
	w.csv = csv.NewWriter(file)

	if err := w.csv.Write(longFormatHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// WriteSymbol appends one row per candle.
func (w *CSVWriter) WriteSymbol(result types.SymbolResult) error {
	if w.csv == nil {
		return fmt.Errorf("writer not initialized")
	}

	for _, c := range result.Candles {
		record := []string{
			result.Symbol,
			c.Time.Format(dateLayout),
			c.Open.String(),
			c.High.String(),
			c.Low.String(),
			c.Close.String(),
			strconv.FormatInt(c.Volume, 10),
			strconv.FormatInt(c.OpenInterest, 10),
		}

		if err := w.csv.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", result.Symbol, err)
		}
	}

	w.csv.Flush()

	return w.csv.Error()
}

// Finalize flushes any buffered rows and reports the output path.
func (w *CSVWriter) Finalize() (string, error) {
	if w.csv == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return "", fmt.Errorf("failed to flush output: %w", err)
	}

	return w.outputPath, nil
}

// Close closes the underlying file.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil

	if err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
