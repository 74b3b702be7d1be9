package writer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rxtech-lab/candlefetch/internal/types"
)

// maxSheetNameLength caps sanitized sheet names. Excel itself allows 31
// characters; the shorter cap leaves room for uniqueness suffixes.
const maxSheetNameLength = 30

// sheetNameStripChars are the characters removed from symbols before they
// become sheet names: the workbook format forbids them.
const sheetNameStripChars = `|:/\?*[]`

// XLSXWriter implements CandleWriter by writing one workbook sheet per
// symbol, indexed by date.
type XLSXWriter struct {
	outputPath string
	file       *excelize.File
	usedNames  map[string]bool
	sheets     int
}

// NewXLSXWriter creates a new XLSXWriter targeting outputPath.
func NewXLSXWriter(outputPath string) *XLSXWriter {
	return &XLSXWriter{
		outputPath: outputPath,
		usedNames:  map[string]bool{},
	}
}

// Initialize creates the in-memory workbook.
func (w *XLSXWriter) Initialize() error {
	w.file = excelize.NewFile()
	return nil
}

// WriteSymbol adds one sheet named after the sanitized symbol.
func (w *XLSXWriter) WriteSymbol(result types.SymbolResult) error {
	if w.file == nil {
		return fmt.Errorf("writer not initialized")
	}

	name := w.uniqueSheetName(result.Symbol)

	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	header := []any{"date", "open", "high", "low", "close", "volume", "open_interest"}
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}

	for i, c := range result.Candles {
		row := []any{
			c.Time.Format(dateLayout),
			c.Open.InexactFloat64(),
			c.High.InexactFloat64(),
			c.Low.InexactFloat64(),
			c.Close.InexactFloat64(),
			c.Volume,
			c.OpenInterest,
		}

		cell := fmt.Sprintf("A%d", i+2)
		if err := w.file.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", name, err)
		}
	}

	w.sheets++

	return nil
}

// Finalize drops the default empty sheet and saves the workbook.
func (w *XLSXWriter) Finalize() (string, error) {
	if w.file == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	if w.sheets == 0 {
		return "", fmt.Errorf("no sheets written")
	}

	if err := w.file.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := w.file.SaveAs(w.outputPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	return w.outputPath, nil
}

// Close releases the workbook resources.
func (w *XLSXWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil

	return err
}

// GetOutputPath returns the configured output file path.
func (w *XLSXWriter) GetOutputPath() string {
	return w.outputPath
}

// uniqueSheetName sanitizes the symbol and disambiguates collisions with a
// numeric suffix, keeping the result within the length cap.
func (w *XLSXWriter) uniqueSheetName(symbol string) string {
	name := SanitizeSheetName(symbol)

	candidate := name
	for n := 2; w.usedNames[candidate]; n++ {
		suffix := fmt.Sprintf("_%d", n)

		trimmed := name
		if len(trimmed)+len(suffix) > maxSheetNameLength {
			trimmed = trimmed[:maxSheetNameLength-len(suffix)]
		}

		candidate = trimmed + suffix
	}

	w.usedNames[candidate] = true

	return candidate
}

// SanitizeSheetName strips the characters the workbook format forbids and
// truncates the result to the sheet name cap. A symbol that sanitizes to
// nothing gets a placeholder name.
func SanitizeSheetName(symbol string) string {
	var b strings.Builder

	for _, r := range symbol {
		if strings.ContainsRune(sheetNameStripChars, r) {
			continue
		}

		b.WriteRune(r)
	}

	name := b.String()
	if name == "" {
		return "SHEET"
	}

	runes := []rune(name)
	if len(runes) > maxSheetNameLength {
		name = string(runes[:maxSheetNameLength])
	}

	return name
}
