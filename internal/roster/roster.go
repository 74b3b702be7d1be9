// Package roster loads the input list of symbols and instrument identifiers.
package roster

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

// Entry is one row of the roster: a display symbol and the provider-facing
// instrument identifier (for NSE equities, the ISIN).
type Entry struct {
	Symbol     string
	Identifier string
}

// InstrumentKey resolves the provider instrument key for this entry by
// concatenating the exchange prefix with the trimmed identifier. It is
// deterministic and never fails; an empty or bogus identifier simply yields
// a key the provider will find no data for.
func (e Entry) InstrumentKey(prefix string) string {
	return prefix + strings.TrimSpace(e.Identifier)
}

// Column names matched after lowercasing the header row.
const (
	symbolColumn     = "symbol"
	identifierColumn = "isin_number"
)

// Load reads the roster CSV at path. The header row is case-normalized and
// must contain the symbol and identifier columns; every following row
// becomes one Entry. A missing file is a fatal startup condition.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrCodeRosterNotFound, err, "roster file %s not found", path)
		}

		return nil, errors.Wrapf(errors.ErrCodeRosterParseFailed, err, "failed to open roster file %s", path)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads roster entries from r. Exposed separately so tests and other
// callers can load from any reader.
func Parse(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRosterParseFailed, "failed to read roster header", err)
	}

	symbolIdx, identifierIdx := -1, -1

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case symbolColumn:
			symbolIdx = i
		case identifierColumn:
			identifierIdx = i
		}
	}

	if symbolIdx < 0 {
		return nil, errors.Newf(errors.ErrCodeRosterMissingColumn, "roster is missing the %q column", symbolColumn)
	}

	if identifierIdx < 0 {
		return nil, errors.Newf(errors.ErrCodeRosterMissingColumn, "roster is missing the %q column", identifierColumn)
	}

	var entries []Entry

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRosterParseFailed, "failed to read roster row", err)
		}

		symbol := strings.TrimSpace(record[symbolIdx])
		if symbol == "" {
			continue
		}

		entries = append(entries, Entry{
			Symbol:     symbol,
			Identifier: record[identifierIdx],
		})
	}

	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeRosterEmpty, "roster contains no entries")
	}

	return entries, nil
}
