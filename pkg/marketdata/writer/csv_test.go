package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/candlefetch/internal/types"
)

type CSVWriterTestSuite struct {
	suite.Suite
	outputPath string
	writer     *CSVWriter
}

func TestCSVWriterSuite(t *testing.T) {
	suite.Run(t, new(CSVWriterTestSuite))
}

func (s *CSVWriterTestSuite) SetupTest() {
	s.outputPath = filepath.Join(s.T().TempDir(), "candles.csv")
	s.writer = NewCSVWriter(s.outputPath)
}

func (s *CSVWriterTestSuite) TearDownTest() {
	s.writer.Close()
}

func (s *CSVWriterTestSuite) TestHeaderOnly() {
	s.Require().NoError(s.writer.Initialize())

	path, err := s.writer.Finalize()
	s.Require().NoError(err)
	s.Equal(s.outputPath, path)
	s.Require().NoError(s.writer.Close())

	content, err := os.ReadFile(s.outputPath)
	s.Require().NoError(err)
	s.Equal("symbol,date,open,high,low,close,volume,open_interest\n", string(content))
}

func (s *CSVWriterTestSuite) TestWritesRowsInFeedOrder() {
	s.Require().NoError(s.writer.Initialize())

	s.Require().NoError(s.writer.WriteSymbol(types.SymbolResult{
		Symbol: "AAA",
		Candles: []types.Candle{
			candleAt("2021-01-01", 100),
			candleAt("2021-01-02", 101),
		},
	}))
	s.Require().NoError(s.writer.WriteSymbol(types.SymbolResult{
		Symbol:  "BBB",
		Candles: []types.Candle{candleAt("2021-01-01", 200)},
	}))

	_, err := s.writer.Finalize()
	s.Require().NoError(err)
	s.Require().NoError(s.writer.Close())

	content, err := os.ReadFile(s.outputPath)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	s.Require().Len(lines, 4)
	s.Equal("AAA,2021-01-01 00:00:00,100,101,99,100.5,1000,50", lines[1])
	s.Equal("AAA,2021-01-02 00:00:00,101,102,100,101.5,1000,50", lines[2])
	s.Equal("BBB,2021-01-01 00:00:00,200,201,199,200.5,1000,50", lines[3])
}

func (s *CSVWriterTestSuite) TestWriteBeforeInitialize() {
	err := s.writer.WriteSymbol(types.SymbolResult{Symbol: "AAA"})
	s.Error(err)
}

func (s *CSVWriterTestSuite) TestInitializeFailsOnBadPath() {
	w := NewCSVWriter(filepath.Join(s.T().TempDir(), "missing", "candles.csv"))
	s.Error(w.Initialize())
}

// candleAt builds a daily candle with a deterministic OHLC spread around base.
func candleAt(date string, base int64) types.Candle {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}

	return types.Candle{
		Time:         t,
		Open:         decimal.NewFromInt(base),
		High:         decimal.NewFromInt(base + 1),
		Low:          decimal.NewFromInt(base - 1),
		Close:        decimal.NewFromInt(base).Add(decimal.NewFromFloat(0.5)),
		Volume:       1000,
		OpenInterest: 50,
	}
}
