package marketdata

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/logger"
	"github.com/rxtech-lab/candlefetch/internal/roster"
	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/errors"
	"github.com/rxtech-lab/candlefetch/pkg/marketdata/provider"
)

// Report is the outcome of one symbol's pipeline. Exactly one of Result and
// Err is meaningful: a nil Err with an empty Result means the fetch succeeded
// but found no data.
type Report struct {
	Symbol string
	Result types.SymbolResult
	Err    error
}

// Coordinator runs the resolve → paginate → normalize pipeline for every
// roster entry under a bounded worker pool. Each symbol's pipeline is a
// failure-isolation unit: it owns its own provider instance and its errors
// never affect sibling pipelines.
type Coordinator struct {
	cfg            config.Config
	newProvider    provider.Factory
	logger         *logger.Logger
	progressWriter io.Writer
}

// NewCoordinator creates a coordinator for the given configuration.
func NewCoordinator(cfg config.Config, factory provider.Factory, log *logger.Logger) *Coordinator {
	return &Coordinator{
		cfg:            cfg,
		newProvider:    factory,
		logger:         log,
		progressWriter: os.Stderr,
	}
}

// SetProgressWriter redirects the progress bar output. Tests pass io.Discard.
func (c *Coordinator) SetProgressWriter(w io.Writer) {
	c.progressWriter = w
}

// Run fetches every entry and returns one report per entry, in completion
// order. Run never fails as a whole: per-symbol failures are carried in the
// reports.
func (c *Coordinator) Run(ctx context.Context, entries []roster.Entry) []Report {
	group := new(errgroup.Group)
	group.SetLimit(c.cfg.Workers)

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Fetching candles"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(c.progressWriter),
	)

	var mu sync.Mutex

	reports := make([]Report, 0, len(entries))

	for _, entry := range entries {
		group.Go(func() error {
			report := c.processSymbol(ctx, entry)

			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()

			c.logOutcome(report)

			_ = bar.Add(1)

			// Failures are reported, never propagated: returning an error
			// here would cancel sibling pipelines.
			return nil
		})
	}

	_ = group.Wait()
	_ = bar.Finish()

	return reports
}

// processSymbol runs one symbol's pipeline. Panics are confined to the
// symbol and surfaced as its failure report.
func (c *Coordinator) processSymbol(ctx context.Context, entry roster.Entry) (report Report) {
	report.Symbol = entry.Symbol

	defer func() {
		if r := recover(); r != nil {
			report.Err = errors.Newf(errors.ErrCodeSymbolPipelineFailed, "pipeline panic for %s: %v", entry.Symbol, r)
		}
	}()

	p, err := c.newProvider()
	if err != nil {
		report.Err = errors.Wrapf(errors.ErrCodeProviderUnavailable, err, "failed to create provider for %s", entry.Symbol)
		return report
	}

	engine := NewBackfiller(p, c.cfg.Backfill)

	raw, err := engine.Fetch(ctx, entry.InstrumentKey(c.cfg.ExchangePrefix))
	if err != nil {
		report.Err = errors.Wrapf(errors.ErrCodeFetchFailed, err, "backfill failed for %s", entry.Symbol)
		return report
	}

	report.Result = Normalize(entry.Symbol, raw)

	return report
}

func (c *Coordinator) logOutcome(report Report) {
	switch {
	case report.Err != nil:
		c.logger.Error("symbol failed",
			zap.String("symbol", report.Symbol),
			zap.Error(report.Err),
		)
	case report.Result.Empty():
		c.logger.Warn("no data found", zap.String("symbol", report.Symbol))
	default:
		first, last := report.Result.DateRange()
		c.logger.Info("symbol fetched",
			zap.String("symbol", report.Symbol),
			zap.Int("candles", len(report.Result.Candles)),
			zap.String("from", first.Format("2006-01-02")),
			zap.String("to", last.Format("2006-01-02")),
		)
	}
}
