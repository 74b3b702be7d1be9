package marketdata

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/logger"
	"github.com/rxtech-lab/candlefetch/internal/roster"
	"github.com/rxtech-lab/candlefetch/internal/types"
	"github.com/rxtech-lab/candlefetch/pkg/marketdata/provider"
	"github.com/rxtech-lab/candlefetch/pkg/marketdata/writer"
)

// Client runs one end-to-end acquisition: load the roster, fan out the
// per-symbol pipelines, merge the results, and persist the artifact.
type Client struct {
	cfg         config.Config
	logger      *logger.Logger
	newProvider provider.Factory

	// progressWriter is forwarded to the coordinator. Tests pass io.Discard.
	progressWriter io.Writer
}

// NewClient creates a client with the provider the configuration selects.
func NewClient(cfg config.Config, log *logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory, err := provider.NewFactory(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:         cfg,
		logger:      log,
		newProvider: factory,
	}, nil
}

// NewClientWithFactory creates a client with an injected provider factory.
func NewClientWithFactory(cfg config.Config, log *logger.Logger, factory provider.Factory) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		cfg:         cfg,
		logger:      log,
		newProvider: factory,
	}, nil
}

// SetProgressWriter redirects the progress bar output.
func (c *Client) SetProgressWriter(w io.Writer) {
	c.progressWriter = w
}

// Run executes the full acquisition. Symbols whose pipelines fail or find no
// data are logged and skipped; the artifact contains whatever remains. A run
// where every symbol came back empty writes no file at all. Only problems
// that sink the whole run, an unreadable roster or a broken writer, are
// returned as errors.
func (c *Client) Run(ctx context.Context) error {
	runID := uuid.New().String()
	started := time.Now()

	c.logger.Info("starting acquisition",
		zap.String("run_id", runID),
		zap.String("roster", c.cfg.InputPath),
		zap.String("provider", string(c.cfg.Provider)),
		zap.Int("workers", c.cfg.Workers),
	)

	entries, err := roster.Load(c.cfg.InputPath)
	if err != nil {
		return err
	}

	c.logger.Info("roster loaded", zap.Int("symbols", len(entries)))

	coordinator := NewCoordinator(c.cfg, c.newProvider, c.logger)
	if c.progressWriter != nil {
		coordinator.SetProgressWriter(c.progressWriter)
	}

	reports := coordinator.Run(ctx, entries)

	results, failures := partitionReports(reports)

	sort.Slice(results, func(i, j int) bool {
		return results[i].Symbol < results[j].Symbol
	})

	if len(results) == 0 {
		c.logger.Warn("no data fetched for any symbol, nothing to save",
			zap.String("run_id", runID),
			zap.Int("symbols", len(entries)),
			zap.Int("failures", failures),
		)

		return nil
	}

	outputPath, err := c.writeArtifact(results)
	if err != nil {
		return err
	}

	rows := 0
	for _, r := range results {
		rows += len(r.Candles)
	}

	first, last := overallDateRange(results)

	c.logger.Info("acquisition complete",
		zap.String("run_id", runID),
		zap.Int("symbols", len(results)),
		zap.Int("failures", failures),
		zap.Int("rows", rows),
		zap.String("from", first.Format("2006-01-02")),
		zap.String("to", last.Format("2006-01-02")),
		zap.String("output", outputPath),
		zap.Duration("elapsed", time.Since(started)),
	)

	return nil
}

// writeArtifact streams the merged results through the configured writer.
func (c *Client) writeArtifact(results []types.SymbolResult) (string, error) {
	w, err := writer.NewCandleWriter(c.cfg.OutputFormat, c.cfg.OutputPath)
	if err != nil {
		return "", err
	}
	defer w.Close()

	if err := w.Initialize(); err != nil {
		return "", err
	}

	for _, result := range results {
		if err := w.WriteSymbol(result); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}

// partitionReports splits the reports into non-empty results and a failure
// count. Empty successes are dropped silently here; the coordinator already
// logged them.
func partitionReports(reports []Report) ([]types.SymbolResult, int) {
	results := make([]types.SymbolResult, 0, len(reports))
	failures := 0

	for _, report := range reports {
		switch {
		case report.Err != nil:
			failures++
		case !report.Result.Empty():
			results = append(results, report.Result)
		}
	}

	return results, failures
}

// overallDateRange returns the earliest and latest candle time across all
// results. Callers guarantee results is non-empty and each result sorted.
func overallDateRange(results []types.SymbolResult) (time.Time, time.Time) {
	first, last := results[0].DateRange()

	for _, r := range results[1:] {
		f, l := r.DateRange()
		if f.Before(first) {
			first = f
		}

		if l.After(last) {
			last = l
		}
	}

	return first, last
}
