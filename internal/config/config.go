// Package config defines the immutable run configuration for the batch
// candle fetcher. Every tunable lives here; the CLI only points at a yaml
// file that overrides the defaults.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

// OutputFormat selects the shape of the final artifact.
type OutputFormat string

const (
	FormatXLSX    OutputFormat = "xlsx"
	FormatCSV     OutputFormat = "csv"
	FormatParquet OutputFormat = "parquet"
)

// ProviderType selects the market data provider.
type ProviderType string

const (
	ProviderUpstox  ProviderType = "upstox"
	ProviderPolygon ProviderType = "polygon"
)

// BackfillPolicy selects how the backward pagination loop terminates.
type BackfillPolicy string

const (
	// PolicyAdaptiveStop probes backward past empty windows and stops once an
	// empty window's end year falls below the guard year.
	PolicyAdaptiveStop BackfillPolicy = "adaptive"
	// PolicyFixedHorizon walks back to a fixed floor date regardless of
	// whether individual windows return data.
	PolicyFixedHorizon BackfillPolicy = "fixed"
)

// BackfillConfig tunes the backward pagination engine.
type BackfillConfig struct {
	// ChunkSpanDays is the maximum span of a single provider request.
	ChunkSpanDays int `yaml:"chunk_span_days" validate:"required,min=1"`
	// PaceMillis is the fixed sleep after every window fetch, per symbol.
	PaceMillis int `yaml:"pace_ms" validate:"min=0"`
	// Policy picks the termination policy.
	Policy BackfillPolicy `yaml:"policy" validate:"required,oneof=adaptive fixed"`
	// GuardYear is the adaptive-stop heuristic: once an empty window ends in
	// a year before this, the walk stops. A stock that traded before the
	// guard year but had a listing gap overlapping it will lose its early
	// history; this is a known accuracy tradeoff, not a hard data boundary.
	GuardYear int `yaml:"guard_year" validate:"min=1900"`
	// StopYear hard-bounds the adaptive walk so it can never probe forever.
	StopYear int `yaml:"stop_year" validate:"min=1900"`
	// FloorDate is the fixed-horizon floor in YYYY-MM-DD form.
	FloorDate string `yaml:"floor_date" validate:"required"`
	// Strict propagates window fetch errors instead of treating them as
	// empty windows.
	Strict bool `yaml:"strict"`
}

// Pace returns the pacing sleep as a duration.
func (b BackfillConfig) Pace() time.Duration {
	return time.Duration(b.PaceMillis) * time.Millisecond
}

// FloorTime parses FloorDate. Validate guarantees this succeeds.
func (b BackfillConfig) FloorTime() time.Time {
	t, _ := time.Parse("2006-01-02", b.FloorDate)
	return t
}

// UpstoxConfig holds settings for the Upstox historical candle API.
type UpstoxConfig struct {
	BaseURL     string `yaml:"base_url" validate:"required"`
	AccessToken string `yaml:"access_token"`
	// TimeoutSeconds bounds a single HTTP request.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"min=0"`
}

// PolygonConfig holds settings for the Polygon.io provider.
type PolygonConfig struct {
	APIKey string `yaml:"api_key"`
}

// Config is the full run configuration. It is loaded once at startup and
// passed down read-only; nothing mutates it afterwards.
type Config struct {
	// InputPath is the roster CSV with symbol and identifier columns.
	InputPath string `yaml:"input_path" validate:"required"`
	// OutputPath is the final artifact location.
	OutputPath string `yaml:"output_path" validate:"required"`
	// OutputFormat selects the sink: multi-sheet workbook, long-format CSV,
	// or Parquet.
	OutputFormat OutputFormat `yaml:"output_format" validate:"required,oneof=xlsx csv parquet"`
	// Provider selects the market data source.
	Provider ProviderType `yaml:"provider" validate:"required,oneof=upstox polygon"`
	// ExchangePrefix is prepended to trimmed identifiers to form instrument keys.
	ExchangePrefix string `yaml:"exchange_prefix"`
	// IntervalUnit and IntervalValue describe the candle granularity in the
	// provider's own vocabulary.
	IntervalUnit  string `yaml:"interval_unit" validate:"required"`
	IntervalValue string `yaml:"interval_value" validate:"required"`
	// Workers bounds how many symbols are fetched concurrently. Keep this
	// low to avoid provider rate limits.
	Workers int `yaml:"workers" validate:"required,min=1"`

	Backfill BackfillConfig `yaml:"backfill"`
	Upstox   UpstoxConfig   `yaml:"upstox"`
	Polygon  PolygonConfig  `yaml:"polygon"`
}

// DefaultConfig returns the built-in configuration. The values mirror the
// constants the tool shipped with: NSE equities roster, daily candles,
// four workers, three-year chunks, half-second pacing.
func DefaultConfig() Config {
	return Config{
		InputPath:      "Stock.csv",
		OutputPath:     "Stock_Candle_Data_Final.xlsx",
		OutputFormat:   FormatXLSX,
		Provider:       ProviderUpstox,
		ExchangePrefix: "NSE_EQ|",
		IntervalUnit:   "days",
		IntervalValue:  "1",
		Workers:        4,
		Backfill: BackfillConfig{
			ChunkSpanDays: 365 * 3,
			PaceMillis:    500,
			Policy:        PolicyAdaptiveStop,
			GuardYear:     2010,
			StopYear:      2000,
			FloorDate:     "2010-01-01",
			Strict:        false,
		},
		Upstox: UpstoxConfig{
			BaseURL:        "https://api.upstox.com",
			AccessToken:    os.Getenv("UPSTOX_ACCESS_TOKEN"),
			TimeoutSeconds: 30,
		},
		Polygon: PolygonConfig{
			APIKey: os.Getenv("POLYGON_API_KEY"),
		},
	}
}

// Load reads the yaml file at path over the defaults and validates the
// result. An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural and semantic errors.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if _, err := time.Parse("2006-01-02", c.Backfill.FloorDate); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid floor_date %q, expected YYYY-MM-DD", c.Backfill.FloorDate)
	}

	if c.Backfill.Policy == PolicyAdaptiveStop && c.Backfill.GuardYear < c.Backfill.StopYear {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"guard_year %d must not be earlier than stop_year %d", c.Backfill.GuardYear, c.Backfill.StopYear)
	}

	return nil
}
