package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/pkg/errors"
)

func TestNewFactoryUpstox(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderUpstox

	factory, err := NewFactory(cfg)
	assert.NoError(t, err)

	p, err := factory()
	assert.NoError(t, err)
	assert.IsType(t, &UpstoxClient{}, p)

	// Each call builds an independent client
	p2, err := factory()
	assert.NoError(t, err)
	assert.NotSame(t, p, p2)
}

func TestNewFactoryPolygon(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderPolygon
	cfg.Polygon.APIKey = "test-key"

	factory, err := NewFactory(cfg)
	assert.NoError(t, err)

	p, err := factory()
	assert.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewFactoryPolygonMissingKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderPolygon
	cfg.Polygon.APIKey = ""

	_, err := NewFactory(cfg)
	assert.Error(t, err)
}

func TestNewFactoryUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = "alpaca"

	_, err := NewFactory(cfg)
	assert.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func TestNaiveTime(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2023, 6, 1, 0, 0, 0, 0, ist)

	out := naiveTime(in)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), out)
}
