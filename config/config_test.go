package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/charge-rate-engine/config"
	"github.com/warp/charge-rate-engine/costmodel"
	"github.com/warp/charge-rate-engine/generic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 24*time.Hour, cfg.RateSource.CacheTTL)
	assert.False(t, cfg.RateSource.RemoteEnabled())
	assert.Equal(t, "info", cfg.Logging.Level)

	// Cost model defaults survive the float round trip exactly.
	w := cfg.Work()
	dw := costmodel.DefaultWorkConfiguration()
	assert.True(t, dw.HoursPerDay.Equal(w.HoursPerDay), w.HoursPerDay.String())
	assert.True(t, dw.TrainingWeeks.Equal(w.TrainingWeeks))

	c := cfg.Cost()
	dc := costmodel.DefaultCostConfiguration()
	assert.True(t, dc.PayrollTaxRate.Equal(c.PayrollTaxRate), c.PayrollTaxRate.String())
	assert.True(t, dc.SuperannuationRate.Equal(c.SuperannuationRate))
	assert.True(t, dc.DefaultMargin.Equal(c.DefaultMargin))

	assert.Equal(t, costmodel.DefaultBillableOptions(), cfg.Billable())
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: memory
rate_source:
  base_url: https://api.example.test
  subscription_key: secret
  timeout: 5s
logging:
  format: json
defaults:
  cost:
    default_margin: 0.2
  billable:
    training: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.MemoryDatabase, cfg.Database.Path)
	assert.True(t, cfg.RateSource.RemoteEnabled())
	assert.Equal(t, 5*time.Second, cfg.RateSource.Timeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "0.2", cfg.Cost().DefaultMargin.String())
	assert.True(t, cfg.Billable().Training)
	assert.False(t, cfg.Billable().SickLeave)

	// untouched keys keep their defaults
	assert.Equal(t, "0.115", cfg.Cost().SuperannuationRate.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("CHARGERATE_SERVER_PORT", "7070")
	t.Setenv("CHARGERATE_RATE_SOURCE_CALENDAR_YEAR", "2024")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 2024, cfg.RateSource.CalendarYear)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"timeout above cap", "rate_source:\n  timeout: 30s\n"},
		{"zero cache ttl", "rate_source:\n  cache_ttl: 0s\n"},
		{"remote without key", "rate_source:\n  base_url: https://api.example.test\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrValidation), "got %v", err)
		})
	}
}

func TestLoad_NegativeCostIsConfigurationError(t *testing.T) {
	_, err := config.Load(writeConfig(t, "defaults:\n  cost:\n    admin_rate: -0.1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrConfiguration))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}
