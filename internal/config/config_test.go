package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevcalc/internal/service/pricing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
env: local
http_server:
  address: "0.0.0.0:8080"
db_user: user
db_name: elevcalc
pricing:
  margin_rate: 0.25
  tax_rates:
    Elevators: 0.12
fallback_costs:
  by_category:
    cabin: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address)
	assert.Equal(t, 4*time.Second, cfg.Timeout)
	assert.Equal(t, 3306, cfg.DBPort)
	assert.Equal(t, 0.25, cfg.Pricing.MarginRate)
	assert.Equal(t, 0.15, cfg.Pricing.LaborRatio)
	assert.Equal(t, 0.12, cfg.Pricing.TaxRates["Elevators"])
	assert.Equal(t, 0.10, cfg.Pricing.DefaultTaxRate)
	assert.Equal(t, 10.0, cfg.FallbackCosts.ByCategory["cabin"])
}

func TestLoad_MissingRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: local\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PricingDefaultsMatchReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_user: user\ndb_name: elevcalc\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	ratios, rates := pricing.DefaultRatios(), pricing.DefaultRates()
	assert.Equal(t, ratios.Labor, cfg.Pricing.LaborRatio)
	assert.Equal(t, ratios.Indirect, cfg.Pricing.IndirectRatio)
	assert.Equal(t, ratios.Installation, cfg.Pricing.InstallationRatio)
	assert.Equal(t, rates.Margin, cfg.Pricing.MarginRate)
	assert.Equal(t, rates.Commission, cfg.Pricing.CommissionRate)
	assert.Equal(t, rates.Tax.Default, cfg.Pricing.DefaultTaxRate)
}
