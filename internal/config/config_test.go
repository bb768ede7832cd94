package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PERPLEXITY_API_KEY", "OPENAI_API_KEY", "STOCK_DASHBOARD_MARKET", "STOCK_DASHBOARD_LANGUAGE", "STOCK_DASHBOARD_ADDR"} {
		t.Setenv(k, "")
	}
}

func TestLoad_CreatesTemplatesAndUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.FileExists(t, filepath.Join(dir, "credentials.toml"))

	assert.Equal(t, "foreign", cfg.Market.Default)
	assert.Equal(t, models.DefaultLookback, cfg.Market.DefaultLookback)
	assert.Equal(t, "perplexity", cfg.Analysis.Provider)
	assert.Equal(t, "sonar-pro", cfg.Analysis.Model)
	assert.Equal(t, DefaultEndpoint, cfg.Analysis.Endpoint)
	assert.Equal(t, "zh", cfg.Analysis.Language)
	assert.Equal(t, DefaultTimeout, cfg.Analysis.Timeout)
	assert.Equal(t, models.MarketForeign, cfg.DefaultMarket())

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad_TemplateRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	first, err := Load(dir)
	require.NoError(t, err)
	second, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, first.Analysis, second.Analysis)
	assert.Equal(t, first.Market, second.Market)
	assert.Equal(t, 120*time.Second, second.Analysis.Timeout)
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[market]
default = "domestic"
default_lookback = 90

[analysis]
provider = "openai"
model = "gpt-4o"
language = "en"
timeout = "30s"
`)
	writeFile(t, dir, "credentials.toml", `
[openai]
api_key = "file-key"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, models.MarketDomestic, cfg.DefaultMarket())
	assert.Equal(t, 90, cfg.Market.DefaultLookback)
	assert.Equal(t, "openai", cfg.Analysis.Provider)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, "file-key", cfg.APIKey())
	assert.NoError(t, cfg.RequireCredential())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PERPLEXITY_API_KEY", "env-key")
	t.Setenv("STOCK_DASHBOARD_MARKET", "domestic")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey())
	assert.Equal(t, models.MarketDomestic, cfg.DefaultMarket())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"market", "[market]\ndefault = \"mars\"\n", "market.default"},
		{"lookback", "[market]\ndefault_lookback = 45\n", "market.default_lookback"},
		{"provider", "[analysis]\nprovider = \"bard\"\n", "analysis.provider"},
		{"language", "[analysis]\nlanguage = \"fr\"\n", "analysis.language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeFile(t, dir, "config.toml", tt.body)

			_, err := Load(dir)
			require.Error(t, err)
			var cfgErr *apperrors.ConfigError
			require.True(t, apperrors.As(err, &cfgErr))
			assert.Equal(t, tt.key, cfgErr.Key)
			assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
		})
	}
}

func TestRequireCredential(t *testing.T) {
	cfg := Default()
	err := cfg.RequireCredential()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingCredential))
	assert.Contains(t, err.Error(), "PERPLEXITY_API_KEY")

	cfg.Analysis.Provider = "openai"
	assert.Contains(t, cfg.RequireCredential().Error(), "OPENAI_API_KEY")

	cfg.Credentials.OpenAI.APIKey = "k"
	assert.NoError(t, cfg.RequireCredential())
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp/x", "config.toml"), ConfigPath("/tmp/x"))
	assert.Equal(t, filepath.Join(DefaultConfigDir(), "config.toml"), ConfigPath(""))
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0600))
}
