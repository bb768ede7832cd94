package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-dashboard/internal/agents"
	"stock-dashboard/internal/api"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
	"stock-dashboard/internal/session"
)

type fakeFetcher struct {
	err     error
	symbols []string
	days    []int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context, symbol string, lookbackDays int) (*models.PriceSeries, *models.CompanyInfo, error) {
	f.symbols = append(f.symbols, symbol)
	f.days = append(f.days, lookbackDays)
	if f.err != nil {
		return nil, nil, f.err
	}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 30)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return &models.PriceSeries{Symbol: symbol, Bars: bars}, &models.CompanyInfo{Symbol: symbol, LongName: "Fake Corp"}, nil
}

type fakeAnalyzer struct {
	prompts []string
}

func (a *fakeAnalyzer) RequestAnalysis(ctx context.Context, prompt, systemRole string) agents.Result {
	a.prompts = append(a.prompts, prompt)
	return agents.Result{Narrative: "AI says hold", Citations: []string{"https://a.example"}}
}

// execute runs the CLI with an isolated config directory.
func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"PERPLEXITY_API_KEY", "OPENAI_API_KEY", "STOCK_DASHBOARD_MARKET", "STOCK_DASHBOARD_LANGUAGE", "STOCK_DASHBOARD_ADDR"} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	root := NewRootCmd(app)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--config", t.TempDir()))
	err := root.Execute()
	return stdout.String(), err
}

func decodeDashboard(t *testing.T, out string) api.DashboardResponse {
	t.Helper()
	var resp api.DashboardResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, &App{}, "version", "--json")
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, Version, body["version"])
}

func TestAnalyzeJSON(t *testing.T) {
	f := &fakeFetcher{}
	a := &fakeAnalyzer{}

	out, err := execute(t, &App{Fetcher: f, Analyzer: a}, "analyze", "aapl", "--json")
	require.NoError(t, err)

	resp := decodeDashboard(t, out)
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, session.PhaseBasicReady, resp.Phase)
	assert.Equal(t, []string{"AAPL"}, f.symbols)
	assert.Equal(t, []int{models.DefaultLookback}, f.days)
	require.NotNil(t, resp.Basic)
	assert.Contains(t, resp.Basic.Text, "AI says hold")
	assert.Equal(t, []string{"https://a.example"}, resp.Basic.Citations)
	require.Len(t, a.prompts, 1)
	assert.Contains(t, a.prompts[0], "Fake Corp")
}

func TestAnalyzeDomesticFlags(t *testing.T) {
	f := &fakeFetcher{}

	_, err := execute(t, &App{Fetcher: f, Analyzer: &fakeAnalyzer{}}, "analyze", "000001", "--market", "domestic", "--days", "90", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001.SZ"}, f.symbols)
	assert.Equal(t, []int{90}, f.days)
}

func TestAnalyzeInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad lookback", []string{"analyze", "AAPL", "--days", "45"}},
		{"bad market", []string{"analyze", "AAPL", "--market", "mars"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			_, err := execute(t, &App{Fetcher: f, Analyzer: &fakeAnalyzer{}}, tt.args...)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrInputValidation))
			assert.Empty(t, f.symbols)
		})
	}
}

func TestAnalyzeFetchError(t *testing.T) {
	f := &fakeFetcher{err: apperrors.NewFetchError("ZZZZ", "no price data returned", apperrors.ErrDataNotFound)}
	a := &fakeAnalyzer{}

	out, err := execute(t, &App{Fetcher: f, Analyzer: a}, "analyze", "ZZZZ", "--json")
	require.Error(t, err)

	resp := decodeDashboard(t, out)
	assert.Equal(t, session.PhaseError, resp.Phase)
	assert.Contains(t, resp.Error, "ZZZZ")
	assert.Nil(t, resp.Summary)
	assert.Empty(t, a.prompts)
}

func TestAnalyzeMissingCredential(t *testing.T) {
	f := &fakeFetcher{}

	out, err := execute(t, &App{Fetcher: f}, "analyze", "MSFT", "--json")
	require.NoError(t, err)

	resp := decodeDashboard(t, out)
	assert.Equal(t, session.PhaseDataReady, resp.Phase)
	require.NotNil(t, resp.Summary)
	require.NotNil(t, resp.Basic)
	assert.Contains(t, resp.Basic.Text, "PERPLEXITY_API_KEY")
	assert.Len(t, resp.Recent, 10)
}

func TestAnalyzeText(t *testing.T) {
	out, err := execute(t, &App{Fetcher: &fakeFetcher{}, Analyzer: &fakeAnalyzer{}}, "analyze", "AAPL")
	require.NoError(t, err)

	assert.Contains(t, out, "Fake Corp (AAPL)")
	assert.Contains(t, out, "Latest close")
	assert.Contains(t, out, "$129.00")
	assert.Contains(t, out, "AI says hold")
	assert.Contains(t, out, "Recent bars")
	assert.Contains(t, out, "2024-03-30")
}

func TestAsk(t *testing.T) {
	a := &fakeAnalyzer{}

	out, err := execute(t, &App{Fetcher: &fakeFetcher{}, Analyzer: a}, "ask", "AAPL", "is", "it", "cheap?", "--json")
	require.NoError(t, err)

	resp := decodeDashboard(t, out)
	assert.Equal(t, session.PhaseCustomReady, resp.Phase)
	require.NotNil(t, resp.Custom)
	assert.Equal(t, "is it cheap?", resp.Custom.Question)
	assert.Nil(t, resp.Basic)
	require.Len(t, a.prompts, 1)
	assert.Contains(t, a.prompts[0], "is it cheap?")
}

func TestAskBlankQuestion(t *testing.T) {
	a := &fakeAnalyzer{}

	out, err := execute(t, &App{Fetcher: &fakeFetcher{}, Analyzer: a}, "ask", "AAPL", "   ", "--json")
	require.Error(t, err)

	resp := decodeDashboard(t, out)
	assert.Equal(t, "请先输入您想要分析的问题", resp.Warning)
	assert.Nil(t, resp.Custom)
	assert.Empty(t, a.prompts)
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	root := NewRootCmd(&App{})
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config", "path", "--config", dir})

	require.NoError(t, root.Execute())
	assert.Equal(t, filepath.Join(dir, "config.toml")+"\n", stdout.String())
}

func TestConfigValidateJSON(t *testing.T) {
	out, err := execute(t, &App{}, "config", "validate", "--json")
	require.NoError(t, err)

	var body map[string]bool
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.True(t, body["valid"])
	assert.False(t, body["credential_set"])
}

func TestConfigShowHidesCredentials(t *testing.T) {
	t.Setenv("PERPLEXITY_API_KEY", "")
	out, err := execute(t, &App{}, "config", "show", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, "Credentials")
	assert.Contains(t, out, "sonar-pro")
}

func TestValidateSymbol(t *testing.T) {
	assert.NoError(t, validateSymbol("aapl"))
	assert.NoError(t, validateSymbol("600519"))
	assert.NoError(t, validateSymbol("BRK.B"))
	assert.Error(t, validateSymbol("  "))
	assert.Error(t, validateSymbol("AAPL MSFT"))
	assert.Error(t, validateSymbol("ABCDEFGHIJKLMNOPQ"))
	assert.Error(t, validateSymbol(42))
}

func TestLookbackOptions(t *testing.T) {
	for _, d := range models.Lookbacks {
		got, err := parseLookbackOption(lookbackOption(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := parseLookbackOption("45 days")
	assert.Error(t, err)
}
