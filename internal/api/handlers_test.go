package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-dashboard/internal/agents"
	"stock-dashboard/internal/dashboard"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
	"stock-dashboard/internal/session"
)

type stubFetcher struct {
	err     error
	symbols []string
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(ctx context.Context, symbol string, lookbackDays int) (*models.PriceSeries, *models.CompanyInfo, error) {
	f.symbols = append(f.symbols, symbol)
	if f.err != nil {
		return nil, nil, f.err
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 25)
	for i := range bars {
		c := float64(50 + i)
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 10}
	}
	return &models.PriceSeries{Symbol: symbol, Bars: bars}, &models.CompanyInfo{Symbol: symbol, LongName: "Test Co"}, nil
}

type stubAnalyzer struct {
	calls int
}

func (a *stubAnalyzer) RequestAnalysis(ctx context.Context, prompt, systemRole string) agents.Result {
	a.calls++
	return agents.Result{Narrative: "narrative", Citations: []string{"https://example.com"}}
}

func newTestServer(t *testing.T, f *stubFetcher, a *stubAnalyzer) *httptest.Server {
	t.Helper()
	ctrl := dashboard.NewController(f, a, agents.NewPromptBuilder(agents.LanguageChinese), zerolog.Nop())
	srv := httptest.NewServer(SetupRoutes(NewHandler(ctrl, models.MarketForeign, zerolog.Nop())))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, DashboardResponse) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out DashboardResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, &stubAnalyzer{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestGetDashboard_Empty(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, &stubAnalyzer{})

	resp, out := do(t, http.MethodGet, srv.URL+"/api/v1/dashboard", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.PhaseEmpty, out.Phase)
	assert.Nil(t, out.Summary)
}

func TestSelectSymbol(t *testing.T) {
	f := &stubFetcher{}
	a := &stubAnalyzer{}
	srv := newTestServer(t, f, a)

	resp, out := do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":"600519","market":"domestic","lookback":60}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"600519.SS"}, f.symbols)
	assert.Equal(t, "600519", out.Symbol)
	assert.Equal(t, models.MarketDomestic, out.Market)
	assert.Equal(t, 60, out.Lookback)
	assert.Equal(t, session.PhaseBasicReady, out.Phase)
	require.NotNil(t, out.Indicators)
	assert.Nil(t, out.Indicators.MA60)
	require.NotNil(t, out.Indicators.MA20)
	assert.InDelta(t, 64.5, *out.Indicators.MA20, 1e-9)
	require.NotNil(t, out.Basic)
	assert.Contains(t, out.Basic.Text, "narrative")
	assert.Equal(t, []string{"https://example.com"}, out.Basic.Citations)
	assert.Len(t, out.Recent, dashboard.TableRows)

	// The same selection again does not trigger a second report.
	do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":"600519","market":"domestic","lookback":60}`)
	assert.Equal(t, 1, a.calls)
}

func TestSelectSymbol_BadRequests(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, &stubAnalyzer{})

	for _, body := range []string{
		`not json`,
		`{"symbol":""}`,
		`{"symbol":"   "}`,
		`{"symbol":"AAPL","market":"mars"}`,
		`{"symbol":"AAPL","lookback":45}`,
	} {
		resp, _ := do(t, http.MethodPut, srv.URL+"/api/v1/symbol", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestSelectSymbol_FetchError(t *testing.T) {
	f := &stubFetcher{err: apperrors.NewFetchError("ZZZZ", "no price data returned", apperrors.ErrDataNotFound)}
	a := &stubAnalyzer{}
	srv := newTestServer(t, f, a)

	resp, out := do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":"zzzz"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, session.PhaseError, out.Phase)
	assert.Contains(t, out.Error, "ZZZZ")
	assert.Zero(t, a.calls)
}

func TestAskQuestion(t *testing.T) {
	a := &stubAnalyzer{}
	srv := newTestServer(t, &stubFetcher{}, a)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/v1/question", `{"question":"why?"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":"AAPL"}`)

	resp, out := do(t, http.MethodPost, srv.URL+"/api/v1/question", `{"question":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "请先输入您想要分析的问题", out.Warning)
	assert.Equal(t, 1, a.calls)

	resp, out = do(t, http.MethodPost, srv.URL+"/api/v1/question", `{"question":"现在适合买入吗？"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.PhaseCustomReady, out.Phase)
	require.NotNil(t, out.Custom)
	assert.Equal(t, "现在适合买入吗？", out.Custom.Question)
	assert.Empty(t, out.Warning)
	assert.Equal(t, 2, a.calls)
}

func TestSelectSymbol_BlankKeepsCurrentSymbol(t *testing.T) {
	f := &stubFetcher{}
	srv := newTestServer(t, f, &stubAnalyzer{})

	do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":"AAPL"}`)
	resp, _ := do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":" \t "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, out := do(t, http.MethodGet, srv.URL+"/api/v1/dashboard", "")
	assert.Equal(t, "AAPL", out.Symbol)
	assert.Equal(t, []string{"AAPL"}, f.symbols)
}

func TestMissingCredentialInBothSlots(t *testing.T) {
	credErr := apperrors.NewConfigError("PERPLEXITY_API_KEY", "API key is not set", apperrors.ErrMissingCredential)
	ctrl := dashboard.NewController(&stubFetcher{}, nil, agents.NewPromptBuilder(agents.LanguageChinese), zerolog.Nop(), dashboard.WithAnalyzerError(credErr))
	srv := httptest.NewServer(SetupRoutes(NewHandler(ctrl, models.MarketForeign, zerolog.Nop())))
	t.Cleanup(srv.Close)

	resp, out := do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":"AAPL"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out.Basic)
	assert.Contains(t, out.Basic.Text, "PERPLEXITY_API_KEY")
	assert.False(t, out.Pending)

	resp, out = do(t, http.MethodPost, srv.URL+"/api/v1/question", `{"question":"why?"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NotNil(t, out.Custom)
	assert.Equal(t, "why?", out.Custom.Question)
	assert.Contains(t, out.Custom.Text, "PERPLEXITY_API_KEY")
	assert.False(t, out.Custom.Pending)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubFetcher{}, &stubAnalyzer{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/v1/dashboard"},
		{http.MethodGet, "/api/v1/symbol"},
		{http.MethodPut, "/api/v1/question"},
		{http.MethodPost, "/health"},
	}
	for _, tt := range tests {
		resp, _ := do(t, tt.method, srv.URL+tt.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, tt.method+" "+tt.path)
	}

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// lockedBuffer is written by the server goroutine and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRequestLogger(t *testing.T) {
	var buf lockedBuffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	f := &stubFetcher{err: apperrors.NewFetchError("ZZZZ", "no price data returned", apperrors.ErrDataNotFound)}
	ctrl := dashboard.NewController(f, &stubAnalyzer{}, agents.NewPromptBuilder(agents.LanguageChinese), zerolog.Nop())
	srv := httptest.NewServer(SetupRoutes(NewHandler(ctrl, models.MarketForeign, logger)))
	t.Cleanup(srv.Close)

	do(t, http.MethodPut, srv.URL+"/api/v1/symbol", `{"symbol":"ZZZZ"}`)

	out := buf.String()
	assert.Contains(t, out, "Refresh failed")
	assert.Contains(t, out, `"path":"/api/v1/symbol"`)
	assert.Contains(t, out, `"method":"PUT"`)
	assert.Contains(t, out, "Request handled")
	assert.Contains(t, out, `"status":404`)
}
