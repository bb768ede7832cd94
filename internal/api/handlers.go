// Package api exposes the dashboard session over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"stock-dashboard/internal/agents"
	"stock-dashboard/internal/analysis"
	"stock-dashboard/internal/analysis/indicators"
	"stock-dashboard/internal/dashboard"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/logging"
	"stock-dashboard/internal/marketdata"
	"stock-dashboard/internal/models"
	"stock-dashboard/internal/session"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	ctrl          *dashboard.Controller
	defaultMarket models.Market
	logger        zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(ctrl *dashboard.Controller, defaultMarket models.Market, logger zerolog.Logger) *Handler {
	if !defaultMarket.Valid() {
		defaultMarket = models.MarketForeign
	}
	return &Handler{
		ctrl:          ctrl,
		defaultMarket: defaultMarket,
		logger:        logger.With().Str("component", "api").Logger(),
	}
}

// SymbolRequest is the body of PUT /api/v1/symbol.
type SymbolRequest struct {
	Symbol   string `json:"symbol"`
	Market   string `json:"market,omitempty"`
	Lookback int    `json:"lookback,omitempty"`
}

// QuestionRequest is the body of POST /api/v1/question.
type QuestionRequest struct {
	Question string `json:"question"`
}

// AnalysisView is an analysis slot in the dashboard response.
type AnalysisView struct {
	Pending   bool     `json:"pending"`
	Question  string   `json:"question,omitempty"`
	Text      string   `json:"text,omitempty"`
	Citations []string `json:"citations,omitempty"`
	ErrorKind string   `json:"error_kind,omitempty"`
}

// IndicatorView holds the latest indicator values; undefined values are null.
type IndicatorView struct {
	Close *float64 `json:"close"`
	MA5   *float64 `json:"ma5"`
	MA20  *float64 `json:"ma20"`
	MA60  *float64 `json:"ma60"`
	RSI   *float64 `json:"rsi"`
}

// DashboardResponse is the JSON form of the session state.
type DashboardResponse struct {
	Symbol     string              `json:"symbol,omitempty"`
	Market     models.Market       `json:"market,omitempty"`
	Lookback   int                 `json:"lookback,omitempty"`
	Phase      session.Phase       `json:"phase"`
	Pending    bool                `json:"analysis_pending"`
	Error      string              `json:"error,omitempty"`
	Warning    string              `json:"warning,omitempty"`
	Company    *models.CompanyInfo `json:"company,omitempty"`
	Summary    *analysis.Summary   `json:"summary,omitempty"`
	Indicators *IndicatorView      `json:"indicators,omitempty"`
	Basic      *AnalysisView       `json:"basic_analysis,omitempty"`
	Custom     *AnalysisView       `json:"custom_analysis,omitempty"`
	Recent     []models.PriceBar   `json:"recent_bars,omitempty"`
}

// GetDashboard handles GET /api/v1/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, NewDashboardResponse(h.ctrl.State()))
}

// SelectSymbol handles PUT /api/v1/symbol. It switches the session, loads
// the data and waits for the automatic report.
func (h *Handler) SelectSymbol(w http.ResponseWriter, r *http.Request) {
	var req SymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if marketdata.CleanSymbol(req.Symbol) == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	market := h.defaultMarket
	if req.Market != "" {
		m, err := models.ParseMarket(req.Market)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		market = m
	}

	lookback := req.Lookback
	if lookback == 0 {
		lookback = models.DefaultLookback
	}
	if !models.ValidLookback(lookback) {
		http.Error(w, "lookback must be one of 7, 14, 30, 60, 90, 180, 365", http.StatusBadRequest)
		return
	}

	h.ctrl.SelectSymbol(req.Symbol, market, lookback)
	if err := h.ctrl.Refresh(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Str("symbol", req.Symbol).Msg("Refresh failed")
		respondJSON(w, statusFor(err), NewDashboardResponse(h.ctrl.State()))
		return
	}

	respondJSON(w, http.StatusOK, NewDashboardResponse(h.ctrl.State()))
}

// AskQuestion handles POST /api/v1/question
func (h *Handler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.ctrl.SubmitQuestion(r.Context(), req.Question); err != nil {
		logging.FromContext(r.Context()).Debug().Err(err).Msg("Question not answered")
		respondJSON(w, statusFor(err), NewDashboardResponse(h.ctrl.State()))
		return
	}

	respondJSON(w, http.StatusOK, NewDashboardResponse(h.ctrl.State()))
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func statusFor(err error) int {
	var cfgErr *apperrors.ConfigError
	switch {
	case apperrors.Is(err, apperrors.ErrInputValidation):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrNoSymbol), apperrors.Is(err, apperrors.ErrStaleResult):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.ErrDataNotFound), apperrors.Is(err, apperrors.ErrSymbolNotFound):
		return http.StatusNotFound
	case apperrors.As(err, &cfgErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// NewDashboardResponse converts a session snapshot for JSON output.
func NewDashboardResponse(st session.State) DashboardResponse {
	resp := DashboardResponse{
		Symbol:   st.Symbol,
		Market:   st.Market,
		Lookback: st.Lookback,
		Phase:    st.Phase,
		Pending:  st.AnalysisPending(),
		Error:    st.ErrorMessage(),
		Warning:  st.Warning,
	}
	if !st.Phase.HasData() {
		return resp
	}

	summary := st.Summary
	resp.Company = st.Info
	resp.Summary = &summary
	resp.Recent = st.Series.Tail(dashboard.TableRows)

	latest, _ := st.Indicators.Latest()
	resp.Indicators = &IndicatorView{
		Close: defined(latest.Close),
		MA5:   defined(latest.MA5),
		MA20:  defined(latest.MA20),
		MA60:  defined(latest.MA60),
		RSI:   defined(latest.RSI),
	}

	switch {
	case st.AnalysisErr != nil:
		resp.Basic = &AnalysisView{Text: apperrors.UserMessage(st.AnalysisErr)}
	case st.Basic != nil:
		resp.Basic = analysisView(*st.Basic, "")
	case st.BasicRequested:
		resp.Basic = &AnalysisView{Pending: true}
	}

	switch {
	case st.Custom != nil:
		resp.Custom = analysisView(*st.Custom, st.CustomQuestion)
	case st.AnalysisErr != nil && st.CustomQuestion != "":
		resp.Custom = &AnalysisView{Question: st.CustomQuestion, Text: apperrors.UserMessage(st.AnalysisErr)}
	case st.Phase == session.PhaseCustomPending:
		resp.Custom = &AnalysisView{Pending: true, Question: st.CustomQuestion}
	}
	return resp
}

func analysisView(res agents.Result, question string) *AnalysisView {
	v := &AnalysisView{
		Question:  question,
		Text:      res.Display(),
		Citations: res.Citations,
	}
	if res.Err != nil {
		v.ErrorKind = string(res.Err.Kind)
	}
	return v
}

func defined(v float64) *float64 {
	if !indicators.IsDefined(v) {
		return nil
	}
	return &v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
