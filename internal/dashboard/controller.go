// Package dashboard drives the load and analysis pipeline for the single
// dashboard session.
package dashboard

import (
	"context"

	"github.com/rs/zerolog"

	"stock-dashboard/internal/agents"
	"stock-dashboard/internal/analysis"
	"stock-dashboard/internal/analysis/indicators"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/logging"
	"stock-dashboard/internal/marketdata"
	"stock-dashboard/internal/models"
	"stock-dashboard/internal/session"
)

// Analysis kinds used in logs.
const (
	KindBasic  = "basic"
	KindCustom = "custom"
)

// Controller is the only writer of the session state.
type Controller struct {
	fetcher     marketdata.Fetcher
	analyzer    agents.Analyzer
	analyzerErr error
	prompts     *agents.PromptBuilder
	engine      *indicators.Engine
	store       *session.Store
	logger      zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithAnalyzerError marks analysis as unavailable. Data loading still works
// and every analysis request shows err instead of a narrative.
func WithAnalyzerError(err error) Option {
	return func(c *Controller) { c.analyzerErr = err }
}

// NewController creates a controller. analyzer may be nil only together with
// WithAnalyzerError.
func NewController(fetcher marketdata.Fetcher, analyzer agents.Analyzer, prompts *agents.PromptBuilder, logger zerolog.Logger, opts ...Option) *Controller {
	if prompts == nil {
		prompts = agents.NewPromptBuilder(agents.LanguageChinese)
	}
	c := &Controller{
		fetcher:  fetcher,
		analyzer: analyzer,
		prompts:  prompts,
		engine:   indicators.NewDefaultEngine(),
		store:    session.NewStore(),
		logger:   logging.WithOperation(logger, "dashboard"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.analyzer == nil && c.analyzerErr == nil {
		c.analyzerErr = apperrors.NewConfigError("analysis.provider", "no analyzer configured", apperrors.ErrMissingCredential)
	}
	return c
}

// Prompts returns the prompt builder in use.
func (c *Controller) Prompts() *agents.PromptBuilder {
	return c.prompts
}

// State returns a snapshot of the session.
func (c *Controller) State() session.State {
	return c.store.Snapshot()
}

// SelectSymbol switches the session to a new symbol, market or lookback. The
// whole state is replaced so nothing from the previous symbol survives. It
// returns false when the input is blank or identical to the current
// selection, in which case nothing changes.
func (c *Controller) SelectSymbol(symbol string, market models.Market, lookback int) bool {
	symbol = marketdata.CleanSymbol(symbol)
	if symbol == "" {
		return false
	}
	if !market.Valid() {
		market = models.MarketForeign
	}
	if !models.ValidLookback(lookback) {
		lookback = models.DefaultLookback
	}

	cur := c.store.Snapshot()
	if cur.Symbol == symbol && cur.Market == market && cur.Lookback == lookback {
		return false
	}

	gen := c.store.Reset(symbol, market, lookback)
	c.logger.Info().
		Str("symbol", symbol).
		Str("market", string(market)).
		Int("lookback", lookback).
		Uint64("generation", gen).
		Msg("Symbol selected")
	return true
}

// Load fetches bars and fundamentals for the current symbol and computes the
// indicators. It does nothing when data for this symbol is already loaded or
// being loaded.
func (c *Controller) Load(ctx context.Context) error {
	snap := c.store.Snapshot()
	if snap.Symbol == "" {
		return apperrors.ErrNoSymbol
	}
	gen := snap.Generation
	logger := logging.WithSymbol(c.logger, snap.Symbol)

	claimed := false
	if err := c.store.Update(gen, func(st *session.State) {
		if st.Phase.HasData() || st.Phase == session.PhaseLoadingData {
			return
		}
		st.Phase = session.PhaseLoadingData
		st.Err = nil
		claimed = true
	}); err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	ticker := marketdata.NormalizeSymbol(snap.Symbol, snap.Market)
	series, info, err := c.fetcher.Fetch(ctx, ticker, snap.Lookback)
	if err != nil {
		logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to load market data")
		if uerr := c.store.Update(gen, func(st *session.State) {
			st.Phase = session.PhaseError
			st.Err = err
		}); uerr != nil {
			logging.LogStaleResult(c.logger, snap.Symbol, "data", gen)
		}
		return err
	}

	set, err := c.engine.Compute(ctx, series)
	if err != nil {
		logger.Warn().Err(err).Msg("Indicator engine failed, using sequential fallback")
		set = indicators.Compute(series)
	}
	summary, _ := analysis.Summarize(series)

	if err := c.store.Update(gen, func(st *session.State) {
		st.Series = series
		st.Info = info
		st.Indicators = set
		st.Summary = summary
		st.Phase = session.PhaseDataReady
	}); err != nil {
		logging.LogStaleResult(c.logger, snap.Symbol, "data", gen)
		return err
	}

	logger.Info().
		Str("ticker", ticker).
		Int("bars", series.Len()).
		Msg("Market data loaded")
	return nil
}

// RequestBasicAnalysis dispatches the automatic report. It runs at most once
// per loaded symbol; later calls return immediately.
func (c *Controller) RequestBasicAnalysis(ctx context.Context) error {
	snap := c.store.Snapshot()
	if !snap.Phase.HasData() {
		return apperrors.ErrNoSymbol
	}
	gen := snap.Generation

	if c.analyzerErr != nil {
		return c.markUnavailable(gen, nil)
	}

	claimed := false
	if err := c.store.Update(gen, func(st *session.State) {
		if st.BasicRequested {
			return
		}
		st.BasicRequested = true
		if st.Phase == session.PhaseDataReady {
			st.Phase = session.PhaseBasicPending
		}
		claimed = true
	}); err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	prompt := c.prompts.BuildBasicPrompt(c.request(snap))
	res := c.analyzer.RequestAnalysis(ctx, prompt, c.prompts.BasicSystemRole())
	logging.LogAnalysis(c.logger, snap.Symbol, KindBasic, len(res.Citations), analysisErr(res))

	if err := c.store.Update(gen, func(st *session.State) {
		st.Basic = &res
		if st.Phase == session.PhaseBasicPending {
			st.Phase = session.PhaseBasicReady
		}
	}); err != nil {
		logging.LogStaleResult(c.logger, snap.Symbol, KindBasic, gen)
		return err
	}
	return nil
}

// SubmitQuestion asks a free-text question about the loaded symbol. A blank
// question replaces the custom slot with a local warning and makes no
// request. Only the answer to the latest question is kept.
func (c *Controller) SubmitQuestion(ctx context.Context, question string) error {
	snap := c.store.Snapshot()
	if !snap.Phase.HasData() {
		return apperrors.ErrNoSymbol
	}
	gen := snap.Generation

	prompt, err := c.prompts.BuildCustomPrompt(c.request(snap), question)
	if err != nil {
		_ = c.store.Update(gen, func(st *session.State) {
			st.ClearCustom()
			st.Warning = c.prompts.EmptyQuestionWarning()
		})
		return err
	}

	if c.analyzerErr != nil {
		return c.markUnavailable(gen, func(st *session.State) {
			st.ClearCustom()
			st.CustomQuestion = question
			st.Warning = ""
		})
	}

	var seq uint64
	if err := c.store.Update(gen, func(st *session.State) {
		st.ClearCustom()
		st.CustomQuestion = question
		st.Warning = ""
		st.Phase = session.PhaseCustomPending
		seq = st.CustomSeq
	}); err != nil {
		return err
	}

	res := c.analyzer.RequestAnalysis(ctx, prompt, c.prompts.CustomSystemRole())
	logging.LogAnalysis(c.logger, snap.Symbol, KindCustom, len(res.Citations), analysisErr(res))

	superseded := false
	if err := c.store.Update(gen, func(st *session.State) {
		if st.CustomSeq != seq {
			superseded = true
			return
		}
		st.Custom = &res
		st.Phase = session.PhaseCustomReady
	}); err != nil {
		logging.LogStaleResult(c.logger, snap.Symbol, KindCustom, gen)
		return err
	}
	if superseded {
		c.logger.Debug().
			Str("symbol", snap.Symbol).
			Uint64("sequence", seq).
			Msg("Discarded answer to a replaced question")
	}
	return nil
}

// Refresh loads the current symbol and requests its automatic report.
// Analysis failures end up in the state, not in the returned error.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.Load(ctx); err != nil {
		return err
	}
	err := c.RequestBasicAnalysis(ctx)
	var cfgErr *apperrors.ConfigError
	if err != nil && !apperrors.As(err, &cfgErr) {
		return err
	}
	return nil
}

func (c *Controller) request(snap session.State) agents.AnalysisRequest {
	latest, err := snap.Indicators.Latest()
	if err != nil {
		logger := logging.WithSymbol(c.logger, snap.Symbol)
		logger.Warn().
			Err(err).
			Int("bars", snap.Series.Len()).
			Msg("No indicator is defined at the last bar")
	}
	return agents.AnalysisRequest{
		Symbol: snap.Symbol,
		Info:   snap.Info,
		Latest: latest,
	}
}

// markUnavailable records the analyzer error so it is shown in place of the
// narrative. fn, when set, runs in the same update.
func (c *Controller) markUnavailable(gen uint64, fn func(*session.State)) error {
	_ = c.store.Update(gen, func(st *session.State) {
		st.AnalysisErr = c.analyzerErr
		if fn != nil {
			fn(st)
		}
	})
	return c.analyzerErr
}

func analysisErr(res agents.Result) error {
	if res.Err == nil {
		return nil
	}
	return res.Err
}
