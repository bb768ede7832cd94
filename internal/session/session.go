// Package session holds the dashboard's single session state and guards it
// against results that arrive after the symbol changed.
package session

import (
	"sync"

	"stock-dashboard/internal/agents"
	"stock-dashboard/internal/analysis"
	"stock-dashboard/internal/analysis/indicators"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
)

// Phase is the dashboard lifecycle stage.
type Phase string

const (
	PhaseEmpty         Phase = "empty"
	PhaseLoadingData   Phase = "loading-data"
	PhaseDataReady     Phase = "data-ready"
	PhaseBasicPending  Phase = "basic-analysis-pending"
	PhaseBasicReady    Phase = "basic-analysis-ready"
	PhaseCustomPending Phase = "custom-analysis-pending"
	PhaseCustomReady   Phase = "custom-analysis-ready"
	PhaseError         Phase = "error"
)

// HasData reports whether the phase implies a loaded price series.
func (p Phase) HasData() bool {
	switch p {
	case PhaseDataReady, PhaseBasicPending, PhaseBasicReady, PhaseCustomPending, PhaseCustomReady:
		return true
	}
	return false
}

// State is one session's data. A new symbol always starts from a fresh State.
type State struct {
	Generation uint64
	Symbol     string
	Market     models.Market
	Lookback   int
	Phase      Phase

	Series     *models.PriceSeries
	Info       *models.CompanyInfo
	Indicators *indicators.Set
	Summary    analysis.Summary

	// BasicRequested is set once the automatic report has been dispatched
	// for this symbol.
	BasicRequested bool
	Basic          *agents.Result
	CustomQuestion string
	Custom         *agents.Result
	// CustomSeq identifies the latest question. Answers carrying an older
	// sequence number are dropped.
	CustomSeq uint64

	// Warning is a local, non-fatal message such as a blank question.
	Warning string
	// Err is set when the data stage failed.
	Err error
	// AnalysisErr is set when no analysis can be requested at all, such as a
	// missing credential. It is shown in place of the narrative.
	AnalysisErr error
}

// ErrorMessage returns the display text for Err.
func (s State) ErrorMessage() string {
	return apperrors.UserMessage(s.Err)
}

// AnalysisPending reports whether any analysis request is in flight.
func (s State) AnalysisPending() bool {
	return (s.BasicRequested && s.Basic == nil && s.AnalysisErr == nil) || s.Phase == PhaseCustomPending
}

// ClearCustom empties the custom slot and invalidates any question still in
// flight. The phase falls back to the automatic report's stage.
func (s *State) ClearCustom() {
	s.CustomSeq++
	s.CustomQuestion = ""
	s.Custom = nil
	if s.Phase == PhaseCustomPending || s.Phase == PhaseCustomReady {
		switch {
		case s.Basic != nil:
			s.Phase = PhaseBasicReady
		case s.BasicRequested:
			s.Phase = PhaseBasicPending
		default:
			s.Phase = PhaseDataReady
		}
	}
}

// Store owns the State. All mutation goes through Reset or Update.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore creates a store in the empty phase.
func NewStore() *Store {
	return &Store{state: State{Phase: PhaseEmpty}}
}

// Reset replaces the whole state for a new symbol and returns its generation.
// Any result still in flight for an older generation will be rejected.
func (s *Store) Reset(symbol string, market models.Market, lookback int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.state.Generation + 1
	s.state = State{
		Generation: gen,
		Symbol:     symbol,
		Market:     market,
		Lookback:   lookback,
		Phase:      PhaseEmpty,
	}
	return gen
}

// Update applies fn when gen is still current. It returns ErrStaleResult otherwise.
func (s *Store) Update(gen uint64, fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.state.Generation {
		return apperrors.ErrStaleResult
	}
	fn(&s.state)
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Generation returns the current generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Generation
}
