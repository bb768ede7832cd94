package dashboard

import (
	"stock-dashboard/internal/analysis"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
	"stock-dashboard/internal/session"
)

// TableRows is the number of most recent bars shown in the data table.
const TableRows = 10

// View is the output surface the dashboard is drawn on.
type View interface {
	Error(message string)
	Chart(symbol string, series *models.PriceSeries)
	Metrics(summary analysis.Summary)
	BasicAnalysis(text string, pending bool)
	CustomWarning(message string)
	CustomAnalysis(question, text string, pending bool)
	Table(bars []models.PriceBar)
}

// Render draws state onto view in dashboard order. A failed data stage shows
// only the error. Analysis failures appear in their narrative slot and never
// hide the chart, metrics or table.
func Render(view View, state session.State) {
	if state.Phase == session.PhaseError {
		view.Error(state.ErrorMessage())
		return
	}
	if !state.Phase.HasData() {
		return
	}

	view.Chart(state.Symbol, state.Series)
	view.Metrics(state.Summary)

	switch {
	case state.AnalysisErr != nil:
		view.BasicAnalysis(apperrors.UserMessage(state.AnalysisErr), false)
	case state.Basic != nil:
		view.BasicAnalysis(state.Basic.Display(), false)
	case state.BasicRequested:
		view.BasicAnalysis("", true)
	}

	if state.Warning != "" {
		view.CustomWarning(state.Warning)
	}
	switch {
	case state.Custom != nil:
		view.CustomAnalysis(state.CustomQuestion, state.Custom.Display(), false)
	case state.AnalysisErr != nil && state.CustomQuestion != "":
		view.CustomAnalysis(state.CustomQuestion, apperrors.UserMessage(state.AnalysisErr), false)
	case state.Phase == session.PhaseCustomPending:
		view.CustomAnalysis(state.CustomQuestion, "", true)
	}

	view.Table(state.Series.Tail(TableRows))
}
