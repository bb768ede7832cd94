package cli

import (
	"stock-dashboard/internal/agents"
	"stock-dashboard/internal/analysis"
	"stock-dashboard/internal/api"
	"stock-dashboard/internal/chart"
	"stock-dashboard/internal/dashboard"
	"stock-dashboard/internal/models"
	"stock-dashboard/internal/session"
)

// terminalView draws the dashboard on an Output.
type terminalView struct {
	out   *Output
	state session.State
}

var _ dashboard.View = (*terminalView)(nil)

// renderState draws state, or prints it as JSON in --json mode.
func renderState(out *Output, state session.State) error {
	if out.IsJSON() {
		return out.JSON(api.NewDashboardResponse(state))
	}
	dashboard.Render(&terminalView{out: out, state: state}, state)
	return nil
}

func (v *terminalView) Error(message string) {
	v.out.Error("✗ %s", message)
}

func (v *terminalView) Chart(symbol string, series *models.PriceSeries) {
	title := symbol
	if v.state.Info != nil {
		title = v.state.Info.DisplayName(symbol) + " (" + symbol + ")"
	}
	v.out.Section(title)
	c := chart.Candlestick(series, chart.Options{Color: v.out.ColorEnabled()})
	v.out.Printf("%s", c.String())
}

func (v *terminalView) Metrics(s analysis.Summary) {
	v.out.Println()
	v.out.Printf("  %-14s %s\n", "Latest close", v.out.BoldText(FormatPrice(s.LatestClose)))
	v.out.Printf("  %-14s %s\n", "Change", v.out.Signed(s.Change, FormatChange(s.Change, s.ChangePercent)))
	v.out.Printf("  %-14s %s\n", "Avg volume", FormatVolume(s.AverageVolume))

	if snap, err := v.state.Indicators.Latest(); err == nil {
		v.out.Printf("  %-14s MA5 %s  MA20 %s  MA60 %s  RSI %s\n", "Indicators",
			agents.FormatIndicator(snap.MA5),
			agents.FormatIndicator(snap.MA20),
			agents.FormatIndicator(snap.MA60),
			agents.FormatIndicator(snap.RSI))
	}
}

func (v *terminalView) BasicAnalysis(text string, pending bool) {
	v.out.Section("AI analysis")
	if pending {
		v.out.Dim("Analyzing...")
		return
	}
	v.out.Println(text)
}

func (v *terminalView) CustomWarning(message string) {
	v.out.Warning("⚠ %s", message)
}

func (v *terminalView) CustomAnalysis(question, text string, pending bool) {
	v.out.Section("Q: " + TruncateString(question, 60))
	if pending {
		v.out.Dim("Analyzing...")
		return
	}
	v.out.Println(text)
}

func (v *terminalView) Table(bars []models.PriceBar) {
	v.out.Section("Recent bars")
	table := NewTable(v.out, "Date", "Open", "High", "Low", "Close", "Volume")
	for _, b := range bars {
		table.AddRow(
			FormatDate(b.Date),
			FormatPrice(b.Open),
			FormatPrice(b.High),
			FormatPrice(b.Low),
			FormatPrice(b.Close),
			FormatInt(b.Volume),
		)
	}
	table.Render()
}
