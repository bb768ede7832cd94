package cli

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
)

var (
	bannerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7C3AED")).
		Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard [symbol]",
		Short: "Interactive dashboard",
		Long: `Start an interactive session. Pick a market, a lookback window and a
symbol; the chart, metrics, AI report and recent bars are shown, then ask
follow-up questions or switch symbols until you quit.`,
		Example: `  dashboard dashboard
  dashboard dashboard 600519 --market domestic`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.newOutput(cmd)
			if output.IsJSON() {
				return apperrors.NewValidationError("json", true, "the interactive dashboard has no JSON mode")
			}

			market, lookback, err := app.selection(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			output.Println(bannerStyle.Render("Stock Dashboard v" + Version))
			output.Println(hintStyle.Render("Ctrl+C to quit at any prompt"))

			symbol := ""
			if len(args) == 1 {
				symbol = args[0]
			}
			err = runDashboard(cmd.Context(), app, output, symbol, market, lookback)
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		},
	}
}

// runDashboard is the interactive loop. It returns when the user quits or a
// prompt fails.
func runDashboard(ctx context.Context, app *App, output *Output, symbol string, market models.Market, lookback int) error {
	var err error
	if symbol == "" {
		if market, err = PromptForMarket(market); err != nil {
			return err
		}
		if lookback, err = PromptForLookback(lookback); err != nil {
			return err
		}
		if symbol, err = PromptForSymbol("", market); err != nil {
			return err
		}
	}

	show := func() {
		if app.Controller.SelectSymbol(symbol, market, lookback) {
			loadAndReport(ctx, app, output)
		}
		renderState(output, app.Controller.State())
	}
	show()

	for {
		action, err := PromptForAction()
		if err != nil {
			return err
		}

		switch action {
		case actionAsk:
			question, err := PromptForQuestion()
			if err != nil {
				return err
			}
			output.Dim("Analyzing...")
			if err := app.Controller.SubmitQuestion(ctx, question); err != nil && !apperrors.Is(err, apperrors.ErrInputValidation) {
				app.Logger.Debug().Err(err).Msg("Question not answered")
			}
			renderState(output, app.Controller.State())
		case actionSymbol:
			if symbol, err = PromptForSymbol(symbol, market); err != nil {
				return err
			}
			show()
		case actionMarket:
			if market, err = PromptForMarket(market); err != nil {
				return err
			}
			show()
		case actionDays:
			if lookback, err = PromptForLookback(lookback); err != nil {
				return err
			}
			show()
		case actionRefresh:
			renderState(output, app.Controller.State())
		case actionQuit:
			return nil
		}
	}
}

// loadAndReport loads the selected symbol and requests the automatic report.
// Failures are kept in the session state and shown by the next render.
func loadAndReport(ctx context.Context, app *App, output *Output) {
	if err := app.Controller.Load(ctx); err != nil {
		return
	}
	output.Dim("Requesting AI report...")
	if err := app.Controller.RequestBasicAnalysis(ctx); err != nil {
		app.Logger.Debug().Err(err).Msg("Automatic report unavailable")
	}
}
