package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// commandTimeout bounds a one-shot command: one fetch plus one analysis.
const commandTimeout = 3 * time.Minute

func newAnalyzeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Load a symbol and print the dashboard with its AI report",
		Long: `Load daily bars and fundamentals for a symbol, compute MA5, MA20, MA60
and RSI(14), draw the candlestick chart and request the automatic AI report.

A missing API key does not stop the data from loading; the report slot shows
the configuration problem instead.`,
		Example: `  dashboard analyze AAPL
  dashboard analyze 600519 --market domestic --days 90
  dashboard analyze MSFT --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.newOutput(cmd)
			market, lookback, err := app.selection(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			app.Controller.SelectSymbol(args[0], market, lookback)
			if !output.IsJSON() {
				output.Info("Loading %s (%s, %d days)...", strings.ToUpper(args[0]), market.Label(), lookback)
			}

			runErr := app.Controller.Refresh(ctx)
			if err := renderState(output, app.Controller.State()); err != nil {
				return err
			}
			return runErr
		},
	}
}

func newAskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <symbol> <question...>",
		Short: "Ask a free-text question about a symbol",
		Long: `Load a symbol and send a custom question together with its latest
indicators and fundamentals. The automatic report is not requested.`,
		Example: `  dashboard ask AAPL "Is the current trend sustainable?"
  dashboard ask 000001 现在适合买入吗 --market domestic`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.newOutput(cmd)
			market, lookback, err := app.selection(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			app.Controller.SelectSymbol(args[0], market, lookback)
			runErr := app.Controller.Load(ctx)
			if runErr == nil {
				runErr = app.Controller.SubmitQuestion(ctx, strings.Join(args[1:], " "))
			}
			if err := renderState(output, app.Controller.State()); err != nil {
				return err
			}
			return runErr
		},
	}
}
