// Package cli provides the command-line interface for the stock dashboard.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-dashboard/internal/agents"
	"stock-dashboard/internal/config"
	"stock-dashboard/internal/dashboard"
	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/logging"
	"stock-dashboard/internal/marketdata"
	"stock-dashboard/internal/models"
	"stock-dashboard/internal/security"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies. Fields left nil are built from the
// configuration when a command runs.
type App struct {
	ConfigDir  string
	Config     *config.Config
	Logger     zerolog.Logger
	Fetcher    marketdata.Fetcher
	Analyzer   agents.Analyzer
	Prompts    *agents.PromptBuilder
	Controller *dashboard.Controller
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}

	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Stock dashboard - price charts, indicators and AI analysis",
		Long: `Stock dashboard loads daily price history for a symbol, computes moving
averages and RSI, draws a candlestick chart and asks an AI research API for
a narrative report with cited sources.

Domestic symbols (6-digit A-share codes) are mapped to Shanghai or Shenzhen
listings automatically.

Use 'dashboard <command> --help' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stock-dashboard)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("market", "", "market: foreign or domestic (default from config)")
	rootCmd.PersistentFlags().Int("days", 0, "lookback in days: 7, 14, 30, 60, 90, 180 or 365 (default from config)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newAskCmd(app))
	rootCmd.AddCommand(newDashboardCmd(app))
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

// init loads configuration and wires the controller.
func (app *App) init(cmd *cobra.Command) error {
	if app.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		if dir == "" {
			dir = app.ConfigDir
		}
		if dir == "" {
			dir = config.DefaultConfigDir()
		}
		app.ConfigDir = dir

		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		app.Config = cfg
		app.Logger = newLogger(cfg, dir, cmd)
	}

	// Handle debug flag
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		app.Logger = app.Logger.Level(zerolog.DebugLevel)
	}

	if app.Controller != nil {
		return nil
	}

	if app.Fetcher == nil {
		app.Fetcher = marketdata.NewYahooFetcher(app.Logger)
	}
	if app.Prompts == nil {
		app.Prompts = agents.NewPromptBuilder(agents.Language(app.Config.Analysis.Language))
	}

	var opts []dashboard.Option
	if app.Analyzer == nil {
		analyzer, err := agents.NewAnalyzer(agents.Options{
			Provider:       app.Config.Analysis.Provider,
			APIKey:         app.Config.APIKey(),
			Model:          app.Config.Analysis.Model,
			Endpoint:       app.Config.Analysis.Endpoint,
			Timeout:        app.Config.Analysis.Timeout,
			SourcesHeading: app.Prompts.SourcesHeading(),
			Logger:         app.Logger,
		})
		if err != nil {
			app.Logger.Warn().Err(err).Msg("AI analysis unavailable")
			opts = append(opts, dashboard.WithAnalyzerError(err))
		} else {
			app.Analyzer = analyzer
			app.Logger.Debug().Str("provider", app.Config.Analysis.Provider).Msg("Analyzer initialized")
		}
	}

	app.Controller = dashboard.NewController(app.Fetcher, app.Analyzer, app.Prompts, app.Logger, opts...)
	return nil
}

func newLogger(cfg *config.Config, dir string, cmd *cobra.Command) zerolog.Logger {
	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.File = cfg.Log.File
	logCfg.FilePath = filepath.Join(dir, "logs", "dashboard.log")
	logCfg.Out = cmd.ErrOrStderr()
	if cfg.Log.MaxSize > 0 {
		logCfg.MaxSize = cfg.Log.MaxSize
	}
	if cfg.Log.MaxBackups > 0 {
		logCfg.MaxBackups = cfg.Log.MaxBackups
	}
	if cfg.Log.MaxAge > 0 {
		logCfg.MaxAge = cfg.Log.MaxAge
	}
	return logging.NewLoggerWithConfig(logCfg)
}

// selection resolves the --market and --days flags against the config.
func (app *App) selection(cmd *cobra.Command) (models.Market, int, error) {
	market := app.Config.DefaultMarket()
	if raw, _ := cmd.Flags().GetString("market"); raw != "" {
		m, err := models.ParseMarket(raw)
		if err != nil {
			return "", 0, apperrors.NewValidationError("market", raw, err.Error())
		}
		market = m
	}

	lookback := app.Config.Market.DefaultLookback
	if days, _ := cmd.Flags().GetInt("days"); days != 0 {
		if !models.ValidLookback(days) {
			return "", 0, apperrors.NewValidationError("days", days, "must be one of 7, 14, 30, 60, 90, 180, 365")
		}
		lookback = days
	}
	return market, lookback, nil
}

// newOutput creates an Output honoring ui.color_enabled.
func (app *App) newOutput(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if app.Config != nil && !app.Config.UI.ColorEnabled {
		out.SetColor(false)
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Stock Dashboard v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.newOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.newOutput(cmd)
			path := config.ConfigPath(app.ConfigDir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.newOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			credErr := app.Config.RequireCredential()
			if output.IsJSON() {
				return output.JSON(map[string]bool{
					"valid":          true,
					"credential_set": credErr == nil,
				})
			}
			output.Success("✓ Configuration is valid")
			if credErr != nil {
				output.Warning("⚠ %v", credErr)
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Market")
	output.Printf("  Default market:   %s\n", cfg.DefaultMarket().Label())
	output.Printf("  Default lookback: %d days\n", cfg.Market.DefaultLookback)
	output.Println()

	output.Bold("Analysis")
	output.Printf("  Provider:         %s\n", cfg.Analysis.Provider)
	output.Printf("  Model:            %s\n", cfg.Analysis.Model)
	output.Printf("  Endpoint:         %s\n", cfg.Analysis.Endpoint)
	output.Printf("  Language:         %s\n", cfg.Analysis.Language)
	output.Printf("  Timeout:          %s\n", cfg.Analysis.Timeout)
	if key := cfg.APIKey(); key != "" {
		output.Printf("  API key:          %s\n", security.MaskCredential(key))
	} else {
		output.Printf("  API key:          %s\n", output.Yellow("not set"))
	}
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:          %s\n", cfg.Server.Addr)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Log.Level)
	output.Printf("  File:             %v\n", cfg.Log.File)
}
