// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	// Out receives console output; defaults to os.Stderr so it never mixes
	// with dashboard output on stdout.
	Out io.Writer
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "stock-dashboard", "logs", "dashboard.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		plain := !isTerminal(out)
		consoleWriter := zerolog.ConsoleWriter{
			Out:         out,
			NoColor:     plain,
			TimeFormat:  time.Kitchen,
			FormatLevel: levelFormatter(plain),
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File && cfg.FilePath != "" {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

var levelTags = map[string]string{
	"trace": "TRC",
	"debug": "DBG",
	"info":  "INF",
	"warn":  "WRN",
	"error": "ERR",
	"fatal": "FTL",
	"panic": "PNC",
}

var levelColors = map[string]color.Attribute{
	"debug": color.FgCyan,
	"info":  color.FgGreen,
	"warn":  color.FgYellow,
	"error": color.FgRed,
}

// levelFormatter renders levels as three-letter tags, colored unless plain.
func levelFormatter(plain bool) zerolog.Formatter {
	return func(i interface{}) string {
		level, ok := i.(string)
		if !ok {
			return "???"
		}
		tag, ok := levelTags[level]
		if !ok {
			tag = strings.ToUpper(level)
		}
		attr, known := levelColors[level]
		if plain || !known {
			return tag
		}
		c := color.New(attr)
		c.EnableColor()
		return c.Sprint(tag)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context. A context without one
// yields a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return &logger
	}
	nop := zerolog.Nop()
	return &nop
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogAPICall logs an outbound API call.
func LogAPICall(logger zerolog.Logger, method, endpoint string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "api_call").
		Str("method", method).
		Str("endpoint", endpoint).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("API call failed")
	} else {
		event.Msg("API call completed")
	}
}

// LogAnalysis logs a completed analysis request.
func LogAnalysis(logger zerolog.Logger, symbol, kind string, citations int, err error) {
	if err != nil {
		logger.Warn().
			Str("event", "analysis").
			Str("symbol", symbol).
			Str("kind", kind).
			Err(err).
			Msg("Analysis failed")
		return
	}
	logger.Info().
		Str("event", "analysis").
		Str("symbol", symbol).
		Str("kind", kind).
		Int("citations", citations).
		Msg("Analysis ready")
}

// LogStaleResult logs a result dropped because the symbol changed while it was in flight.
func LogStaleResult(logger zerolog.Logger, symbol, kind string, generation uint64) {
	logger.Info().
		Str("event", "stale_result").
		Str("symbol", symbol).
		Str("kind", kind).
		Uint64("generation", generation).
		Msg("Discarded result for a previous symbol")
}
