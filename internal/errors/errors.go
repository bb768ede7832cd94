// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrMissingCredential   = errors.New("missing API credential")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrDataNotFound        = errors.New("no price data returned")
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrInputValidation     = errors.New("input validation failed")
	ErrStaleResult         = errors.New("result belongs to a previous symbol")
	ErrNoSymbol            = errors.New("no symbol selected")
)

// FetchError represents a market-data retrieval failure.
type FetchError struct {
	Symbol  string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch error [%s]: %s: %v", e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch error [%s]: %s", e.Symbol, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown in place of the dashboard.
func (e *FetchError) UserMessage() string {
	return fmt.Sprintf("Unable to load data for %s, please check the symbol: %s", e.Symbol, e.Message)
}

// NewFetchError creates a new FetchError.
func NewFetchError(symbol, message string, err error) *FetchError {
	return &FetchError{
		Symbol:  symbol,
		Message: message,
		Err:     err,
	}
}

// ConfigError represents a missing or invalid configuration value.
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %s", e.Key, e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(key, message string, err error) *ConfigError {
	return &ConfigError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// AnalysisErrorKind classifies analysis API failures.
type AnalysisErrorKind string

const (
	KindTransport         AnalysisErrorKind = "transport"
	KindMalformedResponse AnalysisErrorKind = "malformed-response"
	KindEmptyResponse     AnalysisErrorKind = "empty-response"
)

// AnalysisError represents a failed analysis request. It is carried as a value
// and displayed in the narrative slot.
type AnalysisError struct {
	Kind    AnalysisErrorKind
	Message string
	// Body is the raw response body, when one was received.
	Body string
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis error [%s]: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("analysis error [%s]: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// UserMessage renders the error for display.
func (e *AnalysisError) UserMessage() string {
	switch e.Kind {
	case KindTransport:
		msg := "API call failed: " + e.Message
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		if e.Body != "" {
			msg += "\nResponse body: " + e.Body
		}
		return msg
	case KindMalformedResponse:
		return "The API returned data in an invalid format"
	case KindEmptyResponse:
		return "The API response did not contain any choices"
	default:
		return e.Error()
	}
}

// NewAnalysisError creates a new AnalysisError.
func NewAnalysisError(kind AnalysisErrorKind, message, body string, err error) *AnalysisError {
	return &AnalysisError{
		Kind:    kind,
		Message: message,
		Body:    body,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%q): %s", e.Field, fmt.Sprint(e.Value), e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// UserMessage returns a display string for any error in the taxonomy.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
