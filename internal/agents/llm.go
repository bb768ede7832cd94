// Package agents builds analysis prompts and requests narrative analyses from
// a chat-completion API.
package agents

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/security"
)

// Fixed request parameters shared by every provider.
const (
	Temperature = 0.2
	MaxTokens   = 4096
	TopP        = 0.9
)

// Provider names.
const (
	ProviderPerplexity = "perplexity"
	ProviderOpenAI     = "openai"
)

// Defaults for the Perplexity provider.
const (
	DefaultModel    = "sonar-pro"
	DefaultEndpoint = "https://api.perplexity.ai/chat/completions"
	DefaultTimeout  = 120 * time.Second
)

// Result is the outcome of one analysis request. Exactly one of Narrative or
// Err is meaningful.
type Result struct {
	// Narrative is the generated text with the sources section appended.
	Narrative string
	// Citations are the source references in the order received.
	Citations []string
	Err       *apperrors.AnalysisError
}

// OK reports whether the request produced a narrative.
func (r Result) OK() bool {
	return r.Err == nil
}

// Display returns the text for the narrative slot: the narrative itself or
// the error message.
func (r Result) Display() string {
	if r.Err != nil {
		return r.Err.UserMessage()
	}
	return r.Narrative
}

// Analyzer sends a prompt to a completion API. Failures are reported inside
// the Result, never as a separate error.
type Analyzer interface {
	RequestAnalysis(ctx context.Context, prompt, systemRole string) Result
}

// Options configures NewAnalyzer.
type Options struct {
	Provider       string
	APIKey         string
	Model          string
	Endpoint       string
	Timeout        time.Duration
	SourcesHeading string
	Logger         zerolog.Logger
}

// NewAnalyzer creates the analyzer for opts.Provider. A missing credential or
// unknown provider is a ConfigError returned before any request is made.
func NewAnalyzer(opts Options) (Analyzer, error) {
	switch opts.Provider {
	case "", ProviderPerplexity:
		return NewPerplexityClient(opts)
	case ProviderOpenAI:
		return NewOpenAIClient(opts)
	default:
		return nil, apperrors.NewConfigError("analysis.provider", "unknown provider "+opts.Provider, nil)
	}
}

// withSources appends the citation list below the narrative, one per line,
// preserving order.
func withSources(narrative, heading string, citations []string) string {
	if len(citations) == 0 {
		return narrative
	}
	var sb strings.Builder
	sb.WriteString(narrative)
	sb.WriteString("\n\n")
	sb.WriteString(heading)
	sb.WriteString("\n")
	for _, c := range citations {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return sb.String()
}

func failure(kind apperrors.AnalysisErrorKind, message, body string, err error) Result {
	return Result{Err: apperrors.NewAnalysisError(kind, message, security.Redact(body), err)}
}
