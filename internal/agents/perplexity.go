package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/logging"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// PerplexityClient implements Analyzer against the Perplexity chat-completions API.
type PerplexityClient struct {
	client   *resty.Client
	endpoint string
	model    string
	heading  string
	logger   zerolog.Logger
}

// NewPerplexityClient creates a new client. The API key is required.
func NewPerplexityClient(opts Options) (*PerplexityClient, error) {
	if opts.APIKey == "" {
		return nil, apperrors.NewConfigError("PERPLEXITY_API_KEY", "API key is not set", apperrors.ErrMissingCredential)
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	heading := opts.SourcesHeading
	if heading == "" {
		heading = phraseBook[LanguageChinese].sourcesHeading
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetAuthToken(opts.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")

	return &PerplexityClient{
		client:   client,
		endpoint: endpoint,
		model:    model,
		heading:  heading,
		logger:   logging.WithOperation(opts.Logger, "analysis"),
	}, nil
}

// Model returns the model identifier sent with every request.
func (c *PerplexityClient) Model() string {
	return c.model
}

// RequestAnalysis sends one system and one user message and folds the reply,
// including citations, into a Result.
func (c *PerplexityClient) RequestAnalysis(ctx context.Context, prompt, systemRole string) Result {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemRole},
			{Role: "user", Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		TopP:        TopP,
		Stream:      false,
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		logging.LogAPICall(c.logger, "POST", c.endpoint, time.Since(start), err)
		return failure(apperrors.KindTransport, "request failed", "", err)
	}

	raw := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		statusErr := fmt.Errorf("unexpected status %s", resp.Status())
		logging.LogAPICall(c.logger, "POST", c.endpoint, time.Since(start), statusErr)
		return failure(apperrors.KindTransport, statusErr.Error(), string(raw), nil)
	}
	logging.LogAPICall(c.logger, "POST", c.endpoint, time.Since(start), nil)

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return failure(apperrors.KindMalformedResponse, "response is not valid JSON", string(raw), err)
	}
	if len(parsed.Choices) == 0 {
		return failure(apperrors.KindEmptyResponse, "response has no choices", string(raw), nil)
	}
	first := parsed.Choices[0]
	if first.Message == nil {
		return failure(apperrors.KindMalformedResponse, "first choice has no message", string(raw), nil)
	}

	return Result{
		Narrative: withSources(first.Message.Content, c.heading, parsed.Citations),
		Citations: parsed.Citations,
	}
}
