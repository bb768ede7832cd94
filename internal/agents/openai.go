package agents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/logging"
)

// DefaultOpenAIModel is used when the openai provider is selected without a model.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIClient implements Analyzer against any OpenAI-compatible endpoint.
// It does not receive citations.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	baseURL string
	logger  zerolog.Logger
}

// NewOpenAIClient creates a new OpenAI client. Endpoint, when set, is used as
// the API base URL.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, apperrors.NewConfigError("OPENAI_API_KEY", "API key is not set", apperrors.ErrMissingCredential)
	}

	config := openai.DefaultConfig(opts.APIKey)
	if opts.Endpoint != "" {
		config.BaseURL = opts.Endpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	model := opts.Model
	if model == "" || model == DefaultModel {
		model = DefaultOpenAIModel
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		baseURL: config.BaseURL,
		logger:  logging.WithOperation(opts.Logger, "analysis"),
	}, nil
}

// RequestAnalysis sends a system and a user message and returns the first choice.
func (c *OpenAIClient) RequestAnalysis(ctx context.Context, prompt, systemRole string) Result {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemRole},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		TopP:        TopP,
	})
	logging.LogAPICall(c.logger, "POST", c.baseURL+"/chat/completions", time.Since(start), err)
	if err != nil {
		return classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return failure(apperrors.KindEmptyResponse, "response has no choices", "", nil)
	}
	return Result{Narrative: resp.Choices[0].Message.Content}
}

func classifyOpenAIError(err error) Result {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return failure(apperrors.KindMalformedResponse, "response is not valid JSON", "", err)
	}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return failure(apperrors.KindTransport, "provider returned an error", "", err)
	}
	return failure(apperrors.KindTransport, "request failed", "", err)
}
