package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marksheet/internal/config"
	"marksheet/internal/parser"
	"marksheet/internal/port"
)

const (
	providerName = "openai"
	defaultModel = "gpt-4o-mini"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ModelProviderConfig) (port.ModelInvoker, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.ModelInvoker using the OpenAI Chat Completions API.
type Client struct {
	model     string
	maxTokens int
	client    openaisdk.Client
}

// NewClient creates an OpenAI model client from a provider config.
func NewClient(cfg *config.ModelProviderConfig) *Client {
	return newClient(cfg, cfg.BaseURL)
}

// NewClientWithEndpoint creates a client pointing at a custom base URL (for testing).
func NewClientWithEndpoint(cfg *config.ModelProviderConfig, baseURL string) *Client {
	return newClient(cfg, baseURL)
}

func newClient(cfg *config.ModelProviderConfig, baseURL string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	// Retries are owned by the extraction protocol, so the SDK must not add its own.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		model:     model,
		maxTokens: maxTokens,
		client:    openaisdk.NewClient(opts...),
	}
}

func (c *Client) Invoke(ctx context.Context, prompt, rawText string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(prompt),
			openaisdk.UserMessage(parser.RawTextMessage(rawText)),
		},
		Temperature:         openaisdk.Float(0),
		MaxCompletionTokens: openaisdk.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(completion.Choices) == 0 {
		return "", parser.NewModelUnavailableError(providerName, http.StatusOK, fmt.Errorf("empty response from API: no choices"))
	}
	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", parser.NewModelUnavailableError(providerName, http.StatusOK,
			fmt.Errorf("empty response from API (finish reason %s)", completion.Choices[0].FinishReason))
	}
	return content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		baseErr := fmt.Errorf("openai API error: %s", apiErr.Message)
		if apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = parser.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return parser.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return parser.NewModelUnavailableError(providerName, apiErr.StatusCode, baseErr)
	}
	return parser.NewModelUnavailableError(providerName, 0, fmt.Errorf("calling openai API: %w", err))
}
