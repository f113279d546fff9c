package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	"github.com/Noah-Banjo/lr-schoolbot/pkg/config"
	goopenai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the upstream answers without a choice.
var ErrEmptyCompletion = errors.New("chat completion returned no choices")

// Client implements providers.ChatProvider against the chat-completions API.
// Each call is a single request; failures are returned to the caller as-is.
type Client struct {
	client           *goopenai.Client
	model            string
	temperature      float32
	presencePenalty  float32
	frequencyPenalty float32
	metrics          *observability.Metrics
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig, metrics *observability.Metrics) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = goopenai.GPT3Dot5Turbo
	}

	return &Client{
		client:           goopenai.NewClientWithConfig(clientCfg),
		model:            model,
		temperature:      cfg.Temperature,
		presencePenalty:  cfg.PresencePenalty,
		frequencyPenalty: cfg.FrequencyPenalty,
		metrics:          metrics,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the conversation and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []providers.ChatMessage) (string, error) {
	ctx, span := observability.StartSpan(ctx, "openai.chat_completion")
	defer span.End()

	req := goopenai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         toOpenAIMessages(messages),
		Temperature:      c.temperature,
		PresencePenalty:  c.presencePenalty,
		FrequencyPenalty: c.frequencyPenalty,
	}

	// Single call, no retry; the caller reports failures to the user
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	// An empty choice list counts as a failed request
	if err == nil && len(resp.Choices) == 0 {
		err = ErrEmptyCompletion
	}
	observability.RecordChatRequest(ctx, c.metrics, c.model, time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return "", err
	}

	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []providers.ChatMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

var _ providers.ChatProvider = (*Client)(nil)
