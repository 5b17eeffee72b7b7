// Package llm wraps an OpenAI-compatible chat completion endpoint behind a
// small Client interface, plus a Null client used when no provider is
// configured.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbourn/antiscam-chat-backend/internal/config"
)

// ErrNotConfigured is returned by the Null client.
var ErrNotConfigured = errors.New("llm: provider not configured")

// Role values for Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call. System is sent as the leading system
// message.
type Request struct {
	Purpose     string // metrics label: reply, emotion, support
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	JSON        bool // ask for a JSON object response
}

// Response is the first choice plus token accounting.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// TotalTokens is input plus output tokens.
func (r Response) TotalTokens() int { return r.InputTokens + r.OutputTokens }

// Client completes chat requests.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// New returns an OpenAI client, or Null when cfg.Provider is "none".
func New(cfg config.LLMConfig) Client {
	if cfg.Provider != "openai" {
		return Null{}
	}
	return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
}

// Null is the Client used when no LLM is configured.
type Null struct{}

func (Null) Complete(context.Context, Request) (Response, error) {
	return Response{}, ErrNotConfigured
}

// OpenAI talks to a /chat/completions endpoint through openai-go.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds a client. The timeout bounds each call end to end and the
// SDK's own retries are disabled.
func NewOpenAI(baseURL, apiKey, model string, timeout time.Duration) *OpenAI {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithHTTPClient(&http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

// Complete sends req and returns the first choice. Calls are not retried.
func (c *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toParams(req),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	out, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Response{}, fmt.Errorf("llm: status %d: %w", apiErr.StatusCode, err)
		}
		return Response{}, fmt.Errorf("llm: request failed: %w", err)
	}
	if len(out.Choices) == 0 {
		return Response{}, errors.New("llm: no choices returned")
	}
	return Response{
		Text:         out.Choices[0].Message.Content,
		InputTokens:  int(out.Usage.PromptTokens),
		OutputTokens: int(out.Usage.CompletionTokens),
	}, nil
}

func toParams(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}
