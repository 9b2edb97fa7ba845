// Package openai provides a completion backend using the OpenAI API, or any
// OpenAI-compatible endpoint (llama.cpp, vLLM, Ollama's /v1 surface) selected
// via WithBaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/inventa/pkg/provider/llm"
)

// Completer implements llm.Completer using the OpenAI chat completions API.
type Completer struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the completer.
type config struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Completer.
type Option func(*config)

// WithAPIKey sets the bearer token sent on all requests. Local
// OpenAI-compatible backends typically require none.
func WithAPIKey(key string) Option {
	return func(c *config) {
		c.apiKey = key
	}
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout. A request exceeding it fails
// with an [llm.Error] of kind [llm.KindTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI-backed Completer.
func New(model string, opts ...Option) (*Completer, error) {
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{}
	if cfg.apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.apiKey))
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Completer{client: client, model: model}, nil
}

// Complete implements llm.Completer.
func (c *Completer) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, fmt.Errorf("openai: build params: %w", err)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &llm.Error{Kind: llm.KindOther, Err: errors.New("openai: empty choices in response")}
	}

	choice := resp.Choices[0]
	return &llm.CompletionResponse{
		Content: choice.Message.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// classify maps an SDK error to the shared llm error taxonomy.
func classify(err error) *llm.Error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return &llm.Error{
			Kind:   llm.KindUpstream,
			Status: apiErr.StatusCode,
			Body:   apiErr.RawJSON(),
			Err:    err,
		}
	}
	return llm.Wrap(err)
}

// buildParams converts a CompletionRequest into OpenAI SDK params.
func (c *Completer) buildParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	var messages []oai.ChatCompletionMessageParamUnion

	for i, m := range req.Messages {
		msg, err := convertMessage(m, i)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, msg)
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}

	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	return params, nil
}

// convertMessage converts an llm.Message to an OpenAI SDK message param.
// idx is the message's transcript position, used to synthesise a tool call ID
// when the transcript carries none (the text-based tool protocol does not
// assign native tool-call IDs, but the API requires the field).
func convertMessage(m llm.Message, idx int) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case llm.RoleSystem:
		return oai.SystemMessage(m.Content), nil

	case llm.RoleUser:
		return oai.UserMessage(m.Content), nil

	case llm.RoleAssistant:
		return oai.AssistantMessage(m.Content), nil

	case llm.RoleTool:
		id := m.ToolCallID
		if id == "" {
			id = fmt.Sprintf("call_%d", idx)
		}
		return oai.ToolMessage(m.Content, id), nil

	default:
		return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai: unknown message role %q", m.Role)
	}
}
