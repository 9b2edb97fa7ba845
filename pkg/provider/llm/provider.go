// Package llm defines the Completer interface for text-completion backends.
//
// A completer wraps a remote or local model API (e.g., OpenAI, Anthropic, or a
// local Ollama instance) and exposes a uniform interface for the chat
// orchestrator to send a role-tagged transcript and receive the next response
// text, without coupling to any specific SDK.
//
// Implementors must be safe for concurrent use: independent chat requests run
// their loops concurrently against a single shared Completer.
package llm

import "context"

// Message roles understood by all completion backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single entry in a conversation transcript.
type Message struct {
	// Role is one of RoleSystem, RoleUser, RoleAssistant, or RoleTool.
	Role string

	// Content is the text content of the message.
	Content string

	// ToolCallID identifies which tool invocation a RoleTool message answers.
	// Backends that require the field may synthesise a value when it is empty.
	ToolCallID string
}

// Usage holds token accounting information returned by the backend.
// Counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the backend needs to produce a response.
// Messages must be non-empty; a zero-value request is invalid.
type CompletionRequest struct {
	// Messages is the ordered conversation transcript. Insertion order is
	// semantically significant — it is the prompt sent on every call.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0].
	// Zero means use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int
}

// CompletionResponse is the backend's answer to a CompletionRequest.
type CompletionResponse struct {
	// Content is the full text of the model's reply, untrimmed.
	Content string

	// Usage contains token accounting for this request/response pair.
	// May be zero when the backend does not report usage.
	Usage Usage
}

// Completer is the abstraction over any text-completion backend.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly. Failures should be returned as (or wrapped around)
// [*Error] so that callers can distinguish timeouts from upstream API errors.
type Completer interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled or expires
	// before the completion arrives.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
