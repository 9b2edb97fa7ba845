// Package mock provides a test double for the llm.Completer interface.
//
// Use Completer in unit tests to verify the transcripts the orchestrator
// sends and to feed controlled responses without a live backend. Configure
// the response fields before calling any method; mutating them during a
// concurrent call is the caller's responsibility.
//
// Example:
//
//	c := &mock.Completer{Responses: []string{`{"tool_name":"x","arguments":{}}`, "done"}}
//	resp, err := c.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/inventa/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Completer is a mock implementation of llm.Completer. Successive calls
// consume Responses in order; when the script is exhausted the last response
// repeats. Set Errs to inject a per-call error (nil entries succeed).
type Completer struct {
	mu sync.Mutex

	// Responses is the scripted sequence of response texts.
	Responses []string

	// Errs holds per-call errors, aligned with call order. A nil entry (or a
	// call index past the slice) means the call succeeds.
	Errs []error

	// Calls records every invocation of Complete in order.
	Calls []CompleteCall
}

// Complete implements llm.Completer.
func (c *Completer) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.Calls)
	// Snapshot the transcript so later mutation by the loop cannot alter the record.
	msgs := make([]llm.Message, len(req.Messages))
	copy(msgs, req.Messages)
	req.Messages = msgs
	c.Calls = append(c.Calls, CompleteCall{Ctx: ctx, Req: req})

	if n < len(c.Errs) && c.Errs[n] != nil {
		return nil, c.Errs[n]
	}

	if len(c.Responses) == 0 {
		return &llm.CompletionResponse{}, nil
	}
	idx := n
	if idx >= len(c.Responses) {
		idx = len(c.Responses) - 1
	}
	return &llm.CompletionResponse{Content: c.Responses[idx]}, nil
}

// CallCount returns the number of Complete invocations so far.
func (c *Completer) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
