package resilience

import (
	"context"

	"github.com/MrWong99/inventa/pkg/provider/llm"
)

// CompleterFallback implements [llm.Completer] with automatic failover across
// multiple completion backends. Each backend has its own circuit breaker; when
// the primary fails or its breaker is open, the next healthy fallback is tried.
type CompleterFallback struct {
	group *FallbackGroup[llm.Completer]
}

// Compile-time interface assertion.
var _ llm.Completer = (*CompleterFallback)(nil)

// NewCompleterFallback creates a [CompleterFallback] with primary as the
// preferred backend.
func NewCompleterFallback(primary llm.Completer, primaryName string, cfg FallbackConfig) *CompleterFallback {
	return &CompleterFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional completion backend as a fallback.
func (f *CompleterFallback) AddFallback(name string, completer llm.Completer) {
	f.group.AddFallback(name, completer)
}

// Complete sends the request to the first healthy backend and returns its
// response. If the primary fails, subsequent fallbacks are tried.
func (f *CompleterFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return ExecuteWithResult(f.group, func(c llm.Completer) (*llm.CompletionResponse, error) {
		return c.Complete(ctx, req)
	})
}
