package llm

import (
	"context"
	"time"
)

// timeoutCompleter bounds every completion call with a fixed deadline.
type timeoutCompleter struct {
	next Completer
	d    time.Duration
}

var _ Completer = (*timeoutCompleter)(nil)

// NewTimeoutCompleter wraps next so every Complete call runs under a deadline
// of d. Deadline hits surface as an [Error] with [KindTimeout]. When d is not
// positive, next is returned unchanged.
func NewTimeoutCompleter(next Completer, d time.Duration) Completer {
	if d <= 0 {
		return next
	}
	return &timeoutCompleter{next: next, d: d}
}

func (t *timeoutCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	resp, err := t.next.Complete(ctx, req)
	if err != nil {
		return nil, Wrap(err)
	}
	return resp, nil
}
