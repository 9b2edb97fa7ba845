package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a completion failure.
type ErrorKind int

const (
	// KindOther covers failures that are neither a timeout nor a classified
	// upstream API error (e.g., connection refused, malformed response body).
	KindOther ErrorKind = iota

	// KindTimeout means the request exceeded its deadline before a response
	// arrived.
	KindTimeout

	// KindUpstream means the backend answered with a non-success status.
	// Status and Body carry the upstream detail.
	KindUpstream
)

// String returns the human-readable name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUpstream:
		return "upstream"
	default:
		return "other"
	}
}

// Error is the classified failure type returned by Completer implementations.
type Error struct {
	// Kind distinguishes timeouts from upstream API errors.
	Kind ErrorKind

	// Status is the upstream HTTP status code when Kind is KindUpstream,
	// zero otherwise.
	Status int

	// Body is the upstream response body (or its prefix) when available.
	Body string

	// Err is the underlying transport or SDK error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("llm: request timed out: %v", e.Err)
	case KindUpstream:
		return fmt.Sprintf("llm: upstream error: status %d - %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("llm: completion failed: %v", e.Err)
	}
}

// Unwrap returns the underlying error for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err into an [*Error]. Deadline and network-timeout errors
// become KindTimeout; everything else becomes KindOther. Providers that can
// extract an upstream status should construct KindUpstream errors directly
// instead of calling Wrap.
func Wrap(err error) *Error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}

	kind := KindOther
	var timeouter interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &timeouter) && timeouter.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Err: err}
}
