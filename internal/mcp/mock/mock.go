// Package mock provides in-memory test doubles for the MCP [mcp.Session] and
// [mcp.Dialer] interfaces.
//
// [Session] records every method call for assertion in tests and exposes
// exported fields that control what the mock returns. It is safe for
// concurrent use via an internal [sync.Mutex].
//
// Typical usage:
//
//	s := &mock.Session{}
//	s.ToolsResult = []mcp.ToolDescriptor{{Name: "get_clusters"}}
//	s.CallToolResult = &mcp.ToolResult{Content: []mcp.Content{{Text: `{"count":3}`, IsText: true}}}
//
//	// inject &mock.Dialer{Session: s} into the system under test …
//
//	if got := s.CallCount("CallTool"); got != 1 {
//	    t.Errorf("expected 1 CallTool call, got %d", got)
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/inventa/internal/mcp"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// Session is a configurable test double for [mcp.Session].
// All exported *Err fields default to nil (success).
type Session struct {
	mu sync.Mutex

	// calls records every method invocation in order.
	calls []Call

	// ──── Tools ────────────────────────────────────────────────────────────

	// ToolsResult is returned by [Session.Tools].
	// When nil, Tools returns an empty non-nil slice.
	ToolsResult []mcp.ToolDescriptor

	// ──── CallTool ─────────────────────────────────────────────────────────

	// CallToolResult is returned by [Session.CallTool] when CallToolErr is
	// nil. When both are nil, a zero-value *ToolResult is returned.
	CallToolResult *mcp.ToolResult

	// CallToolResults, when non-empty, scripts per-call results consumed in
	// order; the last entry repeats. Takes priority over CallToolResult.
	CallToolResults []*mcp.ToolResult

	// CallToolErr is returned by [Session.CallTool] when non-nil.
	CallToolErr error

	// ──── Close ────────────────────────────────────────────────────────────

	// CloseErr is returned by [Session.Close] when non-nil.
	CloseErr error
}

// Compile-time check: Session must implement mcp.Session.
var _ mcp.Session = (*Session)(nil)

// Tools implements mcp.Session.
func (s *Session) Tools() []mcp.ToolDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "Tools"})
	if s.ToolsResult == nil {
		return []mcp.ToolDescriptor{}
	}
	return s.ToolsResult
}

// CallTool implements mcp.Session.
func (s *Session) CallTool(_ context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		if c.Method == "CallTool" {
			n++
		}
	}
	s.calls = append(s.calls, Call{Method: "CallTool", Args: []any{name, args}})

	if s.CallToolErr != nil {
		return nil, s.CallToolErr
	}
	if len(s.CallToolResults) > 0 {
		idx := n
		if idx >= len(s.CallToolResults) {
			idx = len(s.CallToolResults) - 1
		}
		return s.CallToolResults[idx], nil
	}
	if s.CallToolResult != nil {
		return s.CallToolResult, nil
	}
	return &mcp.ToolResult{}, nil
}

// Close implements mcp.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "Close"})
	return s.CloseErr
}

// Calls returns a copy of all recorded invocations in order.
func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (s *Session) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Dialer is a test double for [mcp.Dialer] that hands out a fixed session.
type Dialer struct {
	mu sync.Mutex

	// Session is returned by Dial when DialErr is nil.
	Session *Session

	// DialErr is returned by Dial when non-nil.
	DialErr error

	// dials counts Dial invocations.
	dials int
}

// Compile-time check: Dialer must implement mcp.Dialer.
var _ mcp.Dialer = (*Dialer)(nil)

// Dial implements mcp.Dialer.
func (d *Dialer) Dial(_ context.Context) (mcp.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.DialErr != nil {
		return nil, d.DialErr
	}
	if d.Session == nil {
		d.Session = &Session{}
	}
	return d.Session, nil
}

// DialCount returns how many times Dial was invoked.
func (d *Dialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
