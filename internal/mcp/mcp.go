// Package mcp defines the interfaces for the Model Context Protocol (MCP)
// tool-execution collaborator.
//
// Each chat request owns exactly one [Session]: the request dials it, reads
// the tool catalogue, routes tool calls through it, and closes it on every
// exit path — normal completion, iteration exhaustion, or error. Sessions are
// never shared between concurrent requests; the [Dialer] they come from must
// be safe for concurrent use.
package mcp

import "context"

// Transport selects the connection mechanism for an MCP tool server.
type Transport string

const (
	// TransportStdio spawns a subprocess and communicates over stdin/stdout.
	TransportStdio Transport = "stdio"

	// TransportStreamableHTTP communicates via the MCP Streamable HTTP protocol.
	TransportStreamableHTTP Transport = "streamable-http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportStreamableHTTP
}

// ServerConfig describes how to reach the MCP tool server.
type ServerConfig struct {
	// Name is the human-readable identifier used in log messages and errors.
	Name string

	// Transport specifies the connection mechanism.
	Transport Transport

	// Command is the executable path and optional arguments used when
	// Transport is [TransportStdio], e.g. "/usr/local/bin/inventa-tools".
	Command string

	// URL is the endpoint address used when Transport is
	// [TransportStreamableHTTP]. Ignored for stdio.
	URL string

	// Env holds additional environment variables injected into the server
	// process when Transport is [TransportStdio]. May be nil.
	Env map[string]string
}

// ToolDescriptor identifies one remotely invocable tool.
type ToolDescriptor struct {
	// Name is the tool's unique identifier within the session.
	Name string

	// Description explains what the tool does. Injected verbatim into the
	// orchestrator's system prompt.
	Description string
}

// Content is one entry of a tool result's ordered content list.
type Content struct {
	// Text is the entry's text when the server returned a text block.
	Text string

	// IsText reports whether the entry carried a text field at all.
	IsText bool

	// Raw is the JSON encoding of the entry, used by callers that need to
	// stringify non-text blocks.
	Raw string
}

// ToolResult holds the outcome of a single tool execution.
//
// IsError distinguishes an application-level failure reported by the tool
// from a transport or protocol failure, which sessions return as a Go error
// instead.
type ToolResult struct {
	// IsError indicates the tool itself reported a failure. The Content list
	// then carries the error detail.
	IsError bool

	// Content is the ordered content list returned by the tool. May be empty
	// when the tool produced no content.
	Content []Content
}

// Session is a live connection to an MCP tool server, owned by exactly one
// chat request.
type Session interface {
	// Tools returns the tool catalogue discovered when the session was
	// established, in server order.
	Tools() []ToolDescriptor

	// CallTool invokes the named tool with the given argument mapping.
	//
	// A non-nil *ToolResult is returned even when [ToolResult.IsError] is
	// true. A Go error is returned only on transport or protocol failure.
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error)

	// Close releases the session and, for stdio transports, reaps the
	// subprocess. Close is idempotent.
	Close() error
}

// Dialer establishes a fresh [Session] per chat request.
//
// Implementations must be safe for concurrent use: independent requests dial
// their sessions concurrently.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}
