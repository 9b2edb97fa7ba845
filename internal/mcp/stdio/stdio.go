// Package stdio implements the [mcp.Dialer] and [mcp.Session] interfaces
// using the official MCP Go SDK (github.com/modelcontextprotocol/go-sdk).
//
// A [Dialer] spawns the configured tool server as a subprocess (or connects
// to a streamable-HTTP endpoint), initialises the protocol session, and
// discovers the tool catalogue. Each Dial produces an independent session;
// closing it tears the subprocess down.
package stdio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/inventa/internal/mcp"
)

// Dialer creates per-request MCP sessions for a single configured server.
type Dialer struct {
	cfg mcp.ServerConfig

	// client is reused across all sessions. The official SDK allows a single
	// Client to manage multiple sessions concurrently.
	client *mcpsdk.Client
}

// Compile-time check: Dialer must implement mcp.Dialer.
var _ mcp.Dialer = (*Dialer)(nil)

// NewDialer validates cfg and returns a ready-to-use Dialer.
func NewDialer(cfg mcp.ServerConfig) (*Dialer, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("mcp stdio: server config must have a non-empty name")
	}
	if !cfg.Transport.IsValid() {
		return nil, fmt.Errorf("mcp stdio: unknown transport %q for server %q", cfg.Transport, cfg.Name)
	}
	if cfg.Transport == mcp.TransportStdio && strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("mcp stdio: stdio server %q requires a non-empty Command", cfg.Name)
	}
	if cfg.Transport == mcp.TransportStreamableHTTP && cfg.URL == "" {
		return nil, fmt.Errorf("mcp stdio: streamable-http server %q requires a non-empty URL", cfg.Name)
	}

	client := mcpsdk.NewClient(
		&mcpsdk.Implementation{Name: "inventa-gateway", Version: "1.0.0"},
		nil,
	)
	return &Dialer{cfg: cfg, client: client}, nil
}

// Dial establishes a new session: it connects the transport, initialises the
// protocol, and lists the server's tools. The returned session must be closed
// by the caller on every exit path.
func (d *Dialer) Dial(ctx context.Context) (mcp.Session, error) {
	var transport mcpsdk.Transport

	switch d.cfg.Transport {
	case mcp.TransportStdio:
		executable, args := splitCommand(d.cfg.Command)
		cmd := exec.CommandContext(ctx, executable, args...)
		if len(d.cfg.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range d.cfg.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
		}
		transport = &mcpsdk.CommandTransport{Command: cmd}

	case mcp.TransportStreamableHTTP:
		transport = &mcpsdk.StreamableClientTransport{Endpoint: d.cfg.URL}
	}

	session, err := d.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp stdio: failed to connect to server %q: %w", d.cfg.Name, err)
	}

	// Discover tools using the iterator.
	var tools []mcp.ToolDescriptor
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			_ = session.Close()
			return nil, fmt.Errorf("mcp stdio: failed to list tools for server %q: %w", d.cfg.Name, err)
		}
		tools = append(tools, mcp.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}

	return &Session{name: d.cfg.Name, session: session, tools: tools}, nil
}

// Session wraps one live SDK client session.
type Session struct {
	name    string
	session *mcpsdk.ClientSession
	tools   []mcp.ToolDescriptor
}

// Compile-time check: Session must implement mcp.Session.
var _ mcp.Session = (*Session)(nil)

// Tools implements mcp.Session.
func (s *Session) Tools() []mcp.ToolDescriptor {
	out := make([]mcp.ToolDescriptor, len(s.tools))
	copy(out, s.tools)
	return out
}

// CallTool implements mcp.Session.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
	callResult, err := s.session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("mcp stdio: call to tool %q failed: %w", name, err)
	}

	return &mcp.ToolResult{
		IsError: callResult.IsError,
		Content: convertContent(callResult.Content),
	}, nil
}

// Close implements mcp.Session.
func (s *Session) Close() error {
	if err := s.session.Close(); err != nil {
		return fmt.Errorf("mcp stdio: error closing session to %q: %w", s.name, err)
	}
	return nil
}

// convertContent maps SDK content blocks onto the transport-agnostic shape.
// Text blocks keep their text; anything else is preserved as raw JSON so the
// caller can stringify it.
func convertContent(blocks []mcpsdk.Content) []mcp.Content {
	out := make([]mcp.Content, 0, len(blocks))
	for _, b := range blocks {
		if tc, ok := b.(*mcpsdk.TextContent); ok {
			out = append(out, mcp.Content{Text: tc.Text, IsText: true})
			continue
		}
		raw, err := json.Marshal(b)
		if err != nil {
			raw = []byte(fmt.Sprintf("%v", b))
		}
		out = append(out, mcp.Content{Raw: string(raw)})
	}
	return out
}

// splitCommand splits a command string into executable and arguments.
// e.g. "/bin/foo --bar baz" → ("/bin/foo", ["--bar", "baz"]).
func splitCommand(command string) (executable string, args []string) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}
