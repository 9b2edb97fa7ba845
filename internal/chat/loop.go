// Package chat implements the tool-calling orchestration loop: the bounded
// control flow that alternates between asking a completion backend for the
// next action and executing a requested tool, classifying each response,
// normalizing heterogeneous tool-result shapes into plain text, and
// terminating with either a final answer or a bounded-failure summary.
//
// One [Orchestrator] serves many concurrent requests; each [Orchestrator.Run]
// invocation owns its transcript and performs its backend and tool calls
// strictly sequentially. The caller owns the session lifecycle — Run never
// closes the session it is handed.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/inventa/internal/mcp"
	"github.com/MrWong99/inventa/internal/observe"
	"github.com/MrWong99/inventa/pkg/provider/llm"
)

// defaultMaxIterations bounds the completion-call/tool-call cycles per request.
const defaultMaxIterations = 5

// defaultTemperature matches the deterministic-leaning sampling the gateway
// wants for tool selection.
const defaultTemperature = 0.1

// Outcome is the terminal result of one loop invocation.
type Outcome struct {
	// Answer is the final answer text, or — when Exhausted is true — the
	// best-effort summary of the last attempted action.
	Answer string

	// Exhausted is true when the iteration cap was reached without a final
	// answer.
	Exhausted bool

	// Iterations is the number of completion calls performed.
	Iterations int
}

// Response renders the outcome as the text returned to the caller.
func (o *Outcome) Response() string {
	if o.Exhausted {
		return fmt.Sprintf("Max loops reached. Last response: %s", o.Answer)
	}
	return o.Answer
}

// Orchestrator drives the bounded agent loop. It is safe for concurrent use;
// all per-request state lives in Run's stack frame.
type Orchestrator struct {
	completer     llm.Completer
	maxIterations int
	temperature   float64
	metrics       *observe.Metrics
}

// Option is a functional option for New.
type Option func(*Orchestrator)

// WithMaxIterations overrides the iteration cap. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.maxIterations = n
		}
	}
}

// WithTemperature sets the sampling temperature sent on every completion call.
func WithTemperature(t float64) Option {
	return func(o *Orchestrator) {
		o.temperature = t
	}
}

// WithMetrics wires loop instrumentation. When unset, nothing is recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New creates an Orchestrator for the given completion backend.
func New(completer llm.Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		completer:     completer,
		maxIterations: defaultMaxIterations,
		temperature:   defaultTemperature,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the agent loop for one user query against the given tool
// session and returns the terminal outcome.
//
// The transcript is seeded with exactly one system message (instructions plus
// the formatted tool catalogue) and one user message (the query). Each
// iteration sends the whole transcript to the completion backend and
// classifies the response:
//
//   - A tool-call request appends the raw assistant text and the normalized
//     tool result to the transcript, then loops. Transport failures during
//     the tool call are absorbed as the tool entry; the loop continues.
//   - Anything else is the final answer; Run returns it trimmed, without
//     mutating the transcript further.
//
// A completion-call failure aborts the request immediately — Run returns a
// non-nil error wrapping the backend's [*llm.Error] classification. Hitting
// the iteration cap is not an error: Run returns an exhausted Outcome whose
// Answer summarises the most recent assistant entry.
func (o *Orchestrator) Run(ctx context.Context, query string, sess mcp.Session) (*Outcome, error) {
	tools := sess.Tools()

	transcript := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(tools)},
		{Role: llm.RoleUser, Content: query},
	}

	for i := 1; i <= o.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("chat: request cancelled before iteration %d: %w", i, err)
		}

		slog.Debug("agent loop iteration", "iteration", i, "transcript_len", len(transcript))

		raw, err := o.complete(ctx, transcript)
		if err != nil {
			o.recordIterations(ctx, i, "completion_error")
			return nil, fmt.Errorf("chat: completion call failed at iteration %d: %w", i, err)
		}

		call, ok := classify(raw)
		if !ok {
			slog.Info("backend provided final answer", "iteration", i)
			o.recordIterations(ctx, i, "final_answer")
			return &Outcome{Answer: strings.TrimSpace(raw), Iterations: i}, nil
		}

		// Preserve the raw text, not the parsed object, so the transcript
		// stays human-readable even for structured calls.
		transcript = append(transcript, llm.Message{Role: llm.RoleAssistant, Content: raw})

		slog.Info("backend requested tool call", "iteration", i, "tool", call.Name)
		entry := o.executeTool(ctx, sess, call)
		transcript = append(transcript, llm.Message{Role: llm.RoleTool, Content: entry})
	}

	slog.Warn("maximum agent loop iterations reached", "max_iterations", o.maxIterations)
	o.recordIterations(ctx, o.maxIterations, "exhausted")
	return &Outcome{
		Answer:     lastAssistantSummary(transcript),
		Exhausted:  true,
		Iterations: o.maxIterations,
	}, nil
}

// complete performs one instrumented completion call.
func (o *Orchestrator) complete(ctx context.Context, transcript []llm.Message) (string, error) {
	start := time.Now()
	resp, err := o.completer.Complete(ctx, llm.CompletionRequest{
		Messages:    transcript,
		Temperature: o.temperature,
	})

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = llm.Wrap(err).Kind.String()
		}
		o.metrics.CompletionDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("status", status)))
		o.metrics.CompletionRequests.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", status)))
	}

	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// executeTool dispatches one tool call and returns the normalized transcript
// entry. All failure modes fold into the entry text; executeTool never errors.
func (o *Orchestrator) executeTool(ctx context.Context, sess mcp.Session, call *ToolCallRequest) string {
	start := time.Now()
	result, err := sess.CallTool(ctx, call.Name, call.Arguments)

	status := "ok"
	var entry string
	switch {
	case err != nil:
		status = "transport_error"
		entry = normalizeTransportError(call.Name, err)
		slog.Error("tool call transport failure", "tool", call.Name, "err", err)
	case result != nil && result.IsError:
		status = "tool_error"
		entry = normalizeResult(call.Name, result)
		slog.Error("tool execution returned error", "tool", call.Name, "result", entry)
	default:
		entry = normalizeResult(call.Name, result)
		slog.Debug("tool executed", "tool", call.Name)
	}

	if o.metrics != nil {
		o.metrics.ToolCallDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("tool", call.Name), attribute.String("status", status)))
		o.metrics.ToolCalls.Add(ctx, 1,
			metric.WithAttributes(attribute.String("tool", call.Name), attribute.String("status", status)))
	}

	return entry
}

// lastAssistantSummary scans the transcript backward for the most recent
// assistant entry and renders the exhaustion summary from it. A stalled
// tool-call request is reported by tool name; any other assistant text is
// reported verbatim (trimmed). The generic sentence covers the
// should-not-occur case of no assistant entry at all.
func lastAssistantSummary(transcript []llm.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role != llm.RoleAssistant {
			continue
		}
		if name, ok := looksLikeToolCall(transcript[i].Content); ok {
			return fmt.Sprintf("Processing stopped - LLM was still trying to call tool '%s'.", name)
		}
		return strings.TrimSpace(transcript[i].Content)
	}
	return "Processing stopped after maximum attempts."
}

// recordIterations publishes the per-request iteration count with its
// terminal disposition.
func (o *Orchestrator) recordIterations(ctx context.Context, iterations int, outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.LoopIterations.Record(ctx, int64(iterations),
		metric.WithAttributes(attribute.String("outcome", outcome)))
}
