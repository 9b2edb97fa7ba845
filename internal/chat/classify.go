package chat

import (
	"encoding/json"
	"strings"
)

// ToolCallRequest is a tool invocation parsed from backend output. It exists
// only transiently within one loop iteration.
type ToolCallRequest struct {
	// Name is the tool to invoke.
	Name string

	// Arguments is the argument mapping to pass through to the tool server.
	// Never nil for a classified request.
	Arguments map[string]any
}

// classify decides whether a raw backend response is a tool-call request.
//
// A response classifies as a tool call only when it is a single JSON object
// whose "tool_name" member is a string and whose "arguments" member is an
// object. Extra members are allowed. Everything else — plain text, malformed
// JSON, a non-object document, or an object missing either requirement — is a
// final-answer candidate: shape validation wins over content heuristics, so a
// near-miss tool call is never retried.
func classify(raw string) (*ToolCallRequest, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return nil, false
	}

	rawName, ok := obj["tool_name"]
	if !ok {
		return nil, false
	}
	rawArgs, ok := obj["arguments"]
	if !ok {
		return nil, false
	}

	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return nil, false
	}

	var args map[string]any
	if err := json.Unmarshal(rawArgs, &args); err != nil || args == nil {
		// args == nil catches a JSON null, which decodes without error.
		return nil, false
	}

	return &ToolCallRequest{Name: name, Arguments: args}, true
}

// looksLikeToolCall reports whether content parses as a JSON object carrying
// a "tool_name" member, and returns that member rendered as text. Used by the
// exhaustion summary, which deliberately applies a weaker test than classify:
// even a malformed tool call (e.g. missing arguments) counts as "still trying
// to call a tool".
func looksLikeToolCall(content string) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &obj); err != nil {
		return "", false
	}
	rawName, ok := obj["tool_name"]
	if !ok {
		return "", false
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return string(rawName), true
	}
	return name, true
}
