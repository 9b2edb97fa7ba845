package chat

import (
	"fmt"

	"github.com/MrWong99/inventa/internal/mcp"
)

// normalizeResult flattens a tool result into the single text blob recorded
// as the tool transcript entry. The precedence is fixed and total:
//
//  1. Tool-level error → "Tool Error: <first text fragment>", falling back to
//     a generic execution-failed sentence when no fragment is extractable.
//  2. Non-empty content list → the first entry's text, or its raw JSON when
//     the entry carries no text field.
//  3. No content at all → the fixed "no specific content" sentence.
func normalizeResult(toolName string, result *mcp.ToolResult) string {
	if result == nil {
		return noContentMessage(toolName)
	}

	if result.IsError {
		if len(result.Content) > 0 && result.Content[0].IsText {
			return "Tool Error: " + result.Content[0].Text
		}
		return fmt.Sprintf("Tool Error: Execution failed for '%s'.", toolName)
	}

	if len(result.Content) > 0 {
		first := result.Content[0]
		if first.IsText {
			return first.Text
		}
		return first.Raw
	}

	return noContentMessage(toolName)
}

// normalizeTransportError renders a transport or protocol failure raised by
// the tool call itself. Unlike a completion failure this is absorbed into the
// transcript — the loop continues.
func normalizeTransportError(toolName string, err error) string {
	return fmt.Sprintf("Exception during tool call '%s': %s", toolName, err)
}

func noContentMessage(toolName string) string {
	return fmt.Sprintf("Tool '%s' executed successfully with no specific content returned.", toolName)
}
