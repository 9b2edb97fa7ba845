package chat

import (
	"fmt"
	"strings"

	"github.com/MrWong99/inventa/internal/mcp"
)

// Placeholder text used when a tool omits a field, and the fixed sentence for
// an empty catalogue. These strings are part of the prompt contract — the
// model is instructed against them, so they must stay stable.
const (
	placeholderName        = "Unnamed Tool"
	placeholderDescription = "No description."
	emptyCatalogText       = "No tools are currently available."
)

// FormatTools renders the tool catalogue as deterministic prompt text: one
// entry per tool in input order as
//
//	- Name: <name>
//	  Description: <description>
//
// with placeholders substituted for absent fields. An empty catalogue yields
// the fixed "no tools" sentence. FormatTools has no side effects and always
// succeeds.
func FormatTools(tools []mcp.ToolDescriptor) string {
	if len(tools) == 0 {
		return emptyCatalogText
	}

	var b strings.Builder
	for _, t := range tools {
		name := t.Name
		if name == "" {
			name = placeholderName
		}
		desc := t.Description
		if desc == "" {
			desc = placeholderDescription
		}
		fmt.Fprintf(&b, "- Name: %s\n  Description: %s\n", name, desc)
	}
	return b.String()
}
