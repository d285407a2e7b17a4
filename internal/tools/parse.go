package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/factree/internal/artifact"
	"github.com/mark3labs/mcp-go/mcp"
)

// ParseTasksTool handles the factree_parse_tasks MCP tool.
// It parses a phase document into the structured task tree and reports
// malformed records that were dropped.
type ParseTasksTool struct{}

// NewParseTasksTool creates a ParseTasksTool.
func NewParseTasksTool() *ParseTasksTool {
	return &ParseTasksTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ParseTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("factree_parse_tasks",
		mcp.WithDescription(
			"Parse a red-phase or green-phase document into a structured JSON task tree. "+
				"Malformed records are dropped whole and reported as diagnostics with "+
				"their line number and reason - partial records never enter the tree.",
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("The phase document content (markdown with RED-XXX / GREEN-XXX records)."),
		),
	)
}

// Handle processes the factree_parse_tasks tool call.
func (t *ParseTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := req.GetString("document", "")
	if strings.TrimSpace(doc) == "" {
		return mcp.NewToolResultError("'document' is required - provide the phase document content"), nil
	}

	tree := artifact.ParseTree(doc)
	out, err := artifact.ExportJSON(tree)
	if err != nil {
		return nil, fmt.Errorf("exporting task tree: %w", err)
	}

	dropped := artifact.DroppedRecords(doc)
	droppedSection := ""
	if len(dropped) > 0 {
		var b strings.Builder
		b.WriteString("\n## Dropped Records\n\n")
		for _, d := range dropped {
			fmt.Fprintf(&b, "- `%s-%s` (line %d): %s\n", d.Kind, d.ID, d.Line, d.Reason)
		}
		droppedSection = b.String()
	}

	response := fmt.Sprintf(
		"# Task Tree\n\n```json\n%s\n```\n%s",
		out, droppedSection,
	)

	return mcp.NewToolResultText(response), nil
}
