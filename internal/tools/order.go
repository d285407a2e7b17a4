package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/factree/internal/artifact"
	"github.com/mark3labs/mcp-go/mcp"
)

// OrderTool handles the factree_order MCP tool.
// It returns the execution order of the tasks in a phase document.
type OrderTool struct{}

// NewOrderTool creates an OrderTool.
func NewOrderTool() *OrderTool {
	return &OrderTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *OrderTool) Definition() mcp.Tool {
	return mcp.NewTool("factree_order",
		mcp.WithDescription(
			"Compute the execution order of the tasks in a phase document. "+
				"Order is by task category precedence (setup before tests, implementation "+
				"before integration, configuration, skipped, review), then by ID within "+
				"a category - never by document position across categories.",
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("The phase document content (markdown with RED-XXX / GREEN-XXX records)."),
		),
	)
}

// Handle processes the factree_order tool call.
func (t *OrderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := req.GetString("document", "")
	if strings.TrimSpace(doc) == "" {
		return mcp.NewToolResultError("'document' is required - provide the phase document content"), nil
	}

	order := artifact.ExecutionOrder(doc)
	if len(order) == 0 {
		return mcp.NewToolResultText("No tasks found in the document."), nil
	}

	var b strings.Builder
	b.WriteString("# Execution Order\n\n")
	for i, id := range order {
		fmt.Fprintf(&b, "%d. %s\n", i+1, id)
	}

	return mcp.NewToolResultText(b.String()), nil
}
