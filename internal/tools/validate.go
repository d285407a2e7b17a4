package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/factree/internal/config"
	"github.com/HendryAvila/factree/internal/constitution"
	"github.com/mark3labs/mcp-go/mcp"
)

// ValidateTool handles the factree_validate MCP tool.
// It runs the constitutional check battery over a phase document.
type ValidateTool struct {
	history HistoryRecorder
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool() *ValidateTool {
	return &ValidateTool{}
}

// SetHistory injects an optional history recorder.
func (t *ValidateTool) SetHistory(rec HistoryRecorder) { t.history = rec }

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("factree_validate",
		mcp.WithDescription(
			"Validate a phase document against the project constitution. "+
				"Runs the full check battery (context efficiency, minimalism, framework trust, "+
				"agent-centric content, focus, boundaries, drift, verification) plus malformed "+
				"record diagnostics. A missing constitution document is itself a critical violation.",
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("The phase document content to validate."),
		),
		mcp.WithString("location",
			mcp.Description("Label used in violation locations, typically the filename. Defaults to 'document.md'."),
			mcp.DefaultString("document.md"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (human-readable report) or 'json'. Defaults to 'text'."),
			mcp.DefaultString("text"),
			mcp.Enum("text", "json"),
		),
	)
}

// Handle processes the factree_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := req.GetString("document", "")
	location := req.GetString("location", "document.md")
	format := req.GetString("format", "text")

	if strings.TrimSpace(doc) == "" {
		return mcp.NewToolResultError("'document' is required - provide the phase document content"), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	validator := loadValidator(config.ConstitutionPath(projectRoot))
	violations := validator.Validate(doc, location)
	violations = append(violations, constitution.MalformedRecords(doc, location)...)

	recordHistory(t.history, "", "validate", location, violations)

	if format == "json" {
		out, err := constitution.ExportJSON(violations)
		if err != nil {
			return nil, fmt.Errorf("exporting violations: %w", err)
		}
		return mcp.NewToolResultText(out), nil
	}

	return mcp.NewToolResultText(constitution.Report(violations)), nil
}
