package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/factree/internal/config"
	"github.com/HendryAvila/factree/internal/constitution"
	"github.com/mark3labs/mcp-go/mcp"
)

// BoundariesTool handles the factree_boundaries MCP tool.
// It checks a phase document's Component fields against the project's
// approved component allowlist.
type BoundariesTool struct{}

// NewBoundariesTool creates a BoundariesTool.
func NewBoundariesTool() *BoundariesTool {
	return &BoundariesTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *BoundariesTool) Definition() mcp.Tool {
	return mcp.NewTool("factree_boundaries",
		mcp.WithDescription(
			"Check every Component field in a phase document against the approved "+
				"component list in factree/memory/architecture-boundaries.md. "+
				"Components not on the allowlist are reported as error violations.",
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("The phase document content to check."),
		),
		mcp.WithString("location",
			mcp.Description("Label used in violation locations, typically the filename. Defaults to 'document.md'."),
			mcp.DefaultString("document.md"),
		),
	)
}

// Handle processes the factree_boundaries tool call.
func (t *BoundariesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := req.GetString("document", "")
	location := req.GetString("location", "document.md")

	if strings.TrimSpace(doc) == "" {
		return mcp.NewToolResultError("'document' is required - provide the phase document content"), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	boundariesPath := config.BoundariesPath(projectRoot)
	allowlist, err := readDoc(boundariesPath)
	if err != nil {
		return nil, err
	}

	var violations []constitution.Violation
	if allowlist == "" {
		violations = append(violations, constitution.MissingDocument("Architecture Boundaries", boundariesPath))
	} else {
		violations = constitution.ValidateComponentUsage(doc, allowlist, location)
	}

	return mcp.NewToolResultText(constitution.Report(violations)), nil
}
