// Package resources implements MCP resource handlers for the factree pipeline.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (factree://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/factree/internal/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages factree resource endpoints.
type Handler struct {
	runs pipeline.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(runs pipeline.Store) *Handler {
	return &Handler{runs: runs}
}

// StatusResource returns the MCP resource definition for run status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"factree://run/status",
		"factree Run Status",
		mcp.WithResourceDescription("Current pipeline run: stage progress and status"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the active run's record as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectRoot, err := findRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	run, err := h.runs.LoadActive(projectRoot)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if run == nil {
		return errorResource(req.Params.URI, "no active run"), nil
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
