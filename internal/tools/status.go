package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/HendryAvila/factree/internal/history"
	"github.com/HendryAvila/factree/internal/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryReader exposes the read side of the history store.
type HistoryReader interface {
	RecentValidations(runID string, limit int) ([]history.ValidationRecord, error)
	Summary() (*history.Stats, error)
}

// StatusTool handles the factree_status MCP tool.
// It shows the state of a run: stage progress, artifacts, and the
// validation history when available.
type StatusTool struct {
	runs    pipeline.Store
	history HistoryReader
}

// NewStatusTool creates a StatusTool with the given run store.
func NewStatusTool(runStore pipeline.Store) *StatusTool {
	return &StatusTool{runs: runStore}
}

// SetHistory injects an optional history reader.
func (t *StatusTool) SetHistory(reader HistoryReader) { t.history = reader }

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("factree_status",
		mcp.WithDescription(
			"Show the current state of a pipeline run. If `run_id` is provided, "+
				"shows that specific run. Otherwise, shows the active run. "+
				"Returns stage progress, artifact sizes, and recent validation history.",
		),
		mcp.WithString("run_id",
			mcp.Description("Specific run ID to inspect. If omitted, shows the active run."),
		),
	)
}

// Handle processes the factree_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := req.GetString("run_id", "")

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	var run *pipeline.Run
	if runID != "" {
		run, err = t.runs.Load(projectRoot, runID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Run %q not found: %v", runID, err)), nil
		}
	} else {
		run, err = t.runs.LoadActive(projectRoot)
		if err != nil {
			return nil, fmt.Errorf("loading active run: %w", err)
		}
		if run == nil {
			return mcp.NewToolResultError("No active run found. Start one with `factree_run_stage`."), nil
		}
	}

	// Build stage progress table.
	var stageTable strings.Builder
	stageTable.WriteString("| Stage | Status | Artifacts |\n")
	stageTable.WriteString("|-------|--------|-----------|\n")

	for _, s := range run.Stages {
		marker := "⬜"
		switch s.Status {
		case "completed":
			marker = "✅"
		case "in_progress":
			marker = "🔄"
		}

		artifacts := "—"
		var found []string
		for _, filename := range pipeline.StageArtifacts(s.Name) {
			filePath := pipeline.ArtifactPath(projectRoot, run.ID, filename)
			if info, statErr := os.Stat(filePath); statErr == nil {
				found = append(found, fmt.Sprintf("`%s` (%d bytes)", filename, info.Size()))
			}
		}
		if len(found) > 0 {
			artifacts = strings.Join(found, ", ")
		}

		fmt.Fprintf(&stageTable, "| %s %s | %s | %s |\n", marker, s.Name, s.Status, artifacts)
	}

	// Validation history section.
	historySection := ""
	if t.history != nil {
		if records, err := t.history.RecentValidations(run.ID, 5); err == nil && len(records) > 0 {
			var b strings.Builder
			b.WriteString("## Recent Validations\n\n")
			for _, rec := range records {
				gate := "passed"
				if rec.Blocking {
					gate = "BLOCKED"
				}
				fmt.Fprintf(&b, "- %s `%s` (%s): %d violation(s), %s\n",
					rec.CreatedAt, rec.Document, rec.Stage, rec.ViolationCount, gate)
			}
			historySection = b.String() + "\n"
		}
	}

	response := fmt.Sprintf(
		"# Run Status\n\n"+
			"**ID:** `%s`\n"+
			"**Description:** %s\n"+
			"**Status:** %s\n"+
			"**Created:** %s\n"+
			"**Updated:** %s\n\n"+
			"## Stage Progress\n\n"+
			"%s\n"+
			"%s",
		run.ID, run.Description, run.Status, run.CreatedAt, run.UpdatedAt,
		stageTable.String(),
		historySection,
	)

	return mcp.NewToolResultText(response), nil
}
