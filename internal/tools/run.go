package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/factree/internal/artifact"
	"github.com/HendryAvila/factree/internal/config"
	"github.com/HendryAvila/factree/internal/constitution"
	"github.com/HendryAvila/factree/internal/pipeline"
	"github.com/HendryAvila/factree/internal/transform"
	"github.com/mark3labs/mcp-go/mcp"
)

// RunStageTool handles the factree_run_stage MCP tool.
// It is the workhorse of the pipeline — executes the active run's
// current stage transformation, validates the output against the
// constitution, and advances the state machine.
type RunStageTool struct {
	config  config.Store
	runs    pipeline.Store
	history HistoryRecorder
}

// NewRunStageTool creates a RunStageTool with the given stores.
func NewRunStageTool(cfgStore config.Store, runStore pipeline.Store) *RunStageTool {
	return &RunStageTool{config: cfgStore, runs: runStore}
}

// SetHistory injects an optional history recorder.
func (t *RunStageTool) SetHistory(rec HistoryRecorder) { t.history = rec }

// Definition returns the MCP tool definition for registration.
func (t *RunStageTool) Definition() mcp.Tool {
	return mcp.NewTool("factree_run_stage",
		mcp.WithDescription(
			"Execute the current stage of the active pipeline run: "+
				"specify (spec → requirements + test cases), red (test cases → failing test tasks), "+
				"green (red tasks → minimal implementation tasks), verify (full compliance pass). "+
				"The stage output is validated against the project constitution; in strict mode "+
				"blocking violations stop advancement. If no run is active, provide 'description' "+
				"to start one at the specify stage.",
		),
		mcp.WithString("spec",
			mcp.Description("The human-written feature specification. Required when the current "+
				"stage is specify. Expected shape: OUT-N outcome headers, each followed by a "+
				"'- Success Criteria:' line and its bulleted criteria, plus an optional "+
				"Constraints block."),
		),
		mcp.WithString("description",
			mcp.Description("Run description, used to create a new run when none is active. "+
				"Becomes the run ID (slug). Example: 'User login with OAuth' → 'user-login-with-oauth'."),
		),
	)
}

// Handle processes the factree_run_stage tool call.
func (t *RunStageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec := req.GetString("spec", "")
	description := req.GetString("description", "")

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := t.config.Load(projectRoot)
	if err != nil {
		return mcp.NewToolResultError(
			"No factree project found. Initialize one with `factree_init` first.",
		), nil
	}

	active, err := t.runs.LoadActive(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading active run: %w", err)
	}
	if active == nil {
		if strings.TrimSpace(description) == "" {
			return mcp.NewToolResultError(
				"No active run. Provide 'description' to start one at the specify stage.",
			), nil
		}
		active = pipeline.NewRun(description, "")
		if err := t.runs.Create(projectRoot, active); err != nil {
			return nil, fmt.Errorf("creating run: %w", err)
		}
	}

	currentStage := active.CurrentStage

	outputs, violations, execErr := t.executeStage(projectRoot, active, currentStage, spec)
	if execErr != nil {
		return mcp.NewToolResultError(execErr.Error()), nil
	}

	primaryDoc := outputs[len(outputs)-1]
	recordHistory(t.history, active.ID, string(currentStage), primaryDoc, violations)

	blocking := constitution.HasBlocking(violations)

	// Gate: strict mode holds the run at the current stage.
	if blocking && cfg.Mode == config.ModeStrict {
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Stage Blocked: %s\n\n"+
				"The stage output was written but the run was NOT advanced - "+
				"blocking violations must be resolved first (gate mode: strict).\n\n"+
				"```\n%s\n```\n\n"+
				"Fix the inputs and call `factree_run_stage` again.",
			currentStage, constitution.Report(violations),
		)), nil
	}

	isLast := pipeline.IsLastStage(active)
	if isLast {
		if err := pipeline.CompleteRun(active); err != nil {
			return nil, fmt.Errorf("completing run: %w", err)
		}
	} else {
		if err := pipeline.Advance(active); err != nil {
			return nil, fmt.Errorf("advancing run: %w", err)
		}
	}
	if err := t.runs.Save(projectRoot, active); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}

	// Build response.
	var artifactList strings.Builder
	for _, name := range outputs {
		fmt.Fprintf(&artifactList, "- `factree/runs/%s/%s`\n", active.ID, name)
	}

	validationNote := "No violations found."
	if len(violations) > 0 {
		validationNote = fmt.Sprintf(
			"%d violation(s) reported (gate mode: %s):\n\n```\n%s\n```",
			len(violations), cfg.Mode, constitution.Report(violations),
		)
	}

	if isLast {
		response := fmt.Sprintf(
			"# Stage Completed: %s\n\n"+
				"**Run completed!**\n\n"+
				"**ID:** `%s`\n"+
				"**Status:** completed\n\n"+
				"## Artifacts\n\n%s\n"+
				"## Validation\n\n%s\n\n"+
				"All stages are done. The artifacts are in `factree/runs/%s/`. "+
				"Start a new run with `factree_run_stage`.",
			currentStage, active.ID, artifactList.String(), validationNote, active.ID,
		)
		return mcp.NewToolResultText(response), nil
	}

	var stageProgress strings.Builder
	for _, s := range active.Stages {
		marker := "⬜"
		switch s.Status {
		case "completed":
			marker = "✅"
		case "in_progress":
			marker = "🔄"
		}
		fmt.Fprintf(&stageProgress, "  %s %s\n", marker, s.Name)
	}

	response := fmt.Sprintf(
		"# Stage Completed: %s\n\n"+
			"## Artifacts\n\n%s\n"+
			"## Validation\n\n%s\n\n"+
			"## Progress\n\n%s\n"+
			"## Next Step\n\n"+
			"Current stage: **%s**\n\n"+
			"Call `factree_run_stage` to execute it.",
		currentStage, artifactList.String(), validationNote,
		stageProgress.String(), active.CurrentStage,
	)

	return mcp.NewToolResultText(response), nil
}

// executeStage runs one stage transformation, writes its artifacts, and
// validates the primary output. Returns the artifact filenames written.
func (t *RunStageTool) executeStage(projectRoot string, run *pipeline.Run, stage pipeline.Stage, spec string) ([]string, []constitution.Violation, error) {
	validator := loadValidator(config.ConstitutionPath(projectRoot))

	switch stage {
	case pipeline.StageSpecify:
		if strings.TrimSpace(spec) == "" {
			return nil, nil, fmt.Errorf("'spec' is required at the specify stage - provide the feature specification")
		}
		reqDoc, tcDoc := transform.SpecToRequirements(spec)
		if err := writeDoc(pipeline.ArtifactPath(projectRoot, run.ID, "requirements.md"), reqDoc); err != nil {
			return nil, nil, err
		}
		if err := writeDoc(pipeline.ArtifactPath(projectRoot, run.ID, "test-cases.md"), tcDoc); err != nil {
			return nil, nil, err
		}
		violations := validator.Validate(tcDoc, "test-cases.md")
		violations = append(violations, constitution.MalformedRecords(tcDoc, "test-cases.md")...)
		return []string{"requirements.md", "test-cases.md"}, violations, nil

	case pipeline.StageRed:
		reqDoc, err := readDoc(pipeline.ArtifactPath(projectRoot, run.ID, "requirements.md"))
		if err != nil {
			return nil, nil, err
		}
		tcDoc, err := readDoc(pipeline.ArtifactPath(projectRoot, run.ID, "test-cases.md"))
		if err != nil {
			return nil, nil, err
		}
		if tcDoc == "" {
			return nil, nil, fmt.Errorf("test-cases.md not found - run the specify stage first")
		}
		redDoc := transform.RequirementsToRed(reqDoc, tcDoc)
		if err := writeDoc(pipeline.ArtifactPath(projectRoot, run.ID, "red-phase.md"), redDoc); err != nil {
			return nil, nil, err
		}
		violations := validator.Validate(redDoc, "red-phase.md")
		violations = append(violations, constitution.MalformedRecords(redDoc, "red-phase.md")...)
		return []string{"red-phase.md"}, violations, nil

	case pipeline.StageGreen:
		redDoc, err := readDoc(pipeline.ArtifactPath(projectRoot, run.ID, "red-phase.md"))
		if err != nil {
			return nil, nil, err
		}
		if redDoc == "" {
			return nil, nil, fmt.Errorf("red-phase.md not found - run the red stage first")
		}
		greenDoc := transform.RedToGreen(redDoc)
		if err := writeDoc(pipeline.ArtifactPath(projectRoot, run.ID, "green-phase.md"), greenDoc); err != nil {
			return nil, nil, err
		}
		violations := validator.Validate(greenDoc, "green-phase.md")
		violations = append(violations, constitution.MalformedRecords(greenDoc, "green-phase.md")...)
		return []string{"green-phase.md"}, violations, nil

	case pipeline.StageVerify:
		greenDoc, err := readDoc(pipeline.ArtifactPath(projectRoot, run.ID, "green-phase.md"))
		if err != nil {
			return nil, nil, err
		}
		if greenDoc == "" {
			return nil, nil, fmt.Errorf("green-phase.md not found - run the green stage first")
		}
		violations := validator.Validate(greenDoc, "green-phase.md")
		violations = append(violations, constitution.MalformedRecords(greenDoc, "green-phase.md")...)
		for _, problem := range artifact.ValidateTraceability(greenDoc) {
			violations = append(violations, constitution.Violation{
				Principle:   "Drift Detection",
				Severity:    constitution.SeverityError,
				Location:    "green-phase.md",
				Description: problem,
				Suggestion:  "Restore the full chain back to its outcome (leaf → REQ → OUT)",
			})
		}
		if boundaries, err := readDoc(config.BoundariesPath(projectRoot)); err == nil && boundaries != "" {
			violations = append(violations, constitution.ValidateComponentUsage(greenDoc, boundaries, "green-phase.md")...)
		} else {
			violations = append(violations, constitution.MissingDocument(
				"Architecture Boundaries", config.BoundariesPath(projectRoot)))
		}
		report := constitution.Report(violations)
		if err := writeDoc(pipeline.ArtifactPath(projectRoot, run.ID, "compliance-report.md"), report); err != nil {
			return nil, nil, err
		}
		return []string{"compliance-report.md"}, violations, nil
	}

	return nil, nil, fmt.Errorf("unknown stage %q", stage)
}
