package tools

import (
	"os"
	"strings"
	"testing"

	"github.com/HendryAvila/factree/internal/config"
	"github.com/HendryAvila/factree/internal/pipeline"
	"github.com/HendryAvila/factree/internal/transform"
)

// redDocForTests generates a real red-phase document from the sample
// spec, so the inspection tools see what the pipeline actually emits.
func redDocForTests() string {
	_, tcDoc := transform.SpecToRequirements(sampleSpec)
	return transform.RequirementsToRed("", tcDoc)
}

// --- ParseTasksTool ---

func TestParseTasksTool_Handle_ReturnsTree(t *testing.T) {
	tool := NewParseTasksTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": redDocForTests(),
	})

	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	text := getResultText(result)
	if !strings.Contains(text, "Task Tree") {
		t.Error("result should contain the task tree header")
	}
	// The exported tree carries bare numeric ids; the record prefix
	// lives in the document, not in the JSON.
	if !strings.Contains(text, `"id": "001"`) {
		t.Error("result should contain parsed task ids")
	}
	if !strings.Contains(text, `"test_id": "TEST-001"`) {
		t.Error("result should contain the parsed test reference")
	}
}

func TestParseTasksTool_Handle_ReportsDropped(t *testing.T) {
	doc := redDocForTests() + "\nRED-099: Write failing test [broken]\n- Objective: field order is wrong here\n"

	tool := NewParseTasksTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": doc,
	})

	text := getResultText(result)
	if !strings.Contains(text, "Dropped Records") {
		t.Error("result should list dropped records")
	}
	if !strings.Contains(text, "RED-099") {
		t.Error("dropped record RED-099 should be named")
	}
}

func TestParseTasksTool_Handle_EmptyDocument(t *testing.T) {
	tool := NewParseTasksTool()
	result := callTool(t, tool.Handle, map[string]interface{}{})

	if !isErrorResult(result) {
		t.Fatal("expected error for missing document")
	}
}

// --- OrderTool ---

func TestOrderTool_Handle_SetupBeforeTests(t *testing.T) {
	tool := NewOrderTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": redDocForTests(),
	})

	text := getResultText(result)
	setupIdx := strings.Index(text, "RED-SETUP-001")
	testIdx := strings.Index(text, "RED-001")
	if setupIdx == -1 || testIdx == -1 {
		t.Fatalf("order should list both setup and test tasks, got: %s", text)
	}
	if setupIdx > testIdx {
		t.Error("setup tasks should be ordered before test tasks")
	}
}

func TestOrderTool_Handle_NoTasks(t *testing.T) {
	tool := NewOrderTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": "# Just prose, no records\n",
	})

	if !strings.Contains(getResultText(result), "No tasks found") {
		t.Error("result should say no tasks were found")
	}
}

// --- ValidateTool ---

func TestValidateTool_Handle_MissingPolicyIsCritical(t *testing.T) {
	tmpDir, cleanup := setupTestProject(t, config.ModeStrict)
	defer cleanup()

	if err := os.Remove(config.ConstitutionPath(tmpDir)); err != nil {
		t.Fatalf("remove constitution: %v", err)
	}

	tool := NewValidateTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": redDocForTests(),
	})

	text := getResultText(result)
	if !strings.Contains(text, "CRITICAL VIOLATIONS") {
		t.Errorf("missing policy should report a critical violation, got: %s", text)
	}
}

func TestValidateTool_Handle_JSONFormat(t *testing.T) {
	_, cleanup := setupTestProject(t, config.ModeStrict)
	defer cleanup()

	tool := NewValidateTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": redDocForTests(),
		"format":   "json",
	})

	text := getResultText(result)
	if !strings.Contains(text, "total_violations") {
		t.Errorf("json output should contain total_violations, got: %s", text)
	}
}

// --- BoundariesTool ---

func TestBoundariesTool_Handle_FlagsUnapprovedComponent(t *testing.T) {
	_, cleanup := setupTestProject(t, config.ModeStrict)
	defer cleanup()

	doc := "GREEN-001: Implement [resolver] to pass [RED-001]\n" +
		"- Component: GraphQL resolver\n"

	tool := NewBoundariesTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": doc,
	})

	text := getResultText(result)
	if !strings.Contains(text, "GraphQL resolver") {
		t.Errorf("unapproved component should be flagged, got: %s", text)
	}
}

func TestBoundariesTool_Handle_ApprovedComponentPasses(t *testing.T) {
	_, cleanup := setupTestProject(t, config.ModeStrict)
	defer cleanup()

	doc := "GREEN-001: Implement [model] to pass [RED-001]\n" +
		"- Component: Django model\n"

	tool := NewBoundariesTool()
	result := callTool(t, tool.Handle, map[string]interface{}{
		"document": doc,
	})

	text := getResultText(result)
	if !strings.Contains(text, "no violations found") {
		t.Errorf("approved component should pass, got: %s", text)
	}
}

// --- StatusTool ---

func TestStatusTool_Handle_NoActiveRun(t *testing.T) {
	_, cleanup := setupTestProject(t, config.ModeStrict)
	defer cleanup()

	tool := NewStatusTool(pipeline.NewFileStore())
	result := callTool(t, tool.Handle, map[string]interface{}{})

	if !isErrorResult(result) {
		t.Fatal("expected error when no run is active")
	}
}

func TestStatusTool_Handle_ShowsActiveRun(t *testing.T) {
	tmpDir, cleanup := setupTestProject(t, config.ModeStrict)
	defer cleanup()

	runStore := pipeline.NewFileStore()
	run := pipeline.NewRun("Project tracker", "")
	if err := runStore.Create(tmpDir, run); err != nil {
		t.Fatalf("Create run failed: %v", err)
	}

	tool := NewStatusTool(runStore)
	result := callTool(t, tool.Handle, map[string]interface{}{})

	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	text := getResultText(result)
	if !strings.Contains(text, "project-tracker") {
		t.Error("status should show the run ID")
	}
	if !strings.Contains(text, "specify") {
		t.Error("status should show the stage table")
	}
}

func TestStatusTool_Handle_UnknownRunID(t *testing.T) {
	_, cleanup := setupTestProject(t, config.ModeStrict)
	defer cleanup()

	tool := NewStatusTool(pipeline.NewFileStore())
	result := callTool(t, tool.Handle, map[string]interface{}{
		"run_id": "nope",
	})

	if !isErrorResult(result) {
		t.Fatal("expected error for unknown run ID")
	}
}
