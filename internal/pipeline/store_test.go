package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testRun(id, desc string) *Run {
	run := NewRun(desc, "spec.md")
	run.ID = id
	run.CreatedAt = "2026-01-01T00:00:00Z"
	run.UpdatedAt = "2026-01-01T00:00:00Z"
	return run
}

// --- Path helpers ---

func TestRunsPath(t *testing.T) {
	got := RunsPath("/root")
	want := filepath.Join("/root", "factree", RunsDir)
	if got != want {
		t.Errorf("RunsPath = %s, want %s", got, want)
	}
}

func TestHistoryPath(t *testing.T) {
	got := HistoryPath("/root")
	want := filepath.Join("/root", "factree", HistoryDir)
	if got != want {
		t.Errorf("HistoryPath = %s, want %s", got, want)
	}
}

func TestRunConfigPath(t *testing.T) {
	got := RunConfigPath("/root", "user-login")
	want := filepath.Join("/root", "factree", RunsDir, "user-login", RunConfigFile)
	if got != want {
		t.Errorf("RunConfigPath = %s, want %s", got, want)
	}
}

func TestArtifactPath(t *testing.T) {
	got := ArtifactPath("/root", "user-login", "red-phase.md")
	want := filepath.Join("/root", "factree", RunsDir, "user-login", "red-phase.md")
	if got != want {
		t.Errorf("ArtifactPath = %s, want %s", got, want)
	}
}

// --- Create ---

func TestCreate_WritesRunJSON(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()
	run := testRun("user-login", "User login")

	if err := store.Create(tmpDir, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	configPath := RunConfigPath(tmpDir, "user-login")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("run.json not created: %v", err)
	}

	var parsed Run
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("run.json is not valid JSON: %v", err)
	}
	if parsed.ID != "user-login" {
		t.Errorf("ID = %s, want user-login", parsed.ID)
	}
	if parsed.CurrentStage != StageSpecify {
		t.Errorf("CurrentStage = %s, want specify", parsed.CurrentStage)
	}
}

func TestCreate_SlugCollisionAppendsNumericSuffix(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()

	run1 := testRun("user-login", "User login")
	if err := store.Create(tmpDir, run1); err != nil {
		t.Fatalf("Create first failed: %v", err)
	}
	if run1.ID != "user-login" {
		t.Errorf("first run ID = %s, want user-login", run1.ID)
	}

	run2 := testRun("user-login", "User login")
	if err := store.Create(tmpDir, run2); err != nil {
		t.Fatalf("Create second failed: %v", err)
	}
	if run2.ID != "user-login-2" {
		t.Errorf("second run ID = %s, want user-login-2", run2.ID)
	}

	run3 := testRun("user-login", "User login")
	if err := store.Create(tmpDir, run3); err != nil {
		t.Fatalf("Create third failed: %v", err)
	}
	if run3.ID != "user-login-3" {
		t.Errorf("third run ID = %s, want user-login-3", run3.ID)
	}
}

// --- Load ---

func TestLoad_ReadsCreatedRun(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()
	original := testRun("fix-login", "Fix login crash")

	if err := store.Create(tmpDir, original); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	loaded, err := store.Load(tmpDir, "fix-login")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ID != original.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, original.ID)
	}
	if loaded.Description != original.Description {
		t.Errorf("Description = %s, want %s", loaded.Description, original.Description)
	}
	if len(loaded.Stages) != len(original.Stages) {
		t.Errorf("Stages count = %d, want %d", len(loaded.Stages), len(original.Stages))
	}
}

func TestLoad_NotFoundReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()

	_, err := store.Load(tmpDir, "nonexistent")
	if err == nil {
		t.Fatal("Load should fail for nonexistent run")
	}
	if !containsStr(err.Error(), "not found") {
		t.Errorf("error should mention 'not found', got: %s", err.Error())
	}
}

func TestLoad_CorruptJSONReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()

	runDir := RunPath(tmpDir, "corrupt")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(RunConfigPath(tmpDir, "corrupt"), []byte("not json {{{"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := store.Load(tmpDir, "corrupt")
	if err == nil {
		t.Fatal("Load should fail on corrupt JSON")
	}
	if !containsStr(err.Error(), "parsing run.json") {
		t.Errorf("error should mention 'parsing run.json', got: %s", err.Error())
	}
}

// --- LoadActive ---

func TestLoadActive_ReturnsActiveRun(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()

	active := testRun("active-one", "Active run")
	if err := store.Create(tmpDir, active); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	completed := testRun("done-one", "Done run")
	completed.Status = StatusCompleted
	if err := store.Create(tmpDir, completed); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.LoadActive(tmpDir)
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if found == nil {
		t.Fatal("LoadActive returned nil, expected active run")
	}
	if found.ID != "active-one" {
		t.Errorf("LoadActive returned ID = %s, want active-one", found.ID)
	}
}

func TestLoadActive_ReturnsNilWhenNoRunsDir(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()

	found, err := store.LoadActive(tmpDir)
	if err != nil {
		t.Fatalf("LoadActive should not error on missing dir: %v", err)
	}
	if found != nil {
		t.Error("LoadActive should return nil when runs/ doesn't exist")
	}
}

// --- Save ---

func TestSave_UpdatesExistingRecord(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()
	run := testRun("my-run", "My run")

	if err := store.Create(tmpDir, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	run.CurrentStage = StageGreen
	run.Stages[0].Status = "completed"
	if err := store.Save(tmpDir, run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(tmpDir, "my-run")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.CurrentStage != StageGreen {
		t.Errorf("CurrentStage = %s, want green", loaded.CurrentStage)
	}
	if loaded.Stages[0].Status != "completed" {
		t.Errorf("first stage status = %s, want completed", loaded.Stages[0].Status)
	}
}

// --- Archive ---

func TestArchive_MovesToHistory(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()
	run := testRun("completed-run", "Completed run")
	run.Status = StatusCompleted

	if err := store.Create(tmpDir, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Archive(tmpDir, "completed-run"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	if _, err := os.Stat(RunPath(tmpDir, "completed-run")); !os.IsNotExist(err) {
		t.Error("run should be removed from runs/ after archive")
	}

	dstConfig := filepath.Join(HistoryPath(tmpDir), "completed-run", RunConfigFile)
	data, err := os.ReadFile(dstConfig)
	if err != nil {
		t.Fatalf("run should exist in history/ after archive: %v", err)
	}
	var archived Run
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if archived.Status != StatusArchived {
		t.Errorf("archived status = %s, want archived", archived.Status)
	}
}

func TestArchive_RefusesActiveRun(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()
	run := testRun("active-run", "Still active")

	if err := store.Create(tmpDir, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := store.Archive(tmpDir, "active-run")
	if err == nil {
		t.Fatal("Archive should refuse active runs")
	}
	if !containsStr(err.Error(), "cannot archive active run") {
		t.Errorf("error should mention 'cannot archive active run', got: %s", err.Error())
	}
}

// --- List ---

func TestList_IncludesArchivedRuns(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()

	archived := testRun("archived-one", "Archived")
	archived.Status = StatusCompleted
	if err := store.Create(tmpDir, archived); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Archive(tmpDir, "archived-one"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	active := testRun("active-two", "Active")
	if err := store.Create(tmpDir, active); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := store.List(tmpDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d runs, want 2 (1 active + 1 archived)", len(list))
	}

	ids := map[string]bool{}
	for _, r := range list {
		ids[r.ID] = true
	}
	if !ids["active-two"] || !ids["archived-one"] {
		t.Errorf("List should include both runs, got %v", ids)
	}
}

func TestList_EmptyWhenNoRuns(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore()

	list, err := store.List(tmpDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List returned %d runs, want 0", len(list))
	}
}

// --- Store interface compliance ---

func TestFileStore_ImplementsStoreInterface(t *testing.T) {
	// Compile-time check — if this compiles, FileStore satisfies Store.
	var _ Store = (*FileStore)(nil)
}
