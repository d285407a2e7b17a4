package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// RunsDir is the subdirectory under factree/ where active runs live.
	RunsDir = "runs"
	// HistoryDir is the subdirectory under factree/ where archived runs live.
	HistoryDir = "history"
	// RunConfigFile is the filename for run records.
	RunConfigFile = "run.json"
)

// Store defines the persistence interface for run records.
// Abstracted for testability (DIP).
type Store interface {
	Create(projectRoot string, run *Run) error
	Load(projectRoot, runID string) (*Run, error)
	LoadActive(projectRoot string) (*Run, error)
	Save(projectRoot string, run *Run) error
	Archive(projectRoot, runID string) error
	List(projectRoot string) ([]Run, error)
}

// FileStore implements Store using the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed run store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// RunsPath returns the absolute path to the factree/runs/ directory.
func RunsPath(projectRoot string) string {
	return filepath.Join(projectRoot, "factree", RunsDir)
}

// HistoryPath returns the absolute path to the factree/history/ directory.
func HistoryPath(projectRoot string) string {
	return filepath.Join(projectRoot, "factree", HistoryDir)
}

// RunPath returns the absolute path to a specific run's directory. The
// stage artifact documents live directly in it.
func RunPath(projectRoot, runID string) string {
	return filepath.Join(RunsPath(projectRoot), runID)
}

// RunConfigPath returns the absolute path to a run's run.json.
func RunConfigPath(projectRoot, runID string) string {
	return filepath.Join(RunPath(projectRoot, runID), RunConfigFile)
}

// ArtifactPath returns the absolute path of a stage artifact inside a
// run's directory.
func ArtifactPath(projectRoot, runID, filename string) string {
	return filepath.Join(RunPath(projectRoot, runID), filename)
}

// Create persists a new run record, creating the directory structure.
// If the slug already exists, appends a numeric suffix (-2, -3, etc.).
func (fs *FileStore) Create(projectRoot string, run *Run) error {
	runsDir := RunsPath(projectRoot)
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return fmt.Errorf("creating runs directory: %w", err)
	}

	// Handle slug collisions.
	originalID := run.ID
	runDir := RunPath(projectRoot, run.ID)
	suffix := 2
	for {
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			break
		}
		run.ID = fmt.Sprintf("%s-%d", originalID, suffix)
		runDir = RunPath(projectRoot, run.ID)
		suffix++
	}

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}

	return fs.writeConfig(projectRoot, run)
}

// Load reads a specific run record by ID.
func (fs *FileStore) Load(projectRoot, runID string) (*Run, error) {
	path := RunConfigPath(projectRoot, runID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %q not found", runID)
		}
		return nil, fmt.Errorf("reading run config: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing run.json for %q: %w", runID, err)
	}
	return &run, nil
}

// LoadActive scans all runs and returns the one with status "active".
// Returns nil (not an error) if no active run exists.
func (fs *FileStore) LoadActive(projectRoot string) (*Run, error) {
	runsDir := RunsPath(projectRoot)
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := fs.Load(projectRoot, entry.Name())
		if err != nil {
			continue // skip unreadable runs
		}
		if run.Status == StatusActive {
			return run, nil
		}
	}

	return nil, nil
}

// Save updates an existing run record.
func (fs *FileStore) Save(projectRoot string, run *Run) error {
	run.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return fs.writeConfig(projectRoot, run)
}

// Archive moves a completed run from runs/ to history/.
func (fs *FileStore) Archive(projectRoot, runID string) error {
	run, err := fs.Load(projectRoot, runID)
	if err != nil {
		return err
	}

	if run.Status == StatusActive {
		return fmt.Errorf("cannot archive active run %q - complete it first", runID)
	}

	srcDir := RunPath(projectRoot, runID)
	historyDir := HistoryPath(projectRoot)
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	dstDir := filepath.Join(historyDir, runID)
	if _, err := os.Stat(dstDir); err == nil {
		return fmt.Errorf("run %q already exists in history", runID)
	}

	// Update status before moving.
	run.Status = StatusArchived
	run.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := fs.writeConfig(projectRoot, run); err != nil {
		return fmt.Errorf("updating run status: %w", err)
	}

	if err := os.Rename(srcDir, dstDir); err != nil {
		return fmt.Errorf("moving run to history: %w", err)
	}

	return nil
}

// List returns all runs from both runs/ and history/ directories.
func (fs *FileStore) List(projectRoot string) ([]Run, error) {
	var result []Run

	// Scan runs/ directory.
	runsDir := RunsPath(projectRoot)
	if entries, err := os.ReadDir(runsDir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			run, err := fs.Load(projectRoot, entry.Name())
			if err != nil {
				continue
			}
			result = append(result, *run)
		}
	}

	// Scan history/ directory.
	historyDir := HistoryPath(projectRoot)
	if entries, err := os.ReadDir(historyDir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			configPath := filepath.Join(historyDir, entry.Name(), RunConfigFile)
			data, err := os.ReadFile(configPath)
			if err != nil {
				continue
			}
			var run Run
			if err := json.Unmarshal(data, &run); err != nil {
				continue
			}
			result = append(result, run)
		}
	}

	return result, nil
}

// writeConfig marshals and writes a run record to its run.json.
func (fs *FileStore) writeConfig(projectRoot string, run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run config: %w", err)
	}

	path := RunConfigPath(projectRoot, run.ID)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
