// Package tools implements MCP tool handlers for the factree pipeline.
//
// Each tool is a function that receives dependencies via its struct (DIP)
// and returns a handler compatible with mcp-go's CallToolRequest signature.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: tools depend on interfaces (config.Store, pipeline.Store), not concretions
// - OCP: new tools are added without modifying existing ones
package tools

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/factree/internal/constitution"
)

// HistoryRecorder persists validation results. Satisfied by
// history.Store; nil means history is disabled.
type HistoryRecorder interface {
	RecordValidation(runID, stage, document string, violations []constitution.Violation) (string, error)
}

// findProjectRoot walks up from the current working directory looking
// for an existing factree/factree.json. If none is found, returns cwd.
// This allows tools to work from any subdirectory of the project.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		candidate := filepath.Join(current, "factree", "factree.json")
		if _, err := os.Stat(candidate); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root, no factree project found.
			// Return original cwd — the caller decides what to do.
			return dir, nil
		}
		current = parent
	}
}

// readDoc reads a phase document. Returns empty string if the file
// doesn't exist (not an error — the stage just hasn't produced it yet).
func readDoc(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// writeDoc writes a phase document, creating parent directories as
// needed.
func writeDoc(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// loadValidator builds a Validator from the project's policy document.
// A missing policy yields a validator that reports the absence as a
// critical violation instead of silently passing.
func loadValidator(policyPath string) *constitution.Validator {
	data, err := os.ReadFile(policyPath)
	if err != nil {
		return constitution.NewMissingPolicy(policyPath)
	}
	return constitution.New(string(data))
}

// recordHistory notifies the optional history recorder. Failures are
// swallowed — history must never block the pipeline.
func recordHistory(rec HistoryRecorder, runID, stage, document string, violations []constitution.Violation) {
	if rec == nil {
		return
	}
	_, _ = rec.RecordValidation(runID, stage, document, violations)
}
