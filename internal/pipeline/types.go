// Package pipeline tracks a TDD run through its fixed stage sequence:
// specify → red → green → verify. Each stage consumes the previous
// stage's artifact documents and produces its own, so a stage can only
// start once its predecessor has completed.
//
// The package follows the same design principles as the rest of the
// module:
// - SRP: types, state machine, and store in separate files
// - DIP: Store is an interface; tools depend on the abstraction
package pipeline

import (
	"fmt"
	"strings"
)

// Stage is one phase of a run.
type Stage string

const (
	StageSpecify Stage = "specify" // human spec → requirements + test cases
	StageRed     Stage = "red"     // test cases → failing test tasks
	StageGreen   Stage = "green"   // red tasks → implementation tasks
	StageVerify  Stage = "verify"  // compliance validation of the phase documents
)

// StageOrder is the fixed stage sequence. Every run follows it; there is
// no adaptive flow because each stage's input is the previous stage's
// output document.
var StageOrder = []Stage{StageSpecify, StageRed, StageGreen, StageVerify}

// ValidateStage returns an error if the stage is not recognized.
func ValidateStage(s Stage) error {
	for _, stage := range StageOrder {
		if s == stage {
			return nil
		}
	}
	return fmt.Errorf("invalid stage %q: must be one of: specify, red, green, verify", s)
}

// RunStatus tracks the overall lifecycle of a run.
type RunStatus string

const (
	StatusActive    RunStatus = "active"
	StatusCompleted RunStatus = "completed"
	StatusArchived  RunStatus = "archived"
)

// StageEntry tracks progress for a single stage within a run.
type StageEntry struct {
	Name        Stage  `json:"name"`
	Status      string `json:"status"` // pending | in_progress | completed
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// Run is the root data structure for a pipeline run, persisted as
// run.json in the run's directory.
type Run struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	SpecFile     string       `json:"spec_file"`
	Stages       []StageEntry `json:"stages"`
	CurrentStage Stage        `json:"current_stage"`
	Status       RunStatus    `json:"status"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

// stageArtifacts maps each stage to the documents it produces, relative
// to the run directory.
var stageArtifacts = map[Stage][]string{
	StageSpecify: {"requirements.md", "test-cases.md"},
	StageRed:     {"red-phase.md"},
	StageGreen:   {"green-phase.md"},
	StageVerify:  {"compliance-report.md"},
}

// StageArtifacts returns the artifact filenames a stage produces.
// Returns nil for unknown stages.
func StageArtifacts(stage Stage) []string {
	artifacts := stageArtifacts[stage]
	result := make([]string, len(artifacts))
	copy(result, artifacts)
	return result
}

const maxSlugLen = 50

// Slugify converts a run description into a filesystem-safe id.
// Example: "User login with OAuth" → "user-login-with-oauth"
//
// Rules:
//   - Lowercase
//   - Spaces and underscores become hyphens
//   - Non-alphanumeric characters (except hyphens) are removed
//   - Consecutive hyphens are collapsed
//   - Leading/trailing hyphens are trimmed
//   - Truncated to 50 characters (at a word boundary if possible)
//   - Empty input returns "unnamed-run"
func Slugify(description string) string {
	if strings.TrimSpace(description) == "" {
		return "unnamed-run"
	}

	s := strings.ToLower(strings.TrimSpace(description))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")

	if slug == "" {
		return "unnamed-run"
	}

	if len(slug) <= maxSlugLen {
		return slug
	}

	// Truncate at word boundary if possible.
	truncated := slug[:maxSlugLen]
	if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxSlugLen/2 {
		truncated = truncated[:lastHyphen]
	}

	return strings.TrimRight(truncated, "-")
}

// NewRun builds an active run at the first stage, with every stage entry
// pending except the first, which starts immediately.
func NewRun(description, specFile string) *Run {
	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")

	stages := make([]StageEntry, len(StageOrder))
	for i, stage := range StageOrder {
		stages[i] = StageEntry{Name: stage, Status: "pending"}
	}
	stages[0].Status = "in_progress"
	stages[0].StartedAt = now

	return &Run{
		ID:           Slugify(description),
		Description:  description,
		SpecFile:     specFile,
		Stages:       stages,
		CurrentStage: StageOrder[0],
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
