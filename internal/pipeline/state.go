package pipeline

import "fmt"

// --- State machine for the run pipeline ---
//
// Stage order is fixed (StageOrder); the state machine only moves
// forward. A stage completes when its artifact documents have been
// written; advancement is what records that.

// CurrentStageIndex returns the ordinal position of the current stage
// within the run's stage list, or -1 if not found.
func CurrentStageIndex(run *Run) int {
	for i, entry := range run.Stages {
		if entry.Name == run.CurrentStage {
			return i
		}
	}
	return -1
}

// IsLastStage returns true if the current stage is the final stage (verify).
func IsLastStage(run *Run) bool {
	idx := CurrentStageIndex(run)
	return idx >= 0 && idx == len(run.Stages)-1
}

// CanAdvance checks whether the run can move past the current stage.
// Returns an error if advancement is not possible.
func CanAdvance(run *Run) error {
	if run.Status != StatusActive {
		return fmt.Errorf("run %q is not active (status: %s)", run.ID, run.Status)
	}

	idx := CurrentStageIndex(run)
	if idx < 0 {
		return fmt.Errorf("unknown current stage %q in run %q", run.CurrentStage, run.ID)
	}

	if idx >= len(run.Stages)-1 {
		return fmt.Errorf("already at the final stage %q in run %q", run.CurrentStage, run.ID)
	}

	return nil
}

// Advance moves the run to the next stage. It validates the transition
// first, marks the current stage completed, and moves to the next.
func Advance(run *Run) error {
	if err := CanAdvance(run); err != nil {
		return err
	}

	idx := CurrentStageIndex(run)
	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")

	// Mark current stage completed.
	run.Stages[idx].Status = "completed"
	run.Stages[idx].CompletedAt = now

	nextIdx := idx + 1
	// Mark next stage in_progress.
	run.Stages[nextIdx].Status = "in_progress"
	run.Stages[nextIdx].StartedAt = now

	// Advance current stage pointer.
	run.CurrentStage = run.Stages[nextIdx].Name
	run.UpdatedAt = now

	// Moving into verify does not auto-complete the run: verify still
	// needs its compliance report. Completion happens via CompleteRun.

	return nil
}

// CompleteRun marks the run as completed. Called after the verify stage
// has produced its compliance report.
func CompleteRun(run *Run) error {
	if run.Status != StatusActive {
		return fmt.Errorf("run %q is not active (status: %s)", run.ID, run.Status)
	}

	idx := CurrentStageIndex(run)
	if idx < 0 {
		return fmt.Errorf("unknown current stage %q in run %q", run.CurrentStage, run.ID)
	}

	if !IsLastStage(run) {
		return fmt.Errorf("cannot complete run %q: not at the final stage (current: %s)", run.ID, run.CurrentStage)
	}

	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")

	// Mark final stage completed.
	run.Stages[idx].Status = "completed"
	run.Stages[idx].CompletedAt = now

	// Mark run as completed.
	run.Status = StatusCompleted
	run.UpdatedAt = now

	return nil
}
