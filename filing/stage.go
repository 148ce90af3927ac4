package filing

import "fmt"

// Stage is the lifecycle state of a filing. Only the values listed here are
// ever persisted; the stage column is a Postgres enum with the same members.
type Stage string

const (
	StageIntake     Stage = "intake"
	StageReady      Stage = "ready"
	StageQueued     Stage = "queued"
	StageSubmitting Stage = "submitting"
	StageSubmitted  Stage = "submitted"
	StageApproved   Stage = "approved"
	StageRejected   Stage = "rejected"
	StageNeedsInfo  Stage = "needs_info"
	StageFailed     Stage = "failed"
)

// stageOrdinals fixes each forward-path stage's position for progress
// rendering and for the monotonic advance guard. Error stages carry no
// ordinal; they are rendered as an overlay on the customer progress bar.
var stageOrdinals = map[Stage]int{
	StageIntake:     0,
	StageReady:      1,
	StageQueued:     2,
	StageSubmitting: 3,
	StageSubmitted:  4,
	StageApproved:   5,
}

var validStages = map[Stage]bool{
	StageIntake:     true,
	StageReady:      true,
	StageQueued:     true,
	StageSubmitting: true,
	StageSubmitted:  true,
	StageApproved:   true,
	StageRejected:   true,
	StageNeedsInfo:  true,
	StageFailed:     true,
}

// transitions enumerates every legal stage edge. Error stages are reachable
// once automation is in flight; the only way out of an error stage is an
// explicit operator requeue.
var transitions = map[Stage][]Stage{
	StageIntake:     {StageReady},
	StageReady:      {StageQueued},
	StageQueued:     {StageSubmitting, StageSubmitted, StageApproved, StageRejected, StageNeedsInfo, StageFailed},
	StageSubmitting: {StageSubmitted, StageApproved, StageRejected, StageNeedsInfo, StageFailed},
	StageSubmitted:  {StageApproved, StageRejected, StageNeedsInfo, StageFailed},
	StageRejected:   {StageQueued},
	StageNeedsInfo:  {StageQueued},
	StageFailed:     {StageQueued},
	StageApproved:   {},
}

// IsValidStage reports whether s is a member of the stage enum.
func IsValidStage(s Stage) bool {
	return validStages[s]
}

// IsError reports whether s is one of the error overlay stages.
func (s Stage) IsError() bool {
	return s == StageRejected || s == StageNeedsInfo || s == StageFailed
}

// IsTerminal reports whether s ends the filing's forward progression.
// Error stages are treated as terminal until an operator requeues.
func (s Stage) IsTerminal() bool {
	return s == StageApproved || s.IsError()
}

// Ordinal returns the progress-bar position for forward-path stages. Error
// stages return -1 and are expected to be rendered as an overlay.
func (s Stage) Ordinal() int {
	if ord, ok := stageOrdinals[s]; ok {
		return ord
	}
	return -1
}

// CanTransition reports whether from -> to is a legal stage edge. A
// self-transition is allowed and treated as a no-op by the advance guard.
func CanTransition(from, to Stage) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a stage edge, distinguishing a forward-path
// regression from a plainly illegal edge so callers can report accurately.
func CheckTransition(from, to Stage) error {
	if !IsValidStage(to) {
		return fmt.Errorf("%w: %q", ErrInvalidStage, to)
	}
	if from == to {
		return nil
	}
	if CanTransition(from, to) {
		return nil
	}
	fromOrd, toOrd := from.Ordinal(), to.Ordinal()
	if fromOrd >= 0 && toOrd >= 0 && toOrd < fromOrd {
		return fmt.Errorf("%w: %s -> %s", ErrStageRegression, from, to)
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
