package filing

import (
	"errors"
	"strings"
	"testing"
)

func TestIsValidStage(t *testing.T) {
	valid := []Stage{
		StageIntake, StageReady, StageQueued, StageSubmitting,
		StageSubmitted, StageApproved, StageRejected, StageNeedsInfo, StageFailed,
	}
	for _, s := range valid {
		if !IsValidStage(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	for _, s := range []Stage{"", "done", "INTAKE", "cancelled"} {
		if IsValidStage(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestStageOrdinals(t *testing.T) {
	forward := []Stage{StageIntake, StageReady, StageQueued, StageSubmitting, StageSubmitted, StageApproved}
	for i, s := range forward {
		if got := s.Ordinal(); got != i {
			t.Errorf("ordinal of %s: expected %d, got %d", s, i, got)
		}
	}

	for _, s := range []Stage{StageRejected, StageNeedsInfo, StageFailed} {
		if got := s.Ordinal(); got != -1 {
			t.Errorf("expected error stage %s to have ordinal -1, got %d", s, got)
		}
		if !s.IsError() {
			t.Errorf("expected %s to be an error stage", s)
		}
		if !s.IsTerminal() {
			t.Errorf("expected error stage %s to read as terminal", s)
		}
	}

	if StageApproved.IsError() {
		t.Error("approved must not be an error stage")
	}
	if !StageApproved.IsTerminal() {
		t.Error("approved must be terminal")
	}
	if StageSubmitted.IsTerminal() {
		t.Error("submitted is not terminal")
	}
}

func TestCheckTransition_ForwardPath(t *testing.T) {
	steps := [][2]Stage{
		{StageIntake, StageReady},
		{StageReady, StageQueued},
		{StageQueued, StageSubmitting},
		{StageSubmitting, StageSubmitted},
		{StageSubmitted, StageApproved},
	}
	for _, edge := range steps {
		if err := CheckTransition(edge[0], edge[1]); err != nil {
			t.Errorf("expected %s -> %s to be legal, got %v", edge[0], edge[1], err)
		}
	}
}

func TestCheckTransition_SelfIsNoOp(t *testing.T) {
	if err := CheckTransition(StageSubmitted, StageSubmitted); err != nil {
		t.Fatalf("expected self-transition to pass, got %v", err)
	}
}

func TestCheckTransition_Regression(t *testing.T) {
	err := CheckTransition(StageSubmitted, StageQueued)
	if !errors.Is(err, ErrStageRegression) {
		t.Fatalf("expected ErrStageRegression, got %v", err)
	}

	// Approved is final; any move backwards reads as a regression.
	for _, to := range []Stage{StageIntake, StageQueued, StageSubmitted} {
		err = CheckTransition(StageApproved, to)
		if !errors.Is(err, ErrStageRegression) {
			t.Fatalf("expected ErrStageRegression for approved -> %s, got %v", to, err)
		}
	}
}

func TestCheckTransition_IllegalEdges(t *testing.T) {
	cases := [][2]Stage{
		{StageIntake, StageQueued},    // skips ready
		{StageIntake, StageSubmitted}, // skips the pipeline
		{StageReady, StageFailed},     // errors only once automation is in flight
	}
	for _, edge := range cases {
		err := CheckTransition(edge[0], edge[1])
		if !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("expected ErrIllegalTransition for %s -> %s, got %v", edge[0], edge[1], err)
		}
	}
}

func TestCheckTransition_InvalidTarget(t *testing.T) {
	err := CheckTransition(StageIntake, "done")
	if !errors.Is(err, ErrInvalidStage) {
		t.Fatalf("expected ErrInvalidStage, got %v", err)
	}
}

func TestCheckTransition_ErrorsRenderSinglePrefix(t *testing.T) {
	for _, err := range []error{
		CheckTransition(StageIntake, "done"),
		CheckTransition(StageSubmitted, StageQueued),
		CheckTransition(StageReady, StageNeedsInfo),
	} {
		if err == nil {
			t.Fatal("expected a transition error")
		}
		if strings.Count(err.Error(), "filing:") != 1 {
			t.Errorf("expected one package prefix, got %q", err)
		}
	}
}

func TestCheckTransition_RequeueFromErrorStages(t *testing.T) {
	for _, from := range []Stage{StageRejected, StageNeedsInfo, StageFailed} {
		if err := CheckTransition(from, StageQueued); err != nil {
			t.Errorf("expected requeue from %s to be legal, got %v", from, err)
		}
	}
}
