package extraction

import (
	"testing"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/constants"
)

func phaseEvent(p constants.PhaseNumber, status constants.PhaseStatus, progress int) ExtractionEvent {
	return ExtractionEvent{Event: EventPhaseUpdate, Phase: p, Status: status, Progress: progress}
}

func TestReduceInitialSnapshot(t *testing.T) {
	s := NewSnapshot(uuid.New())
	if s.State != constants.JobPending {
		t.Fatalf("state = %v, want pending", s.State)
	}
	for i, p := range s.Phases {
		if p.Status != constants.PhaseWaiting {
			t.Errorf("phase %d status = %v, want waiting", i+1, p.Status)
		}
	}
	if got := s.OverallProgress(); got != 0 {
		t.Fatalf("progress = %d, want 0", got)
	}
	if got := s.CurrentPhase(); got != constants.PhaseText {
		t.Fatalf("current phase = %v, want 1", got)
	}
}

func TestReducePhaseStatusNeverRegresses(t *testing.T) {
	s := NewSnapshot(uuid.New())
	s = Reduce(s, phaseEvent(constants.PhaseText, constants.PhaseCompleted, 100))
	s = Reduce(s, phaseEvent(constants.PhaseText, constants.PhaseProcessing, 10))

	p := s.Phases[0]
	if p.Status != constants.PhaseCompleted {
		t.Fatalf("status regressed to %v", p.Status)
	}
	if p.Progress != 100 {
		t.Fatalf("progress regressed to %d", p.Progress)
	}
}

func TestReduceProgressMonotonic(t *testing.T) {
	s := NewSnapshot(uuid.New())
	s = Reduce(s, phaseEvent(constants.PhaseText, constants.PhaseProcessing, 40))
	s = Reduce(s, phaseEvent(constants.PhaseText, constants.PhaseProcessing, 25))
	if s.Phases[0].Progress != 40 {
		t.Fatalf("progress = %d, want 40", s.Phases[0].Progress)
	}
}

func TestReduceTerminalAbsorbsEverything(t *testing.T) {
	s := NewSnapshot(uuid.New())
	s = Reduce(s, ExtractionEvent{Event: EventError, ErrorCode: "FETCH", ErrorMessage: "gone"})
	if s.State != constants.JobFailed {
		t.Fatalf("state = %v, want failed", s.State)
	}
	after := Reduce(s, phaseEvent(constants.PhaseText, constants.PhaseProcessing, 50))
	if after.Phases[0].Status != constants.PhaseWaiting {
		t.Fatal("terminal snapshot accepted a phase update")
	}
}

func TestReduceCompletedCarriesResult(t *testing.T) {
	jobID := uuid.New()
	s := NewSnapshot(jobID)
	res := &ExtractionResult{JobID: jobID, Structured: true}
	s = Reduce(s, ExtractionEvent{Event: EventCompleted, Result: res})
	if s.State != constants.JobCompleted || s.Result != res {
		t.Fatalf("state = %v result = %v", s.State, s.Result)
	}
}

func TestOverallProgressCountsSkippedAsDone(t *testing.T) {
	s := NewSnapshot(uuid.New())
	events := []ExtractionEvent{
		phaseEvent(constants.PhaseText, constants.PhaseCompleted, 100),
		phaseEvent(constants.PhaseVisual, constants.PhaseSkipped, 100),
		phaseEvent(constants.PhaseAudio, constants.PhaseSkipped, 100),
		phaseEvent(constants.PhaseFusion, constants.PhaseCompleted, 100),
		phaseEvent(constants.PhaseFinalStructure, constants.PhaseCompleted, 100),
	}
	for _, ev := range events {
		s = Reduce(s, ev)
	}
	if got := s.OverallProgress(); got != 100 {
		t.Fatalf("progress = %d, want 100", got)
	}
}

func TestCurrentPhaseAdvances(t *testing.T) {
	s := NewSnapshot(uuid.New())
	s = Reduce(s, phaseEvent(constants.PhaseText, constants.PhaseCompleted, 100))
	s = Reduce(s, phaseEvent(constants.PhaseVisual, constants.PhaseFailed, 100))
	if got := s.CurrentPhase(); got != constants.PhaseAudio {
		t.Fatalf("current phase = %v, want audio", got)
	}
}

func TestReduceAllMatchesStepwise(t *testing.T) {
	jobID := uuid.New()
	events := []ExtractionEvent{
		phaseEvent(constants.PhaseText, constants.PhaseProcessing, 25),
		phaseEvent(constants.PhaseText, constants.PhaseCompleted, 100),
		{Event: EventCompleted, Result: &ExtractionResult{JobID: jobID}},
	}
	step := NewSnapshot(jobID)
	for _, ev := range events {
		step = Reduce(step, ev)
	}
	all := ReduceAll(jobID, events)
	if step.State != all.State || step.Phases != all.Phases {
		t.Fatal("ReduceAll disagrees with stepwise reduction")
	}
}
