package extraction

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/constants"
)

// EventType discriminates progress frames from the two terminal frames.
type EventType string

const (
	EventPhaseUpdate EventType = "phase_update"
	EventCompleted   EventType = "extraction_completed"
	EventError       EventType = "extraction_error"
)

// ExtractionEvent is one append-only log entry for a job. Phase fields are
// set on phase_update events only; Result on extraction_completed; ErrorCode
// and ErrorMessage on extraction_error.
type ExtractionEvent struct {
	Event        EventType             `json:"event"`
	JobID        uuid.UUID             `json:"job_id"`
	Phase        constants.PhaseNumber `json:"phase,omitempty"`
	Status       constants.PhaseStatus `json:"status,omitempty"`
	Progress     int                   `json:"progress,omitempty"`
	Message      string                `json:"message,omitempty"`
	Confidence   float64               `json:"confidence,omitempty"`
	Data         json.RawMessage       `json:"data,omitempty"`
	Result       *ExtractionResult     `json:"result,omitempty"`
	ErrorCode    string                `json:"error_code,omitempty"`
	ErrorMessage string                `json:"error,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}

// Terminal reports whether no further events may follow this one.
func (e ExtractionEvent) Terminal() bool {
	return e.Event == EventCompleted || e.Event == EventError
}

// PhaseState is the reduced view of one phase.
type PhaseState struct {
	Phase      constants.PhaseNumber `json:"phase"`
	Status     constants.PhaseStatus `json:"status"`
	Progress   int                   `json:"progress"`
	Message    string                `json:"message,omitempty"`
	Confidence float64               `json:"confidence,omitempty"`
}

// JobSnapshot is derived state: it is never stored by the orchestrator,
// only computed by folding Reduce over the event log. Progress and current
// phase are therefore functions of the log, not counters that can drift.
type JobSnapshot struct {
	JobID        uuid.UUID                           `json:"job_id"`
	State        constants.JobState                  `json:"state"`
	Phases       [constants.PhaseCount]PhaseState    `json:"phases"`
	Result       *ExtractionResult                   `json:"result,omitempty"`
	ErrorCode    string                              `json:"error_code,omitempty"`
	ErrorMessage string                              `json:"error,omitempty"`
}

// NewSnapshot returns the initial snapshot for a job: pending, all phases
// waiting.
func NewSnapshot(jobID uuid.UUID) JobSnapshot {
	s := JobSnapshot{JobID: jobID, State: constants.JobPending}
	for i := range s.Phases {
		s.Phases[i] = PhaseState{
			Phase:  constants.PhaseNumber(i + 1),
			Status: constants.PhaseWaiting,
		}
	}
	return s
}

// Reduce folds one event into a snapshot. It is pure and enforces the
// transition rules: phase status never moves backwards, progress never
// decreases, and a terminal snapshot absorbs all further events.
func Reduce(s JobSnapshot, ev ExtractionEvent) JobSnapshot {
	if s.State.Terminal() {
		return s
	}
	switch ev.Event {
	case EventPhaseUpdate:
		s.State = constants.JobRunning
		idx := int(ev.Phase) - 1
		if idx < 0 || idx >= constants.PhaseCount {
			return s
		}
		p := s.Phases[idx]
		if p.Status.CanTransition(ev.Status) {
			p.Status = ev.Status
		} else if p.Status != ev.Status {
			return s
		}
		if ev.Progress > p.Progress {
			p.Progress = ev.Progress
		}
		if ev.Message != "" {
			p.Message = ev.Message
		}
		if ev.Confidence > 0 {
			p.Confidence = ev.Confidence
		}
		if p.Status.Terminal() && p.Progress < 100 {
			p.Progress = 100
		}
		s.Phases[idx] = p
	case EventCompleted:
		s.State = constants.JobCompleted
		s.Result = ev.Result
	case EventError:
		s.State = constants.JobFailed
		s.ErrorCode = ev.ErrorCode
		s.ErrorMessage = ev.ErrorMessage
	}
	return s
}

// ReduceAll folds an entire event log.
func ReduceAll(jobID uuid.UUID, events []ExtractionEvent) JobSnapshot {
	s := NewSnapshot(jobID)
	for _, ev := range events {
		s = Reduce(s, ev)
	}
	return s
}

// OverallProgress derives job progress as the mean of per-phase progress.
// Skipped phases count as complete so an audio-less job still reaches 100.
func (s JobSnapshot) OverallProgress() int {
	total := 0
	for _, p := range s.Phases {
		total += p.Progress
	}
	return total / constants.PhaseCount
}

// CurrentPhase is the lowest phase that has not finished, or the last phase
// once everything is terminal.
func (s JobSnapshot) CurrentPhase() constants.PhaseNumber {
	for _, p := range s.Phases {
		if !p.Status.Terminal() {
			return p.Phase
		}
	}
	return constants.PhaseFinalStructure
}
