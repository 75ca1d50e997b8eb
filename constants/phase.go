package constants

// PhaseNumber identifies one step of the extraction pipeline.
// The numbering is fixed: 1-3 are the independent signal phases,
// 4 fuses whatever they produced, 5 is the final LLM structuring pass.
type PhaseNumber int

const (
	PhaseText           PhaseNumber = 1
	PhaseVisual         PhaseNumber = 2
	PhaseAudio          PhaseNumber = 3
	PhaseFusion         PhaseNumber = 4
	PhaseFinalStructure PhaseNumber = 5

	PhaseCount = 5
)

func (p PhaseNumber) Name() string {
	switch p {
	case PhaseText:
		return "Text Analysis"
	case PhaseVisual:
		return "Video Frame Analysis"
	case PhaseAudio:
		return "Audio Transcription"
	case PhaseFusion:
		return "Data Fusion"
	case PhaseFinalStructure:
		return "Final Structuring"
	default:
		return "Unknown"
	}
}

// PhaseStatus is the canonical per-phase status carried on the wire.
// Stable values (emit these exact strings in events).
type PhaseStatus string

const (
	PhaseWaiting    PhaseStatus = "waiting"
	PhaseProcessing PhaseStatus = "processing"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseFailed     PhaseStatus = "failed"
	PhaseSkipped    PhaseStatus = "skipped"
)

// Terminal reports whether a phase has finished one way or another.
func (s PhaseStatus) Terminal() bool {
	return s == PhaseCompleted || s == PhaseFailed || s == PhaseSkipped
}

// rank orders statuses so transitions can be checked for monotonicity.
func (s PhaseStatus) rank() int {
	switch s {
	case PhaseWaiting:
		return 0
	case PhaseProcessing:
		return 1
	case PhaseCompleted, PhaseFailed, PhaseSkipped:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether moving from s to next is a legal,
// non-regressing status change.
func (s PhaseStatus) CanTransition(next PhaseStatus) bool {
	if s == next {
		return true
	}
	return next.rank() > s.rank()
}

// JobState is the job-level lifecycle state.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// DataSource names one modality contributing extracted fields.
type DataSource string

const (
	SourceText   DataSource = "text"
	SourceVisual DataSource = "visual"
	SourceAudio  DataSource = "audio"
)

// SourceForPhase maps a signal phase to its modality. Fusion and final
// structuring have no modality of their own.
func SourceForPhase(p PhaseNumber) (DataSource, bool) {
	switch p {
	case PhaseText:
		return SourceText, true
	case PhaseVisual:
		return SourceVisual, true
	case PhaseAudio:
		return SourceAudio, true
	default:
		return "", false
	}
}
