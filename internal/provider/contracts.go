package provider

import (
	"context"

	"github.com/reelbites/recipe-extractor/constants"
	"github.com/reelbites/recipe-extractor/internal/common"
)

// ErrEmptyCaption is returned when a post resolves but carries no usable
// text at all.
var ErrEmptyCaption = common.FetchError("post has no caption or description", nil)

// SourceContent is what the content-fetch collaborator hands back for a
// validated post URL. The raw media itself never enters this process;
// provider calls reference it by URL.
type SourceContent struct {
	SourceURL    string
	PostType     constants.PostType
	Caption      string
	Description  string
	ThumbnailURL string
	VideoURL     string
	AuthorName   string
}

// ContentFetcher resolves a post URL into captions and media pointers.
type ContentFetcher interface {
	Fetch(ctx context.Context, sourceURL string) (SourceContent, error)
}

// Classification is a zero-shot label score pair.
type Classification struct {
	Label string
	Score float64
}

// TextClassifier is the zero-shot classification capability used by the
// text phase for recipe categorization.
type TextClassifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]Classification, error)
}

// VisionResult carries what frame analysis recovered from the video.
type VisionResult struct {
	Ingredients []string
	OCRText     string
	FrameCount  int
	Confidence  float64
}

// VisionAnalyzer is the frame-analysis capability behind the visual phase.
type VisionAnalyzer interface {
	AnalyzeFrames(ctx context.Context, videoURL string) (VisionResult, error)
}

// TimeIndicator is a spoken duration reference found in the transcript.
type TimeIndicator struct {
	Text    string
	Minutes int
}

// TranscriptResult carries speech transcription output for the audio phase.
type TranscriptResult struct {
	Transcription  string
	Instructions   []string
	TimeIndicators []TimeIndicator
	Confidence     float64
}

// SpeechTranscriber is the speech-to-text capability behind the audio phase.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, videoURL string) (TranscriptResult, error)
}
