package extraction

import (
	"context"
	"log/slog"
	"strings"

	"github.com/reelbites/recipe-extractor/constants"
	"github.com/reelbites/recipe-extractor/internal/provider"
)

// PhaseExecutor runs one signal phase against fetched content. Executors
// must honour ctx cancellation and return partial confidence-scored output
// rather than guessing when the signal is weak.
type PhaseExecutor interface {
	Phase() constants.PhaseNumber
	Run(ctx context.Context, content provider.SourceContent) (PhaseOutput, error)
}

// TextExecutor analyzes the caption: heuristics for fields, a zero-shot
// classifier for the category. The classifier is optional; without it the
// category is left for the structuring pass to infer.
type TextExecutor struct {
	classifier provider.TextClassifier
	log        *slog.Logger
}

func NewTextExecutor(classifier provider.TextClassifier, logger *slog.Logger) *TextExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExecutor{classifier: classifier, log: logger}
}

func (e *TextExecutor) Phase() constants.PhaseNumber { return constants.PhaseText }

func (e *TextExecutor) Run(ctx context.Context, content provider.SourceContent) (PhaseOutput, error) {
	text := content.Caption
	if content.Description != "" {
		text = text + "\n" + content.Description
	}
	if strings.TrimSpace(text) == "" {
		return PhaseOutput{}, provider.ErrEmptyCaption
	}

	ingredients := ExtractIngredients(text)
	minutes := ExtractCookingTime(text)
	tags := ExtractTags(text)
	title := TitleFromCaption(text)

	out := PhaseOutput{
		Phase:              constants.PhaseText,
		Source:             constants.SourceText,
		Title:              title,
		CookingTimeMinutes: minutes,
		Servings:           ExtractServings(text),
		Ingredients:        ingredients,
		DietaryInfo:        ExtractDietaryInfo(text),
		Tags:               tags,
		Difficulty:         EstimateDifficulty(ingredients, minutes, text),
		FieldScores:        make(map[string]float64),
		Confidence:         TextConfidence(title, ingredients, minutes, tags),
	}
	out.FieldScores[FieldDifficulty] = 0.5

	if e.classifier != nil {
		category, score, err := e.classify(ctx, text)
		if err != nil {
			// Classification is an enrichment, not a gate.
			e.log.Warn("phase.text.classify_failed", slog.String("error", err.Error()))
		} else if category != "" {
			out.Category = category
			out.FieldScores[FieldCategory] = score
		}
	}
	return out, nil
}

func (e *TextExecutor) classify(ctx context.Context, text string) (string, float64, error) {
	results, err := e.classifier.Classify(ctx, text, constants.AsStringSlice())
	if err != nil {
		return "", 0, err
	}
	if len(results) == 0 || results[0].Score < 0.3 {
		return "", 0, nil
	}
	cat, ok := constants.Canonicalize(results[0].Label)
	if !ok {
		return "", 0, nil
	}
	return string(cat), results[0].Score, nil
}

// VisualExecutor runs object detection and on-screen text recovery over the
// video frames.
type VisualExecutor struct {
	vision provider.VisionAnalyzer
	log    *slog.Logger
}

func NewVisualExecutor(vision provider.VisionAnalyzer, logger *slog.Logger) *VisualExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisualExecutor{vision: vision, log: logger}
}

func (e *VisualExecutor) Phase() constants.PhaseNumber { return constants.PhaseVisual }

func (e *VisualExecutor) Run(ctx context.Context, content provider.SourceContent) (PhaseOutput, error) {
	videoURL := content.VideoURL
	if videoURL == "" {
		videoURL = content.SourceURL
	}
	res, err := e.vision.AnalyzeFrames(ctx, videoURL)
	if err != nil {
		return PhaseOutput{}, err
	}
	out := PhaseOutput{
		Phase:       constants.PhaseVisual,
		Source:      constants.SourceVisual,
		Ingredients: res.Ingredients,
		OCRText:     res.OCRText,
		Confidence:  res.Confidence,
	}
	if res.OCRText != "" {
		if m := ExtractCookingTime(res.OCRText); m > 0 {
			out.CookingTimeMinutes = m
			out.FieldScores = map[string]float64{FieldCookingTime: res.Confidence * 0.8}
		}
	}
	return out, nil
}

// AudioExecutor transcribes the video's audio track. Spoken instructions
// are the strongest instruction signal available, so their field score is
// boosted above the transcript confidence.
type AudioExecutor struct {
	transcriber provider.SpeechTranscriber
	log         *slog.Logger
}

func NewAudioExecutor(transcriber provider.SpeechTranscriber, logger *slog.Logger) *AudioExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AudioExecutor{transcriber: transcriber, log: logger}
}

func (e *AudioExecutor) Phase() constants.PhaseNumber { return constants.PhaseAudio }

func (e *AudioExecutor) Run(ctx context.Context, content provider.SourceContent) (PhaseOutput, error) {
	videoURL := content.VideoURL
	if videoURL == "" {
		videoURL = content.SourceURL
	}
	res, err := e.transcriber.Transcribe(ctx, videoURL)
	if err != nil {
		return PhaseOutput{}, err
	}
	out := PhaseOutput{
		Phase:         constants.PhaseAudio,
		Source:        constants.SourceAudio,
		Instructions:  res.Instructions,
		Transcription: res.Transcription,
		Ingredients:   ExtractIngredients(res.Transcription),
		Servings:      ExtractServings(res.Transcription),
		FieldScores:   make(map[string]float64),
		Confidence:    res.Confidence,
	}
	if len(res.Instructions) > 0 {
		score := res.Confidence * 1.2
		if score > 0.95 {
			score = 0.95
		}
		out.FieldScores[FieldInstructions] = score
	}
	if len(res.TimeIndicators) > 0 {
		total := 0
		for _, ti := range res.TimeIndicators {
			total += ti.Minutes
		}
		out.CookingTimeMinutes = total
		out.FieldScores[FieldCookingTime] = res.Confidence
	}
	return out, nil
}

var (
	_ PhaseExecutor = (*TextExecutor)(nil)
	_ PhaseExecutor = (*VisualExecutor)(nil)
	_ PhaseExecutor = (*AudioExecutor)(nil)
)
