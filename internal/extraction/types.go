package extraction

import (
	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/constants"
	"github.com/reelbites/recipe-extractor/internal/llm"
)

// Options mirrors the public request shape. MaxProcessingTime seeds the
// per-executor time budgets; it does not bound the job as a whole (the
// watchdog does that).
type Options struct {
	EnableVisual      bool `json:"enable_visual_analysis"`
	EnableAudio       bool `json:"enable_audio_transcription"`
	MaxProcessingTime int  `json:"max_processing_time,omitempty"` // seconds
}

// Field names used for per-field confidence accounting.
const (
	FieldTitle        = "title"
	FieldCategory     = "category"
	FieldDifficulty   = "difficulty"
	FieldCookingTime  = "cooking_time"
	FieldServings     = "servings"
	FieldIngredients  = "ingredients"
	FieldInstructions = "instructions"
	FieldDietaryInfo  = "dietary_info"
	FieldTags         = "tags"
)

// FieldConfidence scores one recipe field and records where it came from.
type FieldConfidence struct {
	Field       string                  `json:"field"`
	Score       float64                 `json:"score"`
	DataSources []constants.DataSource  `json:"data_sources"`
	Phases      []constants.PhaseNumber `json:"phases"`
}

// PhaseOutput is what one signal phase (1-3) hands to fusion. A zero value
// for a field means the phase extracted nothing for it.
type PhaseOutput struct {
	Phase              constants.PhaseNumber `json:"phase"`
	Source             constants.DataSource  `json:"source"`
	Title              string                `json:"title,omitempty"`
	Category           string                `json:"category,omitempty"`
	Difficulty         string                `json:"difficulty,omitempty"`
	CookingTimeMinutes int                   `json:"cooking_time_minutes,omitempty"`
	Servings           int                   `json:"servings,omitempty"`
	Ingredients        []string              `json:"ingredients,omitempty"`
	Instructions       []string              `json:"instructions,omitempty"`
	DietaryInfo        []string              `json:"dietary_info,omitempty"`
	Tags               []string              `json:"tags,omitempty"`
	Transcription      string                `json:"transcription,omitempty"`
	OCRText            string                `json:"ocr_text,omitempty"`
	FieldScores        map[string]float64    `json:"field_scores,omitempty"`
	Confidence         float64               `json:"confidence"`
}

// fieldScore returns the per-field confidence, falling back to the phase's
// overall confidence when the executor did not score the field separately.
func (o PhaseOutput) fieldScore(field string) float64 {
	if s, ok := o.FieldScores[field]; ok {
		return s
	}
	return o.Confidence
}

// FusionResult is the phase-4 draft recipe. It must marshal
// deterministically: no timestamps, maps only with sorted-key encoding.
type FusionResult struct {
	Title              string                           `json:"title"`
	Category           string                           `json:"category"`
	Difficulty         string                           `json:"difficulty"`
	CookingTimeMinutes int                              `json:"cooking_time_minutes"`
	Servings           int                              `json:"servings,omitempty"`
	Ingredients        []string                         `json:"ingredients"`
	Instructions       []string                         `json:"instructions,omitempty"`
	DietaryInfo        []string                         `json:"dietary_info,omitempty"`
	Tags               []string                         `json:"tags,omitempty"`
	Fields             map[string]FieldConfidence       `json:"fields"`
	FusionMethod       string                           `json:"fusion_method"`
	SourceWeights      map[constants.DataSource]float64 `json:"source_weights"`
	Confidence         float64                          `json:"confidence"`
}

// DataSources lists the sources that contributed, in phase order.
func (f FusionResult) DataSources() []constants.DataSource {
	ordered := []constants.DataSource{constants.SourceText, constants.SourceVisual, constants.SourceAudio}
	var out []constants.DataSource
	for _, s := range ordered {
		if _, ok := f.SourceWeights[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ExtractionResult is the terminal payload of a job. Structured reports
// whether phase 5 succeeded; when false, Recipe is absent and Fusion is the
// best available draft (graceful degradation, visible to callers).
type ExtractionResult struct {
	JobID       uuid.UUID              `json:"job_id"`
	SourceURL   string                 `json:"source_url"`
	Recipe      *llm.StructuredRecipe  `json:"recipe,omitempty"`
	Fusion      *FusionResult          `json:"fusion"`
	Structured  bool                   `json:"structured"`
	Confidence  float64                `json:"confidence"`
	DataSources []constants.DataSource `json:"data_sources"`
}
