package llm

import (
	"context"
	"encoding/json"
)

// Ingredient is one structured ingredient line.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

// CookingTime splits the total into prep and active cooking minutes.
type CookingTime struct {
	PrepMinutes  int `json:"prep_minutes,omitempty"`
	CookMinutes  int `json:"cook_minutes,omitempty"`
	TotalMinutes int `json:"total_minutes"`
}

// StructuredRecipe is the normalized shape we want from the LLM.
type StructuredRecipe struct {
	RecipeName   string       `json:"recipe_name"`
	Category     string       `json:"category"`
	CookingTime  CookingTime  `json:"cooking_time"`
	Difficulty   string       `json:"difficulty"`
	Servings     string       `json:"servings,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	DietaryInfo  []string     `json:"dietary_info,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Confidence   float64      `json:"confidence,omitempty"` // optional (0..1)
}

// StructureRequest packages everything the structuring model gets to see:
// the fused draft plus the raw multimodal inputs it was derived from.
type StructureRequest struct {
	SourceURL         string
	Caption           string
	Transcription     string
	OCRText           string
	FusionDraft       json.RawMessage
	AllowedCategories []string
}

// RecipeStructurer is the interface the orchestrator depends on for phase 5.
type RecipeStructurer interface {
	Structure(ctx context.Context, req StructureRequest) (StructuredRecipe, []byte /*rawJSON*/, error)
}
