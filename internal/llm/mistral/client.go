package mistral

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/internal/llm"
	"github.com/reelbites/recipe-extractor/internal/provider"
)

// Structure implements llm.RecipeStructurer using chat/completions with a
// JSON-object response format. The model output is validated against the
// recipe schema; a lenient sanitize pass may rescue near-miss documents.
func (c *Client) Structure(ctx context.Context, req llm.StructureRequest) (llm.StructuredRecipe, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.structure.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"caption_len", len(req.Caption),
		"transcript_len", len(req.Transcription),
		"draft_bytes", len(req.FusionDraft),
		"allowed_categories", len(req.AllowedCategories),
	)

	schema := llm.BuildRecipeJSONSchema(req.AllowedCategories)
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var raw []byte
	httpErr := c.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, _, err = provider.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
		return err
	})
	if httpErr != nil {
		c.log.Error("llm.structure.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.StructuredRecipe{}, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.structure.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.StructuredRecipe{}, raw, fmt.Errorf("decode mistral response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.structure.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.StructuredRecipe{}, raw, fmt.Errorf("no choices in mistral response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	rawContent := []byte(stripFences(content))

	// Validate strictly first.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.LenientSanitize {
			c.log.Error("llm.structure.schema_validation_failed",
				"req_id", rid, "error", err, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.StructuredRecipe{}, rawContent, fmt.Errorf("schema validation failed: %w", err)
		}

		// Try a lenient sanitize: normalize offenders and re-validate.
		cleaned, touched, sErr := llm.SanitizeRecipeFields(rawContent)
		if sErr != nil {
			c.log.Error("llm.structure.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.StructuredRecipe{}, rawContent, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.structure.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.StructuredRecipe{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.structure.lenient_sanitize_applied",
			"req_id", rid, "touched", touched,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var recipe llm.StructuredRecipe
	if err := json.Unmarshal(rawContent, &recipe); err != nil {
		return llm.StructuredRecipe{}, rawContent, fmt.Errorf("decode structured recipe: %w", err)
	}

	c.log.Info("llm.structure.success",
		"req_id", rid,
		"recipe_name", recipe.RecipeName,
		"category", recipe.Category,
		"ingredients", len(recipe.Ingredients),
		"instructions", len(recipe.Instructions),
		"confidence", recipe.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return recipe, rawContent, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var _ llm.RecipeStructurer = (*Client)(nil)
