package llm

// BuildRecipeJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass it to the model as a structured output constraint and also use it locally
// to validate. When a category taxonomy is provided, 'category' is restricted to it.
func BuildRecipeJSONSchema(allowedCategories []string) map[string]any {
	ingredient := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":   map[string]any{"type": "string", "minLength": 1},
			"amount": map[string]any{"type": "string"},
			"unit":   map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}

	cookingTime := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"prep_minutes":  minutesProp(),
			"cook_minutes":  minutesProp(),
			"total_minutes": minutesProp(),
		},
		"required": []string{"total_minutes"},
	}

	props := map[string]any{
		"recipe_name":  map[string]any{"type": "string", "minLength": 1},
		"category":     map[string]any{"type": "string", "minLength": 1},
		"cooking_time": cookingTime,
		"difficulty":   map[string]any{"type": "string", "enum": []string{"Easy", "Medium", "Hard"}},
		"servings":     map[string]any{"type": "string"},
		"ingredients": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    ingredient,
		},
		"instructions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
		"dietary_info": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"tags": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"notes":      map[string]any{"type": "string"},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	// Constrain category if a taxonomy is provided.
	if len(allowedCategories) > 0 {
		props["category"] = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}

	required := []string{"recipe_name", "category", "cooking_time", "difficulty", "ingredients", "instructions"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func minutesProp() map[string]any {
	return map[string]any{
		"type":    "integer",
		"minimum": 0,
		"maximum": 1440,
	}
}
