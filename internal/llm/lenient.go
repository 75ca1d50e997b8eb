package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

var optListFields = []string{"dietary_info", "tags"} // optional only

// SanitizeRecipeFields removes or normalizes fields that don't meet our
// stricter schema so the overall document can still validate. Required
// fields are only coerced, never dropped; optionals may be dropped.
func SanitizeRecipeFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var touched []string

	// difficulty: fold casing and close synonyms onto the enum
	if v, ok := m["difficulty"].(string); ok {
		norm := normalizeDifficulty(v)
		if norm != v {
			m["difficulty"] = norm
			touched = append(touched, "difficulty")
		}
	}

	// confidence: clamp into [0,1], drop non-numeric
	if v, ok := m["confidence"]; ok {
		switch t := v.(type) {
		case float64:
			if t < 0 {
				m["confidence"] = 0.0
				touched = append(touched, "confidence")
			} else if t > 1 {
				m["confidence"] = 1.0
				touched = append(touched, "confidence")
			}
		default:
			delete(m, "confidence")
			touched = append(touched, "confidence")
		}
	}

	// instructions: models sometimes return one newline-joined string
	if v, ok := m["instructions"].(string); ok {
		var steps []any
		for _, line := range strings.Split(v, "\n") {
			if s := strings.TrimSpace(line); s != "" {
				steps = append(steps, s)
			}
		}
		m["instructions"] = steps
		touched = append(touched, "instructions")
	}

	// ingredients: accept plain strings and wrap them as {name}
	if list, ok := m["ingredients"].([]any); ok {
		changed := false
		for i, item := range list {
			if s, isStr := item.(string); isStr {
				list[i] = map[string]any{"name": strings.TrimSpace(s)}
				changed = true
			}
		}
		if changed {
			m["ingredients"] = list
			touched = append(touched, "ingredients")
		}
	}

	// cooking_time: accept a bare number of minutes
	switch t := m["cooking_time"].(type) {
	case float64:
		m["cooking_time"] = map[string]any{"total_minutes": int(t)}
		touched = append(touched, "cooking_time")
	case map[string]any:
		if coerceMinutes(t) {
			touched = append(touched, "cooking_time")
		}
	}

	// servings: accept numbers
	if v, ok := m["servings"].(float64); ok {
		m["servings"] = fmt.Sprintf("%d", int(v))
		touched = append(touched, "servings")
	}

	// optional lists: drop null or wrong-typed values entirely
	for _, k := range optListFields {
		if v, ok := m[k]; ok {
			switch v.(type) {
			case nil:
				delete(m, k)
				touched = append(touched, k)
			case []any:
				// ok
			default:
				delete(m, k)
				touched = append(touched, k)
			}
		}
	}

	// drop null optionals generically
	for _, k := range []string{"notes", "servings"} {
		if v, ok := m[k]; ok && v == nil {
			delete(m, k)
			touched = append(touched, k)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, touched, err
	}
	return b, touched, nil
}

func normalizeDifficulty(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "easy", "beginner", "simple":
		return "Easy"
	case "medium", "intermediate", "moderate":
		return "Medium"
	case "hard", "difficult", "advanced", "expert":
		return "Hard"
	default:
		s := strings.TrimSpace(v)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	}
}

// coerceMinutes turns float minute fields into integers in place.
func coerceMinutes(ct map[string]any) bool {
	changed := false
	for _, k := range []string{"prep_minutes", "cook_minutes", "total_minutes"} {
		if v, ok := ct[k].(float64); ok && v != float64(int(v)) {
			ct[k] = int(v)
			changed = true
		}
	}
	return changed
}
