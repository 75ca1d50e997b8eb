package llm

import (
	"encoding/json"
	"testing"

	"github.com/reelbites/recipe-extractor/constants"
)

func sanitize(t *testing.T, in string) map[string]any {
	t.Helper()
	out, _, err := SanitizeRecipeFields([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSanitizeDifficultyCase(t *testing.T) {
	doc := sanitize(t, `{"difficulty":"MEDIUM"}`)
	if doc["difficulty"] != "Medium" {
		t.Fatalf("difficulty = %v", doc["difficulty"])
	}
}

func TestSanitizeConfidenceClamped(t *testing.T) {
	doc := sanitize(t, `{"confidence":1.7}`)
	if doc["confidence"].(float64) != 1.0 {
		t.Fatalf("confidence = %v", doc["confidence"])
	}
	doc = sanitize(t, `{"confidence":-0.2}`)
	if doc["confidence"].(float64) != 0.0 {
		t.Fatalf("confidence = %v", doc["confidence"])
	}
}

func TestSanitizeInstructionsStringToArray(t *testing.T) {
	doc := sanitize(t, `{"instructions":"Boil pasta\nAdd sauce"}`)
	steps, ok := doc["instructions"].([]any)
	if !ok || len(steps) != 2 {
		t.Fatalf("instructions = %v", doc["instructions"])
	}
	if steps[0] != "Boil pasta" {
		t.Fatalf("first step = %v", steps[0])
	}
}

func TestSanitizeIngredientStringsToObjects(t *testing.T) {
	doc := sanitize(t, `{"ingredients":["pasta","garlic"]}`)
	ings, ok := doc["ingredients"].([]any)
	if !ok || len(ings) != 2 {
		t.Fatalf("ingredients = %v", doc["ingredients"])
	}
	first, ok := ings[0].(map[string]any)
	if !ok || first["name"] != "pasta" {
		t.Fatalf("first ingredient = %v", ings[0])
	}
}

func TestSanitizeBareCookingTime(t *testing.T) {
	doc := sanitize(t, `{"cooking_time":35}`)
	ct, ok := doc["cooking_time"].(map[string]any)
	if !ok {
		t.Fatalf("cooking_time = %v", doc["cooking_time"])
	}
	if ct["total_minutes"].(float64) != 35 {
		t.Fatalf("total_minutes = %v", ct["total_minutes"])
	}
}

func TestSanitizeDropsNullOptionals(t *testing.T) {
	doc := sanitize(t, `{"dietary_info":null,"tags":null,"notes":null,"recipe_name":"X"}`)
	for _, key := range []string{"dietary_info", "tags", "notes"} {
		if v, present := doc[key]; present && v == nil {
			t.Errorf("null %s survived sanitization", key)
		}
	}
	if doc["recipe_name"] != "X" {
		t.Fatal("unrelated fields must pass through")
	}
}

func TestSchemaAcceptsCompleteRecipe(t *testing.T) {
	schema := BuildRecipeJSONSchema(constants.AsStringSlice())
	recipe := `{
		"recipe_name": "Garlic Butter Pasta",
		"category": "Main Course",
		"cooking_time": {"prep_minutes": 10, "cook_minutes": 15, "total_minutes": 25},
		"difficulty": "Easy",
		"servings": "4",
		"ingredients": [{"name": "pasta", "amount": "200", "unit": "g"}],
		"instructions": ["Boil the pasta"],
		"dietary_info": ["vegetarian"],
		"tags": ["quick"],
		"notes": "",
		"confidence": 0.9
	}`
	if err := ValidateJSONAgainstSchema(schema, []byte(recipe)); err != nil {
		t.Fatalf("valid recipe rejected: %v", err)
	}
}

func TestSchemaRejectsBadRecipes(t *testing.T) {
	schema := BuildRecipeJSONSchema(constants.AsStringSlice())
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", `{"category":"Main Course","cooking_time":{"total_minutes":5},"difficulty":"Easy","ingredients":[{"name":"x"}],"instructions":["y"]}`},
		{"bad category", `{"recipe_name":"X","category":"Midnight Snacks","cooking_time":{"total_minutes":5},"difficulty":"Easy","ingredients":[{"name":"x"}],"instructions":["y"]}`},
		{"bad difficulty", `{"recipe_name":"X","category":"Main Course","cooking_time":{"total_minutes":5},"difficulty":"Impossible","ingredients":[{"name":"x"}],"instructions":["y"]}`},
		{"empty ingredients", `{"recipe_name":"X","category":"Main Course","cooking_time":{"total_minutes":5},"difficulty":"Easy","ingredients":[],"instructions":["y"]}`},
		{"not json", `not json at all`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateJSONAgainstSchema(schema, []byte(tt.doc)); err == nil {
				t.Error("invalid document accepted")
			}
		})
	}
}

func TestSanitizeThenValidate(t *testing.T) {
	schema := BuildRecipeJSONSchema(constants.AsStringSlice())
	sloppy := `{
		"recipe_name": "Quick Stir Fry",
		"category": "Main Course",
		"cooking_time": 15,
		"difficulty": "easy",
		"ingredients": ["noodles", "soy sauce"],
		"instructions": "Cook noodles\nAdd sauce",
		"confidence": 1.3
	}`
	if err := ValidateJSONAgainstSchema(schema, []byte(sloppy)); err == nil {
		t.Fatal("sloppy document should fail strict validation")
	}
	fixed, notes, err := SanitizeRecipeFields([]byte(sloppy))
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) == 0 {
		t.Fatal("sanitizer reported no repairs")
	}
	if err := ValidateJSONAgainstSchema(schema, fixed); err != nil {
		t.Fatalf("sanitized document still invalid: %v", err)
	}
}
