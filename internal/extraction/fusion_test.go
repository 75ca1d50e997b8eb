package extraction

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/reelbites/recipe-extractor/constants"
)

func textOutput() PhaseOutput {
	return PhaseOutput{
		Phase:              constants.PhaseText,
		Source:             constants.SourceText,
		Title:              "Garlic Butter Pasta",
		Category:           "Main Course",
		Difficulty:         "Easy",
		CookingTimeMinutes: 20,
		Ingredients:        []string{"pasta", "garlic", "butter"},
		Tags:               []string{"pasta", "quick"},
		Confidence:         0.8,
	}
}

func audioOutput() PhaseOutput {
	return PhaseOutput{
		Phase:              constants.PhaseAudio,
		Source:             constants.SourceAudio,
		CookingTimeMinutes: 25,
		Ingredients:        []string{"Garlic", "parmesan"},
		Instructions:       []string{"Boil the pasta", "Melt the butter"},
		FieldScores: map[string]float64{
			FieldInstructions: 0.9,
			FieldCookingTime:  0.9,
		},
		Confidence: 0.7,
	}
}

func TestFuseDeterministic(t *testing.T) {
	f := NewFuser(DefaultWeights())
	in := []PhaseOutput{textOutput(), audioOutput()}

	a, err := json.Marshal(f.Fuse(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		b, err := json.Marshal(f.Fuse(in))
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Fatalf("fusion not deterministic:\n%s\n%s", a, b)
		}
	}
}

func TestFuseInputOrderIrrelevant(t *testing.T) {
	f := NewFuser(DefaultWeights())
	a, _ := json.Marshal(f.Fuse([]PhaseOutput{textOutput(), audioOutput()}))
	b, _ := json.Marshal(f.Fuse([]PhaseOutput{audioOutput(), textOutput()}))
	if string(a) != string(b) {
		t.Fatalf("fusion depends on input order:\n%s\n%s", a, b)
	}
}

func TestFuseTextOnlyWeights(t *testing.T) {
	f := NewFuser(DefaultWeights())
	res := f.Fuse([]PhaseOutput{textOutput()})

	if len(res.SourceWeights) != 1 {
		t.Fatalf("want 1 source weight, got %v", res.SourceWeights)
	}
	if w := res.SourceWeights[constants.SourceText]; math.Abs(w-1.0) > 1e-9 {
		t.Fatalf("text-only weight = %v, want 1.0", w)
	}
	if math.Abs(res.Confidence-0.8) > 1e-9 {
		t.Fatalf("confidence = %v, want the text confidence 0.8", res.Confidence)
	}
}

func TestFuseRenormalizesOverPresentSources(t *testing.T) {
	f := NewFuser(DefaultWeights())
	res := f.Fuse([]PhaseOutput{textOutput(), audioOutput()})

	// text 0.5 and audio 0.3 renormalize to 0.625 and 0.375.
	if w := res.SourceWeights[constants.SourceText]; math.Abs(w-0.625) > 1e-9 {
		t.Errorf("text weight = %v, want 0.625", w)
	}
	if w := res.SourceWeights[constants.SourceAudio]; math.Abs(w-0.375) > 1e-9 {
		t.Errorf("audio weight = %v, want 0.375", w)
	}
	if _, ok := res.SourceWeights[constants.SourceVisual]; ok {
		t.Error("absent source must not appear in weights")
	}
}

func TestFuseScalarHighestConfidenceWins(t *testing.T) {
	f := NewFuser(DefaultWeights())
	res := f.Fuse([]PhaseOutput{textOutput(), audioOutput()})

	// The audio phase scored cooking_time at 0.9, above the text phase's
	// overall 0.8, so its value wins.
	if res.CookingTimeMinutes != 25 {
		t.Errorf("cooking time = %d, want the audio value 25", res.CookingTimeMinutes)
	}
	// But the field confidence reflects both contributors.
	fc := res.Fields[FieldCookingTime]
	want := 0.625*0.8 + 0.375*0.9
	if math.Abs(fc.Score-want) > 1e-9 {
		t.Errorf("cooking_time score = %v, want weighted average %v", fc.Score, want)
	}
	if len(fc.DataSources) != 2 {
		t.Errorf("cooking_time sources = %v, want text and audio", fc.DataSources)
	}
}

func TestFuseServingsHighestConfidenceWins(t *testing.T) {
	f := NewFuser(DefaultWeights())
	text := textOutput()
	text.Servings = 4
	audio := audioOutput()
	audio.Servings = 6
	audio.FieldScores[FieldServings] = 0.9

	res := f.Fuse([]PhaseOutput{text, audio})
	if res.Servings != 6 {
		t.Errorf("Servings = %d, want the higher-scored audio value 6", res.Servings)
	}
	fc, ok := res.Fields[FieldServings]
	if !ok {
		t.Fatal("no field confidence recorded for servings")
	}
	if len(fc.DataSources) != 2 {
		t.Errorf("servings sources = %v, want text and audio", fc.DataSources)
	}
}

func TestFuseInstructionsTakenWholesale(t *testing.T) {
	f := NewFuser(DefaultWeights())
	res := f.Fuse([]PhaseOutput{textOutput(), audioOutput()})
	if len(res.Instructions) != 2 || res.Instructions[0] != "Boil the pasta" {
		t.Fatalf("instructions = %v, want the audio steps intact", res.Instructions)
	}
}

func TestFuseListUnionDeduplicates(t *testing.T) {
	f := NewFuser(DefaultWeights())
	res := f.Fuse([]PhaseOutput{textOutput(), audioOutput()})

	// "garlic" appears in both phases with different casing; the union
	// keeps one entry, first surface form.
	count := 0
	for _, ing := range res.Ingredients {
		if normalizeItem(ing) == "garlic" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("garlic appears %d times in %v", count, res.Ingredients)
	}
	// Audio-only parmesan still makes it in.
	found := false
	for _, ing := range res.Ingredients {
		if normalizeItem(ing) == "parmesan" {
			found = true
		}
	}
	if !found {
		t.Fatalf("parmesan missing from union %v", res.Ingredients)
	}
}

func TestFuseEmptyFieldDoesNotContribute(t *testing.T) {
	f := NewFuser(DefaultWeights())
	res := f.Fuse([]PhaseOutput{textOutput(), audioOutput()})

	// Audio has no title, so the title field tracks a single source.
	fc := res.Fields[FieldTitle]
	if len(fc.DataSources) != 1 || fc.DataSources[0] != constants.SourceText {
		t.Fatalf("title sources = %v, want text only", fc.DataSources)
	}
	if res.Title != "Garlic Butter Pasta" {
		t.Fatalf("title = %q", res.Title)
	}
}
