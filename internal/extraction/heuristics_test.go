package extraction

import (
	"strings"
	"testing"
)

func TestExtractIngredients(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple caption",
			text: "Creamy garlic butter chicken with rice",
			want: []string{"chicken", "butter", "rice", "garlic"},
		},
		{
			name: "multi-word before single",
			text: "drizzle with olive oil",
			want: []string{"olive oil"},
		},
		{
			name: "word boundaries respected",
			text: "pricey dishes", // "rice" inside "pricey" must not match
			want: nil,
		},
		{
			name: "no ingredients",
			text: "follow for more content!",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractIngredients(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for _, w := range tt.want {
				found := false
				for _, g := range got {
					if g == w {
						found = true
					}
				}
				if !found {
					t.Errorf("missing %q in %v", w, got)
				}
			}
		})
	}
}

func TestExtractCookingTime(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"ready in 30 minutes", 30},
		{"bake for 1 hour", 60},
		{"2 hrs slow cooked", 120},
		{"takes 45 min total", 45},
		{"20-25 minutes in the oven", 20},
		{"no time mentioned", 0},
	}
	for _, tt := range tests {
		if got := ExtractCookingTime(tt.text); got != tt.want {
			t.Errorf("ExtractCookingTime(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestExtractDietaryInfo(t *testing.T) {
	got := ExtractDietaryInfo("This vegan, gluten free bowl is so good #plantbased")
	wantLabels := map[string]bool{"vegan": true, "gluten-free": true}
	for _, label := range got {
		if !wantLabels[label] {
			t.Errorf("unexpected label %q", label)
		}
		delete(wantLabels, label)
	}
	for label := range wantLabels {
		t.Errorf("missing label %q in %v", label, got)
	}
}

func TestExtractTags(t *testing.T) {
	got := ExtractTags("Best pasta ever #pasta #Dinner #fyp #pasta")
	if len(got) != 2 {
		t.Fatalf("tags = %v, want pasta and dinner only", got)
	}
	if got[0] != "pasta" || got[1] != "dinner" {
		t.Fatalf("tags = %v", got)
	}
}

func TestExtractServings(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Serves 4 hungry people", 4},
		{"servings: 12", 12},
		{"makes 2 portions", 0},
		{"Portions: 6", 6},
		{"no serving info here", 0},
	}
	for _, tc := range tests {
		if got := ExtractServings(tc.text); got != tc.want {
			t.Errorf("ExtractServings(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestEstimateDifficulty(t *testing.T) {
	tests := []struct {
		name        string
		ingredients int
		minutes     int
		text        string
		want        string
	}{
		{"quick and few", 3, 15, "easy weeknight dinner", "Easy"},
		{"long cook", 6, 120, "braised short ribs", "Hard"},
		{"technique heavy", 4, 30, "temper the chocolate then knead the dough", "Medium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ings := make([]string, tt.ingredients)
			if got := EstimateDifficulty(ings, tt.minutes, tt.text); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitleFromCaption(t *testing.T) {
	tests := []struct {
		caption string
		want    string
	}{
		{"Garlic Butter Pasta \n\nRecipe below!", "Garlic Butter Pasta"},
		{"#foodie #pasta\nCreamy Tuscan Chicken", "Creamy Tuscan Chicken"},
		{"@someuser\n", ""},
		{strings.Repeat("x", 200), strings.Repeat("x", 80)},
	}
	for _, tt := range tests {
		if got := TitleFromCaption(tt.caption); got != tt.want {
			t.Errorf("TitleFromCaption(%.30q) = %q, want %q", tt.caption, got, tt.want)
		}
	}
}

func TestTextConfidenceBounds(t *testing.T) {
	min := TextConfidence("", nil, 0, nil)
	max := TextConfidence("Title", []string{"a", "b", "c", "d"}, 30, []string{"t"})
	if min <= 0 || min >= max {
		t.Fatalf("min=%v max=%v", min, max)
	}
	if max > 0.85 {
		t.Fatalf("confidence %v exceeds heuristic cap", max)
	}
}
