package constants

import (
	"strings"
)

type Category string

const (
	MainCourse Category = "Main Course"
	Desserts   Category = "Desserts"
	Starters   Category = "Starters"
	Beverages  Category = "Beverages"
	Snacks     Category = "Snacks"
	Breakfast  Category = "Breakfast"
	Salads     Category = "Salads"
	Other      Category = "Other"
)

var allCategories = []Category{
	MainCourse,
	Desserts,
	Starters,
	Beverages,
	Snacks,
	Breakfast,
	Salads,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"main":      MainCourse,
		"main dish": MainCourse,
		"entree":    MainCourse,
		"entrée":    MainCourse,
		"dinner":    MainCourse,
		"lunch":     MainCourse,
		"dessert":   Desserts,
		"sweet":     Desserts,
		"baking":    Desserts,
		"starter":   Starters,
		"appetizer": Starters,
		"appetiser": Starters,
		"side":      Starters,
		"drink":     Beverages,
		"beverage":  Beverages,
		"cocktail":  Beverages,
		"smoothie":  Beverages,
		"snack":     Snacks,
		"brunch":    Breakfast,
		"salad":     Salads,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}

// Difficulty levels as emitted by the structuring model.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func Difficulties() []string {
	return []string{string(DifficultyEasy), string(DifficultyMedium), string(DifficultyHard)}
}

// CanonicalizeDifficulty folds arbitrary model/extractor output onto the
// three supported levels.
func CanonicalizeDifficulty(input string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "easy", "beginner", "simple":
		return DifficultyEasy, true
	case "medium", "intermediate", "moderate":
		return DifficultyMedium, true
	case "hard", "difficult", "advanced", "expert":
		return DifficultyHard, true
	default:
		return DifficultyMedium, false
	}
}
