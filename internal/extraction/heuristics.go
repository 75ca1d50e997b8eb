package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// Caption analysis is deliberately lexicon-based: captions are short,
// hashtag-heavy, and multilingual enough that a full NLP pass buys little
// over keyword matching, and this path must keep working when every remote
// provider is down.

var ingredientLexicon = []string{
	"chicken", "beef", "pork", "lamb", "fish", "salmon", "tuna", "shrimp",
	"egg", "eggs", "tofu", "cheese", "butter", "milk", "cream", "yogurt",
	"flour", "sugar", "salt", "pepper", "oil", "olive oil", "garlic",
	"onion", "tomato", "potato", "carrot", "spinach", "mushroom", "rice",
	"pasta", "noodles", "bread", "lemon", "lime", "ginger", "basil",
	"cilantro", "parsley", "thyme", "oregano", "cumin", "paprika",
	"cinnamon", "vanilla", "chocolate", "honey", "soy sauce", "vinegar",
	"avocado", "beans", "chickpeas", "lentils", "corn", "peas", "broccoli",
	"cauliflower", "zucchini", "eggplant", "bacon", "sausage", "turkey",
}

var dietaryPatterns = map[string][]string{
	"vegetarian":  {"vegetarian", "veggie", "meatless"},
	"vegan":       {"vegan", "plant-based", "plant based", "dairy-free and egg-free"},
	"gluten-free": {"gluten-free", "gluten free", "glutenfree", "no gluten"},
	"dairy-free":  {"dairy-free", "dairy free", "lactose-free", "no dairy"},
	"keto":        {"keto", "ketogenic", "low-carb", "low carb"},
	"paleo":       {"paleo", "whole30"},
	"nut-free":    {"nut-free", "nut free", "no nuts"},
	"healthy":     {"healthy", "light", "low-fat", "low fat", "low-calorie"},
}

var (
	reCookingTime = regexp.MustCompile(`(?i)(\d+)\s*(?:-\s*\d+\s*)?(minutes?|mins?|hours?|hrs?|h\b|m\b)`)
	reHashtag     = regexp.MustCompile(`#(\w+)`)
	reServings    = regexp.MustCompile(`(?i)(?:serves?|servings?|portions?)[:\s]*(\d+)`)
)

// ExtractIngredients scans text for known ingredient terms, matching on
// word boundaries. A term contained in a longer matched term is dropped,
// so "olive oil" suppresses "oil".
func ExtractIngredients(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	seen := make(map[string]bool)
	for _, ing := range ingredientLexicon {
		if seen[ing] || !containsWord(lower, ing) {
			continue
		}
		seen[ing] = true
		// "eggs" and "egg" collapse to the singular.
		if ing == "eggs" && seen["egg"] {
			continue
		}
		matched = append(matched, ing)
	}

	var found []string
	for _, ing := range matched {
		shadowed := false
		for _, other := range matched {
			if other != ing && containsWord(other, ing) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			found = append(found, ing)
		}
	}
	return found
}

func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordByte(haystack[start-1])
		afterOK := end == len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// ExtractCookingTime returns the total minutes implied by the first time
// expression in the text, or 0 when none is found.
func ExtractCookingTime(text string) int {
	m := reCookingTime.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	unit := strings.ToLower(m[2])
	if strings.HasPrefix(unit, "h") {
		return n * 60
	}
	return n
}

// ExtractDietaryInfo maps marketing phrases and hashtags to canonical
// dietary labels.
func ExtractDietaryInfo(text string) []string {
	lower := strings.ToLower(text)
	var labels []string
	for _, label := range []string{"vegetarian", "vegan", "gluten-free", "dairy-free", "keto", "paleo", "nut-free", "healthy"} {
		for _, pat := range dietaryPatterns[label] {
			if strings.Contains(lower, pat) {
				labels = append(labels, label)
				break
			}
		}
	}
	return labels
}

// ExtractTags pulls hashtags, lowercased, minus bare noise tags.
func ExtractTags(text string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, m := range reHashtag.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(m[1])
		switch tag {
		case "fyp", "foryou", "viral", "trending", "explore":
			continue
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// ExtractServings returns the stated serving count, or 0.
func ExtractServings(text string) int {
	m := reServings.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// EstimateDifficulty scores a caption by ingredient count, stated time and
// technique words.
func EstimateDifficulty(ingredients []string, cookingMinutes int, text string) string {
	score := 0
	if len(ingredients) > 8 {
		score += 2
	} else if len(ingredients) > 5 {
		score++
	}
	if cookingMinutes > 90 {
		score += 2
	} else if cookingMinutes > 45 {
		score++
	}
	lower := strings.ToLower(text)
	for _, hard := range []string{"sous vide", "temper", "proof", "knead", "ferment", "julienne", "reduction", "emulsify"} {
		if strings.Contains(lower, hard) {
			score++
		}
	}
	for _, easy := range []string{"easy", "simple", "quick", "5 minute", "no bake", "one pot", "beginner"} {
		if strings.Contains(lower, easy) {
			score--
		}
	}
	switch {
	case score >= 3:
		return "Hard"
	case score >= 1:
		return "Medium"
	default:
		return "Easy"
	}
}

// TitleFromCaption takes the first non-hashtag line of a caption, trimmed
// to something title-sized.
func TitleFromCaption(caption string) string {
	for _, line := range strings.Split(caption, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "@") {
			continue
		}
		line = reHashtag.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.Trim(line, " -|:•"))
		if line == "" {
			continue
		}
		if len(line) > 80 {
			line = strings.TrimSpace(line[:80])
		}
		return line
	}
	return ""
}

// TextConfidence scores how recipe-like a caption is from the signals the
// heuristics recovered.
func TextConfidence(title string, ingredients []string, cookingMinutes int, tags []string) float64 {
	c := 0.2
	if title != "" {
		c += 0.15
	}
	if n := len(ingredients); n > 0 {
		c += 0.2
		if n >= 4 {
			c += 0.1
		}
	}
	if cookingMinutes > 0 {
		c += 0.15
	}
	if len(tags) > 0 {
		c += 0.05
	}
	if c > 0.85 {
		c = 0.85
	}
	return c
}
