package extraction

import (
	"sort"
	"strings"

	"github.com/reelbites/recipe-extractor/constants"
)

// FusionMethodWeighted is the only fusion strategy currently implemented.
const FusionMethodWeighted = "weighted_confidence"

// Fuser merges phase outputs into a single draft recipe. Fuse is a pure
// function of its inputs: no clocks, no randomness, no map iteration on the
// merge path, so identical inputs always produce identical results.
type Fuser struct {
	weights map[constants.DataSource]float64
}

// NewFuser builds a fuser with the given base source weights. Weights for
// sources absent from a particular job are renormalized away at fuse time.
func NewFuser(weights map[constants.DataSource]float64) *Fuser {
	w := make(map[constants.DataSource]float64, len(weights))
	for s, v := range weights {
		w[s] = v
	}
	return &Fuser{weights: w}
}

// DefaultWeights favours text, then audio, then visual.
func DefaultWeights() map[constants.DataSource]float64 {
	return map[constants.DataSource]float64{
		constants.SourceText:   0.5,
		constants.SourceVisual: 0.2,
		constants.SourceAudio:  0.3,
	}
}

// scalarFields are merged by highest-confidence-wins; listFields by
// normalized union. Instructions are scalar-like: interleaving steps from
// different sources would scramble their order, so the best source wins
// wholesale.
var scalarFields = []string{FieldTitle, FieldCategory, FieldDifficulty, FieldCookingTime, FieldServings, FieldInstructions}

var listFields = []string{FieldIngredients, FieldDietaryInfo, FieldTags}

// Fuse merges the successful phase outputs. Callers pass only outputs from
// phases that completed; at minimum the text phase is present.
func (f *Fuser) Fuse(outputs []PhaseOutput) FusionResult {
	sorted := make([]PhaseOutput, len(outputs))
	copy(sorted, outputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Phase < sorted[j].Phase })

	weights := f.renormalize(sorted)

	res := FusionResult{
		Fields:        make(map[string]FieldConfidence),
		FusionMethod:  FusionMethodWeighted,
		SourceWeights: weights,
	}

	for _, field := range scalarFields {
		f.fuseScalar(&res, sorted, weights, field)
	}
	for _, field := range listFields {
		f.fuseList(&res, sorted, field)
	}

	var sum, wsum float64
	for _, o := range sorted {
		w := weights[o.Source]
		sum += w * o.Confidence
		wsum += w
	}
	if wsum > 0 {
		res.Confidence = sum / wsum
	}
	if res.Ingredients == nil {
		res.Ingredients = []string{}
	}
	return res
}

// renormalize restricts the base weights to the sources actually present
// and rescales them to sum to 1.
func (f *Fuser) renormalize(outputs []PhaseOutput) map[constants.DataSource]float64 {
	present := make(map[constants.DataSource]float64)
	var total float64
	for _, o := range outputs {
		w, ok := f.weights[o.Source]
		if !ok {
			continue
		}
		present[o.Source] = w
		total += w
	}
	if total > 0 {
		for s, w := range present {
			present[s] = w / total
		}
	}
	return present
}

func (f *Fuser) fuseScalar(res *FusionResult, outputs []PhaseOutput, weights map[constants.DataSource]float64, field string) {
	type candidate struct {
		out   PhaseOutput
		score float64
	}
	var candidates []candidate
	for _, o := range outputs {
		if !hasScalar(o, field) {
			continue
		}
		candidates = append(candidates, candidate{out: o, score: o.fieldScore(field)})
	}
	if len(candidates) == 0 {
		return
	}

	// Highest score wins; ties resolve to the lowest phase number, which
	// the earlier sort already guarantees.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}

	fc := FieldConfidence{Field: field}
	var sum, wsum float64
	for _, c := range candidates {
		w := weights[c.out.Source]
		sum += w * c.score
		wsum += w
		fc.DataSources = append(fc.DataSources, c.out.Source)
		fc.Phases = append(fc.Phases, c.out.Phase)
	}
	if wsum > 0 {
		fc.Score = sum / wsum
	}
	res.Fields[field] = fc

	switch field {
	case FieldTitle:
		res.Title = best.out.Title
	case FieldCategory:
		res.Category = best.out.Category
	case FieldDifficulty:
		res.Difficulty = best.out.Difficulty
	case FieldCookingTime:
		res.CookingTimeMinutes = best.out.CookingTimeMinutes
	case FieldServings:
		res.Servings = best.out.Servings
	case FieldInstructions:
		res.Instructions = append([]string(nil), best.out.Instructions...)
	}
}

func (f *Fuser) fuseList(res *FusionResult, outputs []PhaseOutput, field string) {
	type entry struct {
		value string
		score float64
	}
	seen := make(map[string]int)
	var merged []entry
	fc := FieldConfidence{Field: field}

	for _, o := range outputs {
		items := listItems(o, field)
		if len(items) == 0 {
			continue
		}
		score := o.fieldScore(field)
		fc.DataSources = append(fc.DataSources, o.Source)
		fc.Phases = append(fc.Phases, o.Phase)
		for _, item := range items {
			key := normalizeItem(item)
			if key == "" {
				continue
			}
			if idx, ok := seen[key]; ok {
				// Duplicate across sources: keep the higher score, and the
				// first-seen surface form.
				if score > merged[idx].score {
					merged[idx].score = score
				}
				continue
			}
			seen[key] = len(merged)
			merged = append(merged, entry{value: strings.TrimSpace(item), score: score})
		}
	}
	if len(merged) == 0 {
		return
	}

	values := make([]string, len(merged))
	var sum float64
	for i, e := range merged {
		values[i] = e.value
		sum += e.score
	}
	fc.Score = sum / float64(len(merged))
	res.Fields[field] = fc

	switch field {
	case FieldIngredients:
		res.Ingredients = values
	case FieldDietaryInfo:
		res.DietaryInfo = values
	case FieldTags:
		res.Tags = values
	}
}

func hasScalar(o PhaseOutput, field string) bool {
	switch field {
	case FieldTitle:
		return o.Title != ""
	case FieldCategory:
		return o.Category != ""
	case FieldDifficulty:
		return o.Difficulty != ""
	case FieldCookingTime:
		return o.CookingTimeMinutes > 0
	case FieldServings:
		return o.Servings > 0
	case FieldInstructions:
		return len(o.Instructions) > 0
	}
	return false
}

func listItems(o PhaseOutput, field string) []string {
	switch field {
	case FieldIngredients:
		return o.Ingredients
	case FieldDietaryInfo:
		return o.DietaryInfo
	case FieldTags:
		return o.Tags
	}
	return nil
}

// normalizeItem is the dedupe key: lowercase, trimmed, inner whitespace
// collapsed.
func normalizeItem(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
