package llm

import (
	"strings"
)

// BuildSystemPrompt composes the system message with the category taxonomy
// and strict-but-practical formatting rules for the recipe schema.
func BuildSystemPrompt(req StructureRequest) string {
	var catLine string
	if len(req.AllowedCategories) > 0 {
		catLine = "You MUST include a 'category' and it MUST be exactly one of the allowed enum. " +
			"If uncertain, choose 'Other'. Allowed categories (enum): " + strings.Join(req.AllowedCategories, ", ") + ". "
	} else {
		catLine = "You MUST include a 'category' that is a short, sensible label. If uncertain, use 'Other'. "
	}

	parts := []string{
		"You are an expert recipe analyst. You receive data extracted from a short-form cooking video by multiple methods (caption text analysis, video frame analysis, audio transcription, and a confidence-weighted fusion of all three). Return ONLY JSON that matches the provided JSON Schema.",
		catLine,
		"Weigh the audio transcription highest for instructions: spoken steps are usually the most complete.",
		"If video analysis detected ingredients, include them in your ingredient list.",
		"For cooking time, use explicit mentions; otherwise give a reasonable estimate for the dish type.",
		"Difficulty must be exactly one of Easy, Medium, Hard.",
		"Instructions must be clear, actionable steps, one step per array element.",
		"Each ingredient needs a 'name'; include 'amount' and 'unit' when visible or spoken.",
		"If some information is missing, use culinary knowledge to fill gaps reasonably.",

		// Formatting hygiene:
		"Never output null. If an optional field is not present, omit it.",
	}

	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the fused draft and the raw multimodal inputs.
// The fused draft comes first so the model anchors on it; raw inputs follow
// for anything fusion flattened out.
func BuildUserPrompt(req StructureRequest) string {
	var b strings.Builder

	if req.SourceURL != "" {
		b.WriteString("Source post: ")
		b.WriteString(req.SourceURL)
		b.WriteString("\n")
	}

	if len(req.FusionDraft) > 0 {
		b.WriteString("\nFused draft (confidence-weighted merge of all sources):\n")
		b.Write(req.FusionDraft)
		b.WriteString("\n")
	}

	if caption := strings.TrimSpace(req.Caption); caption != "" {
		b.WriteString("\nOriginal caption:\n")
		b.WriteString(truncate(caption, 2000))
		b.WriteString("\n")
	}

	if tr := strings.TrimSpace(req.Transcription); tr != "" {
		b.WriteString("\nAudio transcription:\n")
		b.WriteString(truncate(tr, 3000))
		b.WriteString("\n")
	}

	if ocr := strings.TrimSpace(req.OCRText); ocr != "" {
		b.WriteString("\nOn-screen text (OCR):\n")
		b.WriteString(truncate(ocr, 1000))
		b.WriteString("\n")
	}

	b.WriteString("\nExtract the recipe data now.")
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n…(truncated)"
}
