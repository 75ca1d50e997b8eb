package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/reelbites/recipe-extractor/internal/common"
)

const (
	classifierModel = "facebook/bart-large-mnli"
	detectionModel  = "facebook/detr-resnet-50"
	transcribeModel = "openai/whisper-large-v3"
)

var reSpokenTime = regexp.MustCompile(`(\d+)\s*(minutes?|mins?|hours?|hrs?)`)

// HFConfig configures the Hugging Face inference client.
type HFConfig struct {
	BaseURL string // default https://api-inference.huggingface.co/models
	APIKey  string
	Timeout time.Duration
}

// HFClient talks to the Hugging Face inference API. It implements
// TextClassifier, VisionAnalyzer and SpeechTranscriber as thin adapters;
// the models behind the endpoints are opaque to the pipeline.
type HFClient struct {
	cfg     HFConfig
	http    *http.Client
	limiter *Limiter
	logger  *slog.Logger
}

func NewHFClient(cfg HFConfig, limiter *Limiter, logger *slog.Logger) *HFClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.huggingface.co/models"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HFClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

func (c *HFClient) headers() map[string]string {
	h := map[string]string{}
	if c.cfg.APIKey != "" {
		h["Authorization"] = "Bearer " + c.cfg.APIKey
	}
	return h
}

func (c *HFClient) modelURL(model string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + model
}

// Classify runs zero-shot classification of text against candidate labels.
func (c *HFClient) Classify(ctx context.Context, text string, labels []string) ([]Classification, error) {
	if len(text) > 500 {
		text = text[:500]
	}
	body := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"candidate_labels": labels,
		},
	}

	var raw []byte
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, _, err = SendJSON(ctx, c.http, c.modelURL(classifierModel), body, c.headers(), c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, common.ProviderError("decode classification response", err)
	}
	if len(out.Labels) == 0 || len(out.Labels) != len(out.Scores) {
		return nil, common.ProviderError("empty classification response", nil)
	}

	result := make([]Classification, len(out.Labels))
	for i := range out.Labels {
		result[i] = Classification{Label: out.Labels[i], Score: clampUnit(out.Scores[i])}
	}
	return result, nil
}

// AnalyzeFrames asks the object-detection endpoint to analyze strategic
// frames of the video behind videoURL. Frame sampling happens provider-side;
// this process never touches raw media bytes.
func (c *HFClient) AnalyzeFrames(ctx context.Context, videoURL string) (VisionResult, error) {
	body := map[string]any{
		"inputs": map[string]any{
			"video_url":  videoURL,
			"max_frames": 8,
		},
	}

	var raw []byte
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, _, err = SendJSON(ctx, c.http, c.modelURL(detectionModel), body, c.headers(), c.logger)
		return err
	})
	if err != nil {
		return VisionResult{}, err
	}

	var out struct {
		Detections []struct {
			Label string  `json:"label"`
			Score float64 `json:"score"`
		} `json:"detections"`
		OCRText    string `json:"ocr_text"`
		FrameCount int    `json:"frame_count"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return VisionResult{}, common.ProviderError("decode detection response", err)
	}

	res := VisionResult{OCRText: out.OCRText, FrameCount: out.FrameCount}
	seen := map[string]struct{}{}
	for _, d := range out.Detections {
		label := strings.ToLower(strings.TrimSpace(d.Label))
		if d.Score < 0.3 || label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		res.Ingredients = append(res.Ingredients, label)
	}
	res.Confidence = visionConfidence(res)
	return res, nil
}

// visionConfidence mirrors the multi-frame scoring heuristic: more frames,
// more detected ingredients and readable on-screen text all raise it.
func visionConfidence(r VisionResult) float64 {
	confidence := 0.4
	if r.FrameCount >= 6 {
		confidence += 0.1
	} else if r.FrameCount >= 4 {
		confidence += 0.05
	}
	switch {
	case len(r.Ingredients) >= 3:
		confidence += 0.15
	case len(r.Ingredients) >= 1:
		confidence += 0.1
	}
	if len(r.OCRText) > 20 {
		confidence += 0.1
	}
	if confidence > 0.85 {
		confidence = 0.85
	}
	return confidence
}

// clampUnit bounds a provider-reported score to [0,1]. Some deployments
// reply with percent-scaled or slightly out-of-range values.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Transcribe runs speech-to-text over the audio track of videoURL.
func (c *HFClient) Transcribe(ctx context.Context, videoURL string) (TranscriptResult, error) {
	body := map[string]any{
		"inputs": map[string]any{
			"audio_url": videoURL,
		},
		"parameters": map[string]any{
			"return_timestamps": true,
		},
	}

	var raw []byte
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, _, err = SendJSON(ctx, c.http, c.modelURL(transcribeModel), body, c.headers(), c.logger)
		return err
	})
	if err != nil {
		return TranscriptResult{}, err
	}

	var out struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return TranscriptResult{}, common.ProviderError("decode transcription response", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return TranscriptResult{}, common.ProviderError("empty transcription", nil)
	}

	res := TranscriptResult{
		Transcription:  out.Text,
		Instructions:   InstructionsFromTranscript(out.Text),
		TimeIndicators: TimeIndicatorsFromTranscript(out.Text),
		Confidence:     clampUnit(out.Confidence),
	}
	if res.Confidence <= 0 {
		// Whisper deployments often omit a confidence; score on content.
		res.Confidence = transcriptConfidence(res)
	}
	return res, nil
}

func transcriptConfidence(r TranscriptResult) float64 {
	confidence := 0.5
	if len(r.Transcription) > 120 {
		confidence += 0.15
	}
	if len(r.Instructions) >= 2 {
		confidence += 0.15
	}
	if len(r.TimeIndicators) > 0 {
		confidence += 0.1
	}
	if confidence > 0.9 {
		confidence = 0.9
	}
	return confidence
}

var _ TextClassifier = (*HFClient)(nil)
var _ VisionAnalyzer = (*HFClient)(nil)
var _ SpeechTranscriber = (*HFClient)(nil)

// InstructionsFromTranscript pulls imperative cooking sentences out of a
// transcript, numbered in spoken order.
func InstructionsFromTranscript(text string) []string {
	keywords := []string{"heat", "cook", "add", "mix", "stir", "bake", "fry", "boil", "season", "chop", "slice", "whisk", "pour", "simmer"}

	var steps []string
	for _, sentence := range strings.Split(text, ".") {
		s := strings.TrimSpace(sentence)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				steps = append(steps, s+".")
				break
			}
		}
		if len(steps) >= 12 {
			break
		}
	}
	return steps
}

// TimeIndicatorsFromTranscript finds spoken duration references.
func TimeIndicatorsFromTranscript(text string) []TimeIndicator {
	var out []TimeIndicator
	for _, m := range reSpokenTime.FindAllStringSubmatch(strings.ToLower(text), -1) {
		n := 0
		if _, err := fmt.Sscanf(m[1], "%d", &n); err != nil || n <= 0 {
			continue
		}
		if strings.HasPrefix(m[2], "hour") || strings.HasPrefix(m[2], "hr") {
			n *= 60
		}
		if n > 240 {
			n = 240
		}
		out = append(out, TimeIndicator{Text: m[0], Minutes: n})
	}
	return out
}
