// Command extract runs one extraction from the command line, either
// against a running extractord (EXTRACTOR_URL) or fully in-process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/reelbites/recipe-extractor/constants"
	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/extraction"
	"github.com/reelbites/recipe-extractor/internal/llm/mistral"
	"github.com/reelbites/recipe-extractor/internal/provider"
	"github.com/reelbites/recipe-extractor/internal/stream"
)

func main() {
	_ = godotenv.Load()

	visual := flag.Bool("visual", true, "run video frame analysis")
	audio := flag.Bool("audio", true, "run audio transcription")
	maxSecs := flag.Int("max-seconds", 0, "per-phase processing budget in seconds")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: extract [flags] <post-url>")
		os.Exit(2)
	}
	sourceURL := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()

	var pipeline extraction.Pipeline
	if base := os.Getenv("EXTRACTOR_URL"); base != "" {
		pipeline = stream.NewClient(base+"/api/v1", nil, logger)
	} else {
		if err := cfg.Validate(); err != nil {
			logger.Error("config invalid", slog.String("error", err.Error()))
			os.Exit(2)
		}
		pipeline = localOrchestrator(cfg, logger)
	}

	opts := extraction.Options{
		EnableVisual:      *visual,
		EnableAudio:       *audio,
		MaxProcessingTime: *maxSecs,
	}

	onEvent := func(ev extraction.ExtractionEvent) {
		if *quiet || ev.Event != extraction.EventPhaseUpdate {
			return
		}
		fmt.Fprintf(os.Stderr, "[phase %d] %-10s %3d%% %s\n", ev.Phase, ev.Status, ev.Progress, ev.Message)
	}

	policy := extraction.RetryPolicy{
		MaxRetries: cfg.Pipeline.MaxRetries,
		BaseDelay:  cfg.Pipeline.RetryBaseDelay,
	}
	runner := extraction.NewResilient(pipeline, policy, logger)
	result, err := runner.Run(ctx, sourceURL, opts, onEvent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extraction failed: %s\n", err)
		os.Exit(1)
	}
	if !result.Structured {
		fmt.Fprintln(os.Stderr, "warning: final structuring unavailable, output is the fused draft")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encoding result: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func localOrchestrator(cfg *common.Config, logger *slog.Logger) *extraction.Orchestrator {
	limiter := provider.NewLimiter(cfg.Pipeline.ProviderSemaphore)

	hf := provider.NewHFClient(provider.HFConfig{
		BaseURL: cfg.Providers.InferenceBaseURL,
		APIKey:  cfg.Providers.InferenceAPIKey,
		Timeout: cfg.Providers.Timeout,
	}, limiter, logger)

	fetcher := provider.NewOEmbedFetcher(provider.OEmbedConfig{
		BaseURL: cfg.Providers.OEmbedBaseURL,
		Timeout: cfg.Pipeline.FetchTimeout,
	}, logger)

	structurer := mistral.NewClient(mistral.Config{
		APIKey:          cfg.Providers.LLMAPIKey,
		BaseURL:         cfg.Providers.LLMBaseURL,
		Model:           cfg.Providers.LLMModel,
		Temperature:     cfg.Providers.LLMTemperature,
		Timeout:         cfg.Providers.Timeout,
		LenientSanitize: true,
	}, limiter, logger)

	fuser := extraction.NewFuser(map[constants.DataSource]float64{
		constants.SourceText:   cfg.Pipeline.TextWeight,
		constants.SourceVisual: cfg.Pipeline.VisualWeight,
		constants.SourceAudio:  cfg.Pipeline.AudioWeight,
	})

	return extraction.NewOrchestrator(
		fetcher,
		extraction.NewTextExecutor(hf, logger),
		extraction.NewVisualExecutor(hf, logger),
		extraction.NewAudioExecutor(hf, logger),
		fuser,
		structurer,
		extraction.WithLogger(logger),
		extraction.WithWatchdogTimeout(cfg.Pipeline.WatchdogTimeout),
		extraction.WithStructuringTimeout(cfg.Pipeline.StructuringTimeout),
		extraction.WithFetchTimeout(cfg.Pipeline.FetchTimeout),
	)
}
