package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/reelbites/recipe-extractor/constants"
	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/extraction"
	"github.com/reelbites/recipe-extractor/internal/llm/mistral"
	"github.com/reelbites/recipe-extractor/internal/provider"
	"github.com/reelbites/recipe-extractor/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := newLogger(cfg.Server.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", slog.String("error", err.Error()))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := buildOrchestrator(cfg, logger)

	caps := server.Capabilities{
		VisualAnalysis:     true,
		AudioTranscription: true,
		Categories:         constants.AsStringSlice(),
		MaxProcessingTime:  int(cfg.Pipeline.WatchdogTimeout.Seconds()),
	}
	srv := server.New(cfg.Server, orch, orch, caps, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildOrchestrator(cfg *common.Config, logger *slog.Logger) *extraction.Orchestrator {
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

func newLogger(format string) *slog.Logger {
	if format == "text" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
