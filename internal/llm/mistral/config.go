package mistral

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/reelbites/recipe-extractor/internal/provider"
)

// Config for the Mistral client.
type Config struct {
	APIKey          string        // if empty, falls back to env MISTRAL_API_KEY
	BaseURL         string        // default https://api.mistral.ai/v1
	Model           string        // e.g., "mistral-small-latest"
	Temperature     float32       // 0..1
	Timeout         time.Duration // http client timeout
	LenientSanitize bool
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *provider.Limiter
	log     *slog.Logger
}

func NewClient(cfg Config, limiter *provider.Limiter, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("MISTRAL_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-small-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.LenientSanitize {
		cfg.LenientSanitize = true
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		log:     logger,
	}
}
