package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Pipeline  PipelineConfig
	Providers ProvidersConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	LogFormat       string // "json" or "text"
}

// PipelineConfig holds orchestrator tuning knobs. The reliability weights
// and timeout budgets are defaults inferred from observed behavior, so all
// of them are overridable from the environment.
type PipelineConfig struct {
	TextWeight   float64
	VisualWeight float64
	AudioWeight  float64

	WatchdogTimeout    time.Duration
	StructuringTimeout time.Duration
	FetchTimeout       time.Duration

	MaxRetries        int
	RetryBaseDelay    time.Duration
	ProviderSemaphore int64
}

// ProvidersConfig holds external AI provider configuration
type ProvidersConfig struct {
	InferenceBaseURL string
	InferenceAPIKey  string
	LLMBaseURL       string
	LLMAPIKey        string
	LLMModel         string
	LLMTemperature   float32
	Timeout          time.Duration
	OEmbedBaseURL    string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
			LogFormat:       getEnv("LOG_FORMAT", "json"),
		},
		Pipeline: PipelineConfig{
			TextWeight:         getEnvAsFloat64("FUSION_TEXT_WEIGHT", 0.5),
			VisualWeight:       getEnvAsFloat64("FUSION_VISUAL_WEIGHT", 0.2),
			AudioWeight:        getEnvAsFloat64("FUSION_AUDIO_WEIGHT", 0.3),
			WatchdogTimeout:    getEnvAsDuration("JOB_WATCHDOG_TIMEOUT", 5*time.Minute),
			StructuringTimeout: getEnvAsDuration("STRUCTURING_TIMEOUT", 15*time.Second),
			FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
			MaxRetries:         getEnvAsInt("EXTRACT_MAX_RETRIES", 3),
			RetryBaseDelay:     getEnvAsDuration("EXTRACT_RETRY_BASE_DELAY", 2*time.Second),
			ProviderSemaphore:  int64(getEnvAsInt("PROVIDER_MAX_CONCURRENT", 8)),
		},
		Providers: ProvidersConfig{
			InferenceBaseURL: getEnv("HF_BASE_URL", "https://api-inference.huggingface.co/models"),
			InferenceAPIKey:  getEnv("HF_API_KEY", ""),
			LLMBaseURL:       getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
			LLMAPIKey:        getEnv("MISTRAL_API_KEY", ""),
			LLMModel:         getEnv("MISTRAL_MODEL", "mistral-small-latest"),
			LLMTemperature:   getEnvAsFloat32("MISTRAL_TEMPERATURE", 0.1),
			Timeout:          getEnvAsDuration("PROVIDER_TIMEOUT", 45*time.Second),
			OEmbedBaseURL:    getEnv("OEMBED_BASE_URL", "https://graph.facebook.com/v18.0/instagram_oembed"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrValidation)
	}
	if c.Providers.LLMAPIKey == "" {
		return NewAppError("CONFIG_ERROR", "MISTRAL_API_KEY is required", ErrValidation)
	}
	if c.Pipeline.TextWeight <= 0 {
		return NewAppError("CONFIG_ERROR", "FUSION_TEXT_WEIGHT must be positive", ErrValidation)
	}
	if c.Pipeline.VisualWeight < 0 || c.Pipeline.AudioWeight < 0 {
		return NewAppError("CONFIG_ERROR", "fusion weights must be non-negative", ErrValidation)
	}
	return nil
}
