package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go-simpler.org/env"
)

const (
	BackendHugot       = "hugot"
	BackendVader       = "vader"
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	Port     string `env:"PORT" default:"5000"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	ClassifierBackend  string `env:"CLASSIFIER_BACKEND" default:"hugot"`
	SerializeInference bool   `env:"SERIALIZE_INFERENCE" default:"false"`

	ModelName string `env:"MODEL_NAME" default:"KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"`
	ModelDir  string `env:"MODEL_DIR" default:"./models"`

	HFInferenceURL string        `env:"HF_INFERENCE_URL"`
	HFAPIToken     string        `env:"HF_API_TOKEN"`
	HFTimeout      time.Duration `env:"HF_TIMEOUT" default:"30s"`
	HFMaxRetries   uint64        `env:"HF_MAX_RETRIES" default:"3"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" default:"*"`

	ReadyTimeout    time.Duration `env:"READY_TIMEOUT" default:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads the env file for APP_ENV (defaulting to dev) and then parses
// the process environment into a Config.
func Load() (*Config, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	LoadEnv(appEnv)

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("PORT must not be empty")
	}

	switch cfg.ClassifierBackend {
	case BackendHugot:
		if cfg.ModelName == "" {
			return errors.New("MODEL_NAME is required for the hugot backend")
		}
	case BackendVader:
	case BackendHuggingFace:
		if cfg.HFInferenceURL == "" {
			return errors.New("HF_INFERENCE_URL is required for the huggingface backend")
		}
	case BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai backend")
		}
	default:
		return fmt.Errorf("unsupported CLASSIFIER_BACKEND %q", cfg.ClassifierBackend)
	}

	if len(cfg.CORSAllowOrigins) == 0 {
		return errors.New("CORS_ALLOW_ORIGINS must list at least one origin")
	}

	return nil
}
