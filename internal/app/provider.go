package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/lingua-backend/internal/platform/gemini"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
	"github.com/yungbote/lingua-backend/internal/platform/openai"
	"github.com/yungbote/lingua-backend/internal/services/extraction"
)

var (
	newOpenAIClient = openai.NewClient
	newGeminiClient = gemini.NewClient
)

// resolveExtractionProvider returns nil for "none", which leaves the
// extraction endpoints answering 503.
func resolveExtractionProvider(ctx context.Context, log *logger.Logger, cfg ExtractionConfig) (extraction.Provider, error) {
	switch cfg.Provider {
	case "", extraction.ProviderNone:
		log.Info("Extraction provider disabled")
		return nil, nil
	case extraction.ProviderOpenAI:
		client, err := newOpenAIClient(log, openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Timeout:     time.Duration(cfg.OpenAITimeout) * time.Second,
			MaxRetries:  cfg.OpenAIMaxRetries,
			Temperature: cfg.OpenAITemperature,
		})
		if err != nil {
			return nil, &BootstrapError{Component: "extraction provider", Code: BootstrapErrorInvalidConfig, Mode: cfg.Provider, Cause: err}
		}
		log.Info("Extraction provider selected", "provider", cfg.Provider, "model", client.Model())
		return extraction.NewOpenAIProvider(client), nil
	case extraction.ProviderGemini:
		gcfg := gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
		}
		if cfg.GeminiTemperature != nil {
			t := float32(*cfg.GeminiTemperature)
			gcfg.Temperature = &t
		}
		client, err := newGeminiClient(ctx, log, gcfg)
		if err != nil {
			return nil, &BootstrapError{Component: "extraction provider", Code: BootstrapErrorInvalidConfig, Mode: cfg.Provider, Cause: err}
		}
		log.Info("Extraction provider selected", "provider", cfg.Provider, "model", client.Model())
		return extraction.NewGeminiProvider(client), nil
	default:
		return nil, &BootstrapError{
			Component: "extraction provider",
			Code:      BootstrapErrorInvalidMode,
			Mode:      cfg.Provider,
			Cause:     fmt.Errorf("unknown provider %q", cfg.Provider),
		}
	}
}
