package stt

import (
	"fmt"

	"scribe/internal/config"
	"scribe/internal/logger"
)

// NewProvider creates the STT provider selected by cfg.Provider.
func NewProvider(cfg *config.Config, log *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderDeepgram, "":
		if cfg.DeepgramAPIKey == "" {
			return nil, fmt.Errorf("DEEPGRAM_API_KEY is not set")
		}
		log.Info("creating STT provider", logger.Fields(logger.FieldProvider, config.ProviderDeepgram, "url", cfg.DeepgramURL))
		return NewDeepgramProvider(cfg.DeepgramAPIKey, cfg.DeepgramURL, cfg.ProviderTimeout, log), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		log.Info("creating STT provider", logger.Fields(logger.FieldProvider, config.ProviderOpenAI, "model", cfg.OpenAIModel))
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ProviderTimeout, log), nil
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s. Supported: deepgram, openai", cfg.Provider)
	}
}

// OptionsFromConfig builds the per-request option set.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Model:       cfg.Model,
		Language:    cfg.Language,
		Diarize:     cfg.Diarize,
		SmartFormat: cfg.SmartFormat,
		Punctuate:   cfg.Punctuate,
	}
}
