// Package provider builds a ragops.Provider from runtime configuration.
package provider

import (
	"fmt"

	ragops "github.com/donkit-ai/ragops-agent"
	"github.com/donkit-ai/ragops-agent/config"
	"github.com/donkit-ai/ragops-agent/provider/anthropic"
	"github.com/donkit-ai/ragops-agent/provider/mock"
	"github.com/donkit-ai/ragops-agent/provider/openai"
)

// FromConfig constructs the provider named by cfg.Provider, wired with its
// credentials, endpoint, and default model.
func FromConfig(cfg *config.Config) (ragops.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return openai.New(cfg.OpenAIKey, opts...), nil

	case config.ProviderAnthropic:
		opts := []anthropic.ClientOption{anthropic.WithAPIKey(cfg.AnthropicKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(opts...), nil

	case config.ProviderMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
