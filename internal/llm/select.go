package llm

import (
	"context"
	"strings"

	"github.com/ricardonunez-io/loganalyser/internal/config"
	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/rs/zerolog/log"
)

// Factory returns the provider for one variant, or false when the variant's
// credentials or endpoint are not configured.
type Factory func() (Provider, bool)

// Select resolves the configured provider name against the closed variant
// set. A blank name selects DefaultVariant.
func Select(name string, factories map[Variant]Factory) (Provider, error) {
	if strings.TrimSpace(name) == "" {
		name = string(DefaultVariant)
	}

	variant, ok := Variants.Find(name)
	if !ok {
		return nil, errs.Configuration("invalid ai.provider: '%s'. Supported values: %s", name, Variants)
	}

	factory, ok := factories[variant]
	if !ok {
		return nil, errs.Configuration("provider '%s' is not available: no factory registered. Supply its configuration and restart", variant)
	}

	provider, ok := factory()
	if !ok || provider == nil {
		return nil, errs.Configuration("provider '%s' is not available. Ensure its API key and endpoint are configured and restart", variant)
	}

	log.Info().Str("provider", provider.Name()).Msg("Model provider selected")
	return provider, nil
}

// DefaultFactories wires every variant to its configuration section.
func DefaultFactories(cfg config.AIConfig) map[Variant]Factory {
	return map[Variant]Factory{
		Ollama: func() (Provider, bool) {
			if cfg.Ollama.BaseURL == "" {
				return nil, false
			}
			return NewOllama(cfg.Ollama, cfg.MaxTokens), true
		},
		OpenAI: func() (Provider, bool) {
			if cfg.OpenAI.APIKey == "" {
				return nil, false
			}
			return NewOpenAI(cfg.OpenAI, cfg.MaxTokens), true
		},
		Azure: func() (Provider, bool) {
			if cfg.Azure.APIKey == "" || cfg.Azure.Endpoint == "" {
				return nil, false
			}
			return NewAzure(cfg.Azure, cfg.MaxTokens), true
		},
		Anthropic: func() (Provider, bool) {
			if cfg.Anthropic.APIKey == "" {
				return nil, false
			}
			return NewAnthropic(cfg.Anthropic, cfg.MaxTokens), true
		},
		Google: func() (Provider, bool) {
			if cfg.Google.APIKey == "" {
				return nil, false
			}
			p, err := NewGoogle(context.Background(), cfg.Google, cfg.MaxTokens)
			if err != nil {
				log.Err(err).Msg("Failed to create google provider")
				return nil, false
			}
			return p, true
		},
	}
}
