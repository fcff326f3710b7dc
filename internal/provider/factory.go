// Package provider builds model clients from configuration.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/config"
	"github.com/austiecodes/curator/internal/consts"
	anthropicprov "github.com/austiecodes/curator/internal/provider/anthropic"
	googleprov "github.com/austiecodes/curator/internal/provider/google"
	ollamaprov "github.com/austiecodes/curator/internal/provider/ollama"
	openaiprov "github.com/austiecodes/curator/internal/provider/openai"
)

// ErrUnsupportedProvider is returned for a provider name the factory does not know.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// NewCompletionClient creates a client for the named provider.
func NewCompletionClient(ctx context.Context, cfg *config.Config, providerName string) (client.CompletionClient, error) {
	switch providerName {
	case consts.ProviderOpenAI, consts.ProviderGroq:
		return newOpenAICompatible(cfg, providerName)
	case consts.ProviderAnthropic:
		if err := requireKey(cfg, providerName); err != nil {
			return nil, err
		}
		p := cfg.Providers.Anthropic
		return anthropicprov.NewClient(p.APIKey, p.BaseURL), nil
	case consts.ProviderGoogle:
		if err := requireKey(cfg, providerName); err != nil {
			return nil, err
		}
		return googleprov.NewClient(ctx, cfg.Providers.Google.APIKey)
	case consts.ProviderOllama:
		return ollamaprov.NewClient(cfg.Providers.Ollama.Host, nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerName)
	}
}

// NewEmbeddingClient creates an embedding client for the named provider.
func NewEmbeddingClient(ctx context.Context, cfg *config.Config, providerName string) (client.EmbeddingClient, error) {
	switch providerName {
	case consts.ProviderOpenAI:
		c, err := newOpenAICompatible(cfg, providerName)
		if err != nil {
			return nil, err
		}
		return openaiprov.NewEmbeddingClient(c), nil
	case consts.ProviderGoogle:
		if err := requireKey(cfg, providerName); err != nil {
			return nil, err
		}
		c, err := googleprov.NewClient(ctx, cfg.Providers.Google.APIKey)
		if err != nil {
			return nil, err
		}
		return googleprov.NewEmbeddingClient(c), nil
	case consts.ProviderOllama:
		return ollamaprov.NewClient(cfg.Providers.Ollama.Host, nil)
	default:
		return nil, fmt.Errorf("%w for embeddings: %s", ErrUnsupportedProvider, providerName)
	}
}

func newOpenAICompatible(cfg *config.Config, providerName string) (*openaiprov.Client, error) {
	if err := requireKey(cfg, providerName); err != nil {
		return nil, err
	}
	p, baseURL := cfg.Providers.OpenAI, consts.DefaultBaseURL
	if providerName == consts.ProviderGroq {
		p, baseURL = cfg.Providers.Groq, consts.DefaultGroqBaseURL
	}
	if p.BaseURL != "" {
		baseURL = p.BaseURL
	}
	return openaiprov.NewClient(providerName, p.APIKey, baseURL), nil
}

func requireKey(cfg *config.Config, providerName string) error {
	if cfg.APIKey(providerName) == "" {
		return fmt.Errorf("%s API key not configured", providerName)
	}
	return nil
}
