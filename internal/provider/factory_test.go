package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/austiecodes/curator/internal/config"
	"github.com/austiecodes/curator/internal/consts"
	openaiprov "github.com/austiecodes/curator/internal/provider/openai"
)

func TestNewCompletionClient(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Groq.APIKey = "gsk-test"
	cfg.Providers.Anthropic.APIKey = "sk-ant-test"

	for _, name := range []string{consts.ProviderGroq, consts.ProviderAnthropic, consts.ProviderOllama} {
		c, err := NewCompletionClient(context.Background(), cfg, name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if c == nil {
			t.Fatalf("%s: nil client", name)
		}
	}

	if _, ok := mustCompletion(t, cfg, consts.ProviderGroq).(*openaiprov.Client); !ok {
		t.Fatal("groq should use the OpenAI-compatible client")
	}
}

func mustCompletion(t *testing.T, cfg *config.Config, name string) any {
	t.Helper()
	c, err := NewCompletionClient(context.Background(), cfg, name)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return c
}

func TestNewCompletionClientMissingKey(t *testing.T) {
	cfg := config.Default()
	if _, err := NewCompletionClient(context.Background(), cfg, consts.ProviderOpenAI); err == nil {
		t.Fatal("expected error without an API key")
	}
}

func TestUnsupportedProvider(t *testing.T) {
	cfg := config.Default()
	_, err := NewCompletionClient(context.Background(), cfg, "mistral")
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
	_, err = NewEmbeddingClient(context.Background(), cfg, consts.ProviderAnthropic)
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("anthropic has no embeddings, got %v", err)
	}
}

func TestNewEmbeddingClient(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.OpenAI.APIKey = "sk-test"

	c, err := NewEmbeddingClient(context.Background(), cfg, consts.ProviderOpenAI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*openaiprov.EmbeddingClient); !ok {
		t.Fatalf("expected openai embedding client, got %T", c)
	}
}
