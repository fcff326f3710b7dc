package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/types"
)

// Validate checks ranges, known names and the credentials of every provider
// the models use.
func (c *Config) Validate() error {
	if err := c.validateModels(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateRetrieval(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateModels() error {
	if err := c.validateModel("models.chat", c.Models.Chat, false); err != nil {
		return err
	}
	if c.Models.Classifier.Provider != "" {
		if err := c.validateModel("models.classifier", c.Models.Classifier, false); err != nil {
			return err
		}
	}
	return c.validateModel("models.embedding", c.Models.Embedding, true)
}

func (c *Config) validateModel(key string, m types.Model, embedding bool) error {
	if m.ModelID == "" {
		return fmt.Errorf("%s.model_id is required", key)
	}

	switch m.Provider {
	case consts.ProviderOpenAI, consts.ProviderGroq, consts.ProviderAnthropic, consts.ProviderGoogle:
		if embedding && (m.Provider == consts.ProviderGroq || m.Provider == consts.ProviderAnthropic) {
			return fmt.Errorf("%s: provider %s has no embedding API", key, m.Provider)
		}
		if c.APIKey(m.Provider) == "" {
			return fmt.Errorf("%s uses %s but no API key is configured (set %s)", key, m.Provider, apiKeyEnv(m.Provider))
		}
	case consts.ProviderOllama:
		if err := validateHTTPURL(c.Providers.Ollama.Host); err != nil {
			return fmt.Errorf("providers.ollama.host is invalid: %w", err)
		}
	default:
		return fmt.Errorf("%s: unknown provider %q", key, m.Provider)
	}
	return nil
}

// APIKey returns the configured key for a hosted provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case consts.ProviderOpenAI:
		return c.Providers.OpenAI.APIKey
	case consts.ProviderGroq:
		return c.Providers.Groq.APIKey
	case consts.ProviderAnthropic:
		return c.Providers.Anthropic.APIKey
	case consts.ProviderGoogle:
		return c.Providers.Google.APIKey
	default:
		return ""
	}
}

func apiKeyEnv(provider string) string {
	if provider == consts.ProviderGoogle {
		return "GEMINI_API_KEY"
	}
	return strings.ToUpper(provider) + "_API_KEY"
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case consts.BackendSQLite:
	case consts.BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when store.backend=postgres")
		}
	default:
		return fmt.Errorf("store.backend must be %s or %s, got %q", consts.BackendSQLite, consts.BackendPostgres, c.Store.Backend)
	}

	switch c.Store.ContentIndex {
	case "store":
	case consts.BackendMilvus:
		if c.Store.MilvusAddress == "" || c.Store.MilvusCollection == "" {
			return fmt.Errorf("store.milvus_address and store.milvus_collection are required when store.content_index=milvus")
		}
	default:
		return fmt.Errorf("store.content_index must be store or milvus, got %q", c.Store.ContentIndex)
	}
	return nil
}

func (c *Config) validateRetrieval() error {
	r := c.Retrieval
	for name, v := range map[string]float64{
		"retrieval.content_threshold": r.ContentThreshold,
		"retrieval.memory_threshold":  r.MemoryThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	if r.ReviewHistoryLimit <= 0 || r.RecentReviewLimit <= 0 || r.CandidateLimit <= 0 || r.ContextLimit <= 0 {
		return fmt.Errorf("retrieval limits must be positive")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be within [0, 2], got %v", c.Generation.Temperature)
	}
	if c.Memory.Retention < 0 {
		return fmt.Errorf("memory.retention must not be negative")
	}
	if c.Memory.WriterQueueSize <= 0 {
		return fmt.Errorf("memory.writer_queue_size must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when NATS_ENABLED=true")
	}
	if c.NATS.ConnectAttempts < 1 {
		return fmt.Errorf("nats.connect_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is empty")
	}
	return nil
}
