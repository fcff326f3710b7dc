// Package config loads curator settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"time"

	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/types"
)

// Config is the full application configuration.
type Config struct {
	Providers  ProvidersConfig  `koanf:"providers"`
	Models     ModelsConfig     `koanf:"models"`
	Store      StoreConfig      `koanf:"store"`
	Memory     MemoryConfig     `koanf:"memory"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Generation GenerationConfig `koanf:"generation"`
	Server     ServerConfig     `koanf:"server"`
	NATS       NATSConfig       `koanf:"nats"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ProviderConfig holds credentials for a hosted model API.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type OllamaConfig struct {
	Host string `koanf:"host"`
}

// ProvidersConfig holds credentials per provider.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `koanf:"openai"`
	Groq      ProviderConfig `koanf:"groq"`
	Anthropic ProviderConfig `koanf:"anthropic"`
	Google    ProviderConfig `koanf:"google"`
	Ollama    OllamaConfig   `koanf:"ollama"`
}

// ModelsConfig picks the model for each role. Classifier falls back to Chat
// when its provider is empty.
type ModelsConfig struct {
	Chat       types.Model `koanf:"chat"`
	Classifier types.Model `koanf:"classifier"`
	Embedding  types.Model `koanf:"embedding"`
}

// StoreConfig selects and locates the storage backend.
type StoreConfig struct {
	// Backend is sqlite or postgres and holds both memories and the catalog.
	Backend     string `koanf:"backend"`
	Path        string `koanf:"path"`
	DatabaseURL string `koanf:"database_url"`
	// ContentIndex is "store" to search the catalog in Backend, or milvus.
	ContentIndex     string `koanf:"content_index"`
	MilvusAddress    string `koanf:"milvus_address"`
	MilvusCollection string `koanf:"milvus_collection"`
	MilvusNProbe     int    `koanf:"milvus_nprobe"`
}

// MemoryConfig tunes the conversation writer and retention.
type MemoryConfig struct {
	// Retention of 0 keeps memories forever.
	Retention         time.Duration `koanf:"retention"`
	RetentionInterval time.Duration `koanf:"retention_interval"`
	WriterQueueSize   int           `koanf:"writer_queue_size"`
	WriterMaxRetries  int           `koanf:"writer_max_retries"`
	WriterRetryDelay  time.Duration `koanf:"writer_retry_delay"`
	WriterTimeout     time.Duration `koanf:"writer_timeout"`
}

// RetrievalConfig holds similarity thresholds and result limits.
type RetrievalConfig struct {
	ContentThreshold   float64 `koanf:"content_threshold"`
	MemoryThreshold    float64 `koanf:"memory_threshold"`
	ReviewHistoryLimit int     `koanf:"review_history_limit"`
	RecentReviewLimit  int     `koanf:"recent_review_limit"`
	CandidateLimit     int     `koanf:"candidate_limit"`
	ContextLimit       int     `koanf:"context_limit"`
}

// CatalogConfig configures poster URLs and the live metadata fallback.
type CatalogConfig struct {
	TMDBToken       string        `koanf:"tmdb_token"`
	TMDBBaseURL     string        `koanf:"tmdb_base_url"`
	PosterBaseURL   string        `koanf:"poster_base_url"`
	LiveFallback    bool          `koanf:"live_fallback"`
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

type GenerationConfig struct {
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       int           `koanf:"rate_limit"`
	RateWindow      time.Duration `koanf:"rate_window"`
}

// NATSConfig configures the review event consumer.
type NATSConfig struct {
	// Enabled runs the review consumer inside serve.
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	Subject          string        `koanf:"subject"`
	QueueGroup       string        `koanf:"queue_group"`
	DurableName      string        `koanf:"durable_name"`
	SubscribersCount int           `koanf:"subscribers_count"`
	MaxDeliver       int           `koanf:"max_deliver"`
	AckWait          time.Duration `koanf:"ack_wait"`
	ConnectAttempts  int           `koanf:"connect_attempts"`
	ConnectDelay     time.Duration `koanf:"connect_delay"`
	MaxRetries       int           `koanf:"max_retries"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ClassifierModel returns the model used for intent classification.
func (m ModelsConfig) ClassifierModel() types.Model {
	if m.Classifier.Provider == "" || m.Classifier.ModelID == "" {
		return m.Chat
	}
	return m.Classifier
}

// Default returns the built-in configuration, before any file or environment
// layer.
func Default() *Config {
	return &Config{
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{BaseURL: consts.DefaultBaseURL},
			Groq:   ProviderConfig{BaseURL: consts.DefaultGroqBaseURL},
			Ollama: OllamaConfig{Host: consts.DefaultOllamaHost},
		},
		Models: ModelsConfig{
			Chat:      types.Model{Provider: consts.ProviderGroq, ModelID: "llama-3.3-70b-versatile"},
			Embedding: types.Model{Provider: consts.ProviderOpenAI, ModelID: "text-embedding-3-small"},
		},
		Store: StoreConfig{
			Backend:          consts.BackendSQLite,
			ContentIndex:     "store",
			MilvusAddress:    "localhost:19530",
			MilvusCollection: "movies",
			MilvusNProbe:     10,
		},
		Memory: MemoryConfig{
			RetentionInterval: time.Hour,
			WriterQueueSize:   consts.DefaultWriterQueueSize,
			WriterMaxRetries:  consts.DefaultWriterMaxRetries,
			WriterRetryDelay:  consts.DefaultWriterRetryBaseDelay,
			WriterTimeout:     30 * time.Second,
		},
		Retrieval: RetrievalConfig{
			ContentThreshold:   consts.ContentSimilarityThreshold,
			MemoryThreshold:    consts.MemorySimilarityThreshold,
			ReviewHistoryLimit: consts.DefaultReviewHistoryLimit,
			RecentReviewLimit:  consts.DefaultRecentReviewLimit,
			CandidateLimit:     consts.DefaultCandidateLimit,
			ContextLimit:       consts.DefaultContextMemoryLimit,
		},
		Catalog: CatalogConfig{
			TMDBBaseURL:     consts.DefaultTMDBBaseURL,
			PosterBaseURL:   consts.DefaultPosterBaseURL,
			Timeout:         10 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Generation: GenerationConfig{
			Temperature: consts.DefaultTemperature,
			Timeout:     60 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       60,
			RateWindow:      time.Minute,
		},
		NATS: NATSConfig{
			URL:              "nats://127.0.0.1:4222",
			Subject:          consts.DefaultActivitySubject,
			QueueGroup:       "curator",
			DurableName:      "curator-reviews",
			SubscribersCount: 1,
			MaxDeliver:       5,
			AckWait:          30 * time.Second,
			ConnectAttempts:  consts.DefaultBrokerConnectAttempts,
			ConnectDelay:     2 * time.Second,
			MaxRetries:       3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
