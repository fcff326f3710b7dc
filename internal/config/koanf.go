package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/austiecodes/curator/internal/consts"
)

// ConfigPathEnvVar names a YAML file to load instead of the default paths.
const ConfigPathEnvVar = "CURATOR_CONFIG"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"curator.yaml",
	"config.yaml",
}

// Load builds the configuration. Layers, lowest precedence first:
//  1. built-in defaults
//  2. the YAML file at path, CURATOR_CONFIG, or the first default path found
//  3. a .env file in the working directory, if present
//  4. process environment variables
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns "" when no file is configured and none of the
// default paths exist. An explicitly named file must exist.
func findConfigFile(explicit string) (string, error) {
	for _, p := range []string{explicit, os.Getenv(ConfigPathEnvVar)} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file %s: %w", p, err)
		}
		return p, nil
	}

	paths := DefaultConfigPaths
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths[:len(paths):len(paths)], filepath.Join(home, consts.AppDir, "config.yaml"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// envMappings maps environment variable names (lower-cased) to config keys.
var envMappings = map[string]string{
	"openai_api_key":    "providers.openai.api_key",
	"openai_base_url":   "providers.openai.base_url",
	"groq_api_key":      "providers.groq.api_key",
	"groq_base_url":     "providers.groq.base_url",
	"anthropic_api_key": "providers.anthropic.api_key",
	"gemini_api_key":    "providers.google.api_key",
	"google_api_key":    "providers.google.api_key",
	"ollama_host":       "providers.ollama.host",

	"chat_provider":       "models.chat.provider",
	"chat_model":          "models.chat.model_id",
	"classifier_provider": "models.classifier.provider",
	"classifier_model":    "models.classifier.model_id",
	"embedding_provider":  "models.embedding.provider",
	"embedding_model":     "models.embedding.model_id",

	"store_backend":     "store.backend",
	"store_path":        "store.path",
	"database_url":      "store.database_url",
	"content_index":     "store.content_index",
	"milvus_address":    "store.milvus_address",
	"milvus_collection": "store.milvus_collection",

	"memory_retention":          "memory.retention",
	"memory_retention_interval": "memory.retention_interval",

	"content_similarity_threshold": "retrieval.content_threshold",
	"memory_similarity_threshold":  "retrieval.memory_threshold",

	"tmdb_read_access_token": "catalog.tmdb_token",
	"tmdb_base_url":          "catalog.tmdb_base_url",
	"tmdb_image_base_url":    "catalog.poster_base_url",
	"catalog_live_fallback":  "catalog.live_fallback",

	"generation_temperature": "generation.temperature",
	"generation_timeout":     "generation.timeout",

	"http_host":  "server.host",
	"http_port":  "server.port",
	"rate_limit": "server.rate_limit",

	"nats_enabled":     "nats.enabled",
	"nats_url":         "nats.url",
	"nats_subject":     "nats.subject",
	"nats_queue_group": "nats.queue_group",
	"nats_max_deliver": "nats.max_deliver",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc drops variables that are not in envMappings so unrelated
// environment does not leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
