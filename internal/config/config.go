// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider names accepted by Config.Provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Default embedding models per provider.
const (
	DefaultOllamaModel = "nomic-embed-text"
	DefaultOpenAIModel = "text-embedding-3-small"
)

// Config holds all environment-based configuration. Field names map to
// environment variables with the SEMDEX_ prefix.
type Config struct {
	// DBPath is the SQLite database file.
	// Env: SEMDEX_DB_PATH (default: ~/.semdex/index.db)
	DBPath string `envconfig:"DB_PATH"`

	// Provider selects the embedding backend (ollama or openai).
	// Env: SEMDEX_PROVIDER (default: ollama)
	Provider string `envconfig:"PROVIDER" default:"ollama"`

	// OllamaURL is the Ollama server base URL.
	// Env: SEMDEX_OLLAMA_URL (default: http://localhost:11434)
	OllamaURL string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// EmbedModel is the embedding model identifier. Empty means the
	// provider's default.
	// Env: SEMDEX_EMBED_MODEL
	EmbedModel string `envconfig:"EMBED_MODEL"`

	// OpenAIAPIKey authenticates against the OpenAI-compatible endpoint.
	// Env: SEMDEX_OPENAI_API_KEY (falls back to OPENAI_API_KEY)
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// OpenAIBaseURL overrides the OpenAI endpoint, for compatible servers.
	// Env: SEMDEX_OPENAI_BASE_URL
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// Workers is the embedding fan-out width. Zero means NumCPU.
	// Env: SEMDEX_WORKERS (default: 0)
	Workers int `envconfig:"WORKERS" default:"0"`

	// CacheSize is the embedding LRU cache capacity. Zero disables caching.
	// Env: SEMDEX_CACHE_SIZE (default: 4096)
	CacheSize int `envconfig:"CACHE_SIZE" default:"4096"`

	// Extensions is a comma-separated list of file extensions to index,
	// without dots. Empty means the built-in default set.
	// Env: SEMDEX_EXTENSIONS
	Extensions string `envconfig:"EXTENSIONS"`

	// LogLevel is the log verbosity level (debug, info, warn, error).
	// Env: SEMDEX_LOG_LEVEL (default: info)
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogFormat is the log output format (text or json).
	// Env: SEMDEX_LOG_FORMAT (default: text)
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads a .env file if present, then the environment, then normalizes
// defaults that depend on other fields.
func Load() (*Config, error) {
	// Missing .env is fine; a broken one is not.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("SEMDEX", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderOllama:
		if c.EmbedModel == "" {
			c.EmbedModel = DefaultOllamaModel
		}
	case ProviderOpenAI:
		if c.EmbedModel == "" {
			c.EmbedModel = DefaultOpenAIModel
		}
		if c.OpenAIAPIKey == "" {
			c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderOllama, ProviderOpenAI)
	}

	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		c.DBPath = filepath.Join(home, ".semdex", "index.db")
	}
	return nil
}

// ExtensionSet parses Extensions into the walker's lookup form. Nil when
// unset, so callers fall back to the default set.
func (c *Config) ExtensionSet() map[string]bool {
	trimmed := strings.TrimSpace(c.Extensions)
	if trimmed == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, ext := range strings.Split(trimmed, ",") {
		ext = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}
