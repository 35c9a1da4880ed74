package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"semdex/internal/config"
	"semdex/internal/embedder"
	"semdex/internal/logging"
	"semdex/internal/store"
	"semdex/internal/vecdb"
)

var (
	flagDB       string
	flagProvider string
	flagOllama   string
	flagModel    string
)

var rootCmd = &cobra.Command{
	Use:           "semdex",
	Short:         "Semantic search over local codebases",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default ~/.semdex/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "embedding provider: ollama or openai (default ollama)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL (default http://localhost:11434)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "embedding model (default per provider)")
}

// env bundles everything a command needs: merged configuration, the open
// database, and the store wired to the configured embedding provider.
type env struct {
	cfg    *config.Config
	db     *vecdb.SQLite
	st     *store.Store
	logger *slog.Logger
}

func (e *env) Close() error { return e.db.Close() }

// openEnv loads configuration (flags override environment), opens the
// database, and builds the store.
func openEnv() (*env, error) {
	// Flags override before normalization so provider-dependent defaults
	// resolve against the flag values.
	if flagProvider != "" {
		os.Setenv("SEMDEX_PROVIDER", flagProvider)
	}
	if flagModel != "" {
		os.Setenv("SEMDEX_EMBED_MODEL", flagModel)
	}
	if flagOllama != "" {
		os.Setenv("SEMDEX_OLLAMA_URL", flagOllama)
	}
	if flagDB != "" {
		os.Setenv("SEMDEX_DB_PATH", flagDB)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := vecdb.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", cfg.DBPath, err)
	}

	var provider embedder.Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		provider = embedder.NewOpenAIEmbedder(embedder.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.EmbedModel,
		})
	default:
		provider = embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel)
	}
	if cfg.CacheSize > 0 {
		provider = embedder.NewCached(provider, cfg.CacheSize)
	}

	st := store.New(db, embedder.NewAdapter(provider),
		store.WithWorkers(cfg.Workers),
		store.WithLogger(logger))

	return &env{cfg: cfg, db: db, st: st, logger: logger}, nil
}
