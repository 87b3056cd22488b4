// Package config loads application configuration from an optional TOML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all tunables for the CLI and server.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Model     ModelConfig     `toml:"model"`
	Redis     RedisConfig     `toml:"redis"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Data      DataConfig      `toml:"data"`
}

type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	JWTSecret string `toml:"jwt_secret"`
}

type ModelConfig struct {
	// Provider is a "provider:model" string, e.g. "openai:gpt-4o".
	Provider          string  `toml:"provider"`
	Temperature       float64 `toml:"temperature"`
	MaxTokens         int     `toml:"max_tokens"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Concurrency       int     `toml:"concurrency"`
	ChunkBudget       int     `toml:"chunk_budget"`
	TopK              int     `toml:"top_k"`
}

type RedisConfig struct {
	// URL enables the Redis knowledge base when set,
	// e.g. "redis://localhost:6379/0".
	URL string `toml:"url"`
}

type EmbeddingConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type DataConfig struct {
	// Dir is the SQLite data directory; empty means ~/.complilint/data.
	Dir string `toml:"dir"`
	// RulesFile is an optional JSON rules file synced into the rule store.
	RulesFile string `toml:"rules_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Model: ModelConfig{
			Provider:    "openai:gpt-4o",
			Temperature: 0.1,
			MaxTokens:   4096,
		},
	}
}

// Load reads the TOML file at path (skipped when path is empty or absent)
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "COMPLILINT_HOST")
	setInt(&cfg.Server.Port, "COMPLILINT_PORT")
	setString(&cfg.Server.JWTSecret, "COMPLILINT_JWT_SECRET")
	setString(&cfg.Model.Provider, "COMPLILINT_MODEL")
	setString(&cfg.Redis.URL, "COMPLILINT_REDIS_URL")
	setString(&cfg.Embedding.APIKey, "COMPLILINT_EMBEDDING_API_KEY")
	setString(&cfg.Embedding.Model, "COMPLILINT_EMBEDDING_MODEL")
	setString(&cfg.Embedding.BaseURL, "COMPLILINT_EMBEDDING_BASE_URL")
	setString(&cfg.Data.Dir, "COMPLILINT_DATA_DIR")
	setString(&cfg.Data.RulesFile, "COMPLILINT_RULES_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
