package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DataDir is the root of the content files (rooms, scenery, agents,
	// chapter openings).
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	// RedisURL backs gamestate persistence, the shared dialogue cache
	// and the image prompt queue.
	RedisURL string `envconfig:"REDIS_URL" default:"localhost:6379"`

	// LLMProvider selects the language model backend: "openai" or "llamacpp".
	LLMProvider  string `envconfig:"LLM_PROVIDER" default:"openai"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	ModelName    string `envconfig:"MODEL_NAME" default:"gpt-3.5-turbo-instruct"`
	LlamaCppURL  string `envconfig:"LLAMACPP_URL" default:"http://localhost:8081"`

	// ConverseServer, when set, delegates dialogue cache lookups to a
	// remote cache server instead of a local backend.
	ConverseServer string `envconfig:"CONVERSE_SERVER"`

	// DialogueDBPath is the local SQLite dialogue cache location.
	DialogueDBPath string `envconfig:"DIALOGUE_DB_PATH" default:"dialogue.db"`

	// ImprovScenery enables LLM-improvised descriptions for scenery
	// that has no authored content.
	ImprovScenery bool `envconfig:"IMPROV_SCENERY" default:"false"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel converts the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
