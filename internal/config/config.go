package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LLM provider identifiers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	ServerPort string `yaml:"server_port"`

	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Completion collaborator
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	LLMMaxTokens    int    `yaml:"llm_max_tokens"`
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// Timetable import
	TimetableSheetHint string `yaml:"timetable_sheet_hint"`
	TimetableSourceURL string `yaml:"timetable_source_url"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from an optional YAML file (STUDYMATE_CONFIG)
// with environment variables taking precedence over file values.
func Load() Config {
	cfg := defaults()

	if path := os.Getenv("STUDYMATE_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			slog.Warn("failed to load config file, using env/defaults only", "path", path, "error", err)
		}
	}

	applyEnv(&cfg)
	return cfg
}

func defaults() Config {
	return Config{
		ServerPort: "8585",

		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "studymate",
		SurrealDBDatabase:  "companion",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider:  ProviderOllama,
		LLMModel:     "llama3.1",
		LLMMaxTokens: 1024,
		OllamaHost:   "http://localhost:11434",

		TimetableSheetHint: "timetable",

		LogFile:  "/tmp/studymate.log",
		LogLevel: slog.LevelInfo,
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Level is parsed from a plain string field to keep the YAML readable.
	var file struct {
		Config   `yaml:",inline"`
		LogLevel string `yaml:"log_level"`
	}
	file.Config = *cfg
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	*cfg = file.Config
	if file.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(file.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.ServerPort, "STUDYMATE_SERVER_PORT")

	setEnv(&cfg.SurrealDBURL, "SURREALDB_URL")
	setEnv(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	setEnv(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	setEnv(&cfg.SurrealDBUser, "SURREALDB_USER")
	setEnv(&cfg.SurrealDBPass, "SURREALDB_PASS")
	setEnv(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	setEnv(&cfg.LLMProvider, "STUDYMATE_LLM_PROVIDER")
	setEnv(&cfg.LLMModel, "STUDYMATE_LLM_MODEL")
	if val := os.Getenv("STUDYMATE_LLM_MAX_TOKENS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.LLMMaxTokens = n
		}
	}
	setEnv(&cfg.OllamaHost, "OLLAMA_HOST")
	setEnv(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setEnv(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")

	setEnv(&cfg.TimetableSheetHint, "STUDYMATE_TIMETABLE_SHEET")
	setEnv(&cfg.TimetableSourceURL, "STUDYMATE_TIMETABLE_URL")

	setEnv(&cfg.LogFile, "STUDYMATE_LOG_FILE")
	if val := os.Getenv("STUDYMATE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = parseLogLevel(val)
	}
}

func setEnv(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// APIKey returns the configured credential for the active provider.
// Ollama and Bedrock take none here (Bedrock uses the AWS credential chain).
func (c Config) APIKey() string {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return ""
	}
}

// RequiresAPIKey reports whether the active provider needs a credential.
func (c Config) RequiresAPIKey() bool {
	return c.LLMProvider == ProviderOpenAI || c.LLMProvider == ProviderAnthropic
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
