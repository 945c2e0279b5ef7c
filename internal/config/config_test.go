package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8585", cfg.ServerPort)
	assert.Equal(t, "ws://localhost:8000/rpc", cfg.SurrealDBURL)
	assert.Equal(t, "studymate", cfg.SurrealDBNamespace)
	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, "timetable", cfg.TimetableSheetHint)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STUDYMATE_SERVER_PORT", "9999")
	t.Setenv("STUDYMATE_LLM_PROVIDER", ProviderOpenAI)
	t.Setenv("STUDYMATE_LLM_MAX_TOKENS", "512")
	t.Setenv("STUDYMATE_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "9999", cfg.ServerPort)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 512, cfg.LLMMaxTokens)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studymate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_port: "7070"
llm_provider: anthropic
llm_model: claude-sonnet
timetable_sheet_hint: rooster
log_level: warn
`), 0o600))
	t.Setenv("STUDYMATE_CONFIG", path)

	cfg := Load()

	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, "claude-sonnet", cfg.LLMModel)
	assert.Equal(t, "rooster", cfg.TimetableSheetHint)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestEnvBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studymate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: \"7070\"\n"), 0o600))
	t.Setenv("STUDYMATE_CONFIG", path)
	t.Setenv("STUDYMATE_SERVER_PORT", "6060")

	cfg := Load()
	assert.Equal(t, "6060", cfg.ServerPort)
}

func TestUnreadableConfigFileFallsBack(t *testing.T) {
	t.Setenv("STUDYMATE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	assert.Equal(t, "8585", cfg.ServerPort)
}

func TestRequiresAPIKey(t *testing.T) {
	tests := []struct {
		provider string
		want     bool
	}{
		{ProviderOllama, false},
		{ProviderBedrock, false},
		{ProviderOpenAI, true},
		{ProviderAnthropic, true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := Config{LLMProvider: tt.provider}
			assert.Equal(t, tt.want, cfg.RequiresAPIKey())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}
