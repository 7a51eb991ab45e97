package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/core"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insighthub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	clearProviderEnv(t)

	cfg := Default()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "mock", cfg.Model.Provider)
	assert.Equal(t, "mock-model", cfg.Model.Name)
	assert.Equal(t, 2000, cfg.Model.MaxTokens)
	assert.Equal(t, "memory", cfg.Memory.Backend)
	assert.Equal(t, time.Hour, cfg.Memory.TTL)
	assert.Equal(t, 2*time.Second, cfg.Memory.PingTimeout)
	assert.Equal(t, "dynamic", cfg.Orchestrator.DefaultMode)
	assert.Equal(t, 5*time.Minute, cfg.Orchestrator.AgentTimeout)
	assert.Equal(t, 10, cfg.Orchestrator.MaxInsights)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_File(t *testing.T) {
	clearProviderEnv(t)

	path := writeConfig(t, `
log:
  level: debug
  format: text
memory:
  backend: sqlite
  sqlite_path: /tmp/insighthub.db
  ttl: 30m
orchestrator:
  default_mode: parallel
  agent_timeout: 2m
  agent_timeouts:
    synthesis: 4m
  max_insights: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Memory.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Memory.TTL)
	assert.Equal(t, "parallel", cfg.Orchestrator.DefaultMode)
	assert.Equal(t, 0, cfg.Orchestrator.MaxInsights)
	assert.Equal(t, 4*time.Minute, cfg.Orchestrator.TimeoutFor(core.AgentSynthesis))
	assert.Equal(t, 2*time.Minute, cfg.Orchestrator.TimeoutFor(core.AgentResearch))
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("INSIGHTHUB_LOG_LEVEL", "warn")
	t.Setenv("INSIGHTHUB_MEMORY_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "redis", cfg.Memory.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Memory.RedisURL)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "sk-ant", cfg.Model.APIKey)
	assert.NotEmpty(t, cfg.Model.Name)
}

func TestLoad_AutoPrefersOpenAI(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(writeConfig(t, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "sk-openai", cfg.Model.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
}

func TestLoad_Invalid(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"mode", "orchestrator:\n  default_mode: random\n", "Config.Orchestrator.DefaultMode"},
		{"sqlite path", "memory:\n  backend: sqlite\n", "Config.Memory.SQLitePath"},
		{"provider", "model:\n  provider: cohere\n", "Config.Model.Provider"},
		{"temperature", "model:\n  temperature: 3\n", "Config.Model.Temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, core.ErrValidation)

			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	clearProviderEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Model.Provider)
}
