// Package config loads the InsightHub configuration from defaults, an
// optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/hupe1980/insighthub/core"
)

// EnvPrefix prefixes every environment override, e.g. INSIGHTHUB_LOG_LEVEL.
const EnvPrefix = "INSIGHTHUB"

// Config holds all configuration for InsightHub.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Model        ModelConfig        `mapstructure:"model"`
	Memory       MemoryConfig       `mapstructure:"memory"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format    string `mapstructure:"format" validate:"oneof=json text"`
	AddSource bool   `mapstructure:"add_source"`
}

// ModelConfig selects the language model provider.
type ModelConfig struct {
	// Provider is auto, mock, openai or anthropic. Auto picks the provider
	// whose API key is set and falls back to the mock model.
	Provider    string  `mapstructure:"provider" validate:"oneof=auto mock openai anthropic"`
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url" validate:"omitempty,url"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gte=1"`
}

// MemoryConfig selects the durable shared-memory backend.
type MemoryConfig struct {
	Backend     string        `mapstructure:"backend" validate:"oneof=memory redis sqlite"`
	RedisURL    string        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	SQLitePath  string        `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	TTL         time.Duration `mapstructure:"ttl" validate:"gt=0"`
	PingTimeout time.Duration `mapstructure:"ping_timeout" validate:"gt=0"`
}

// OrchestratorConfig holds session execution settings.
type OrchestratorConfig struct {
	DefaultMode  string        `mapstructure:"default_mode" validate:"oneof=sequential parallel dynamic"`
	AgentTimeout time.Duration `mapstructure:"agent_timeout" validate:"gt=0"`
	// AgentTimeouts overrides AgentTimeout per agent id.
	AgentTimeouts    map[string]time.Duration `mapstructure:"agent_timeouts"`
	MaxInsights      int                      `mapstructure:"max_insights" validate:"gte=0"`
	SessionRetention time.Duration            `mapstructure:"session_retention"`
}

// MetricsConfig holds the Prometheus endpoint settings. An empty Addr
// disables the endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// TimeoutFor returns the configured timeout of agent id.
func (c OrchestratorConfig) TimeoutFor(id core.AgentID) time.Duration {
	if d, ok := c.AgentTimeouts[string(id)]; ok && d > 0 {
		return d
	}
	return c.AgentTimeout
}

// Default returns the built-in configuration with the model provider
// resolved from the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	_ = v.Unmarshal(cfg)

	resolveProvider(&cfg.Model)

	return cfg
}

// Load loads configuration. Precedence (highest to lowest):
//  1. Environment variables (INSIGHTHUB_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, REDIS_URL)
//  2. The file at path, or insighthub.yaml in the working or user config directory
//  3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName("insighthub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(userConfigDir())

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("memory.redis_url", EnvPrefix+"_MEMORY_REDIS_URL", "REDIS_URL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	resolveProvider(&cfg.Model)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg against its struct tags and reports the first
// violation as a *core.ValidationError.
func Validate(cfg *Config) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &core.ValidationError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q validation (value %v)", fe.Tag(), fe.Value()),
		}
	}

	return fmt.Errorf("validate config: %w", err)
}

// resolveProvider settles the auto provider and fills the API key from the
// provider's conventional environment variable.
func resolveProvider(m *ModelConfig) {
	m.Provider = strings.ToLower(strings.TrimSpace(m.Provider))

	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")

	if m.Provider == "auto" {
		switch {
		case m.APIKey != "":
			m.Provider = "openai"
		case openaiKey != "":
			m.Provider = "openai"
		case anthropicKey != "":
			m.Provider = "anthropic"
		default:
			m.Provider = "mock"
		}
	}

	if m.APIKey == "" {
		switch m.Provider {
		case "openai":
			m.APIKey = openaiKey
		case "anthropic":
			m.APIKey = anthropicKey
		}
	}

	if m.Name == "" {
		m.Name = defaultModelName(m.Provider)
	}
}

func defaultModelName(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o"
	case "anthropic":
		return "claude-sonnet-4-20250514"
	default:
		return "mock-model"
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.add_source", false)

	v.SetDefault("model.provider", "auto")
	v.SetDefault("model.name", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.max_tokens", 2000)

	v.SetDefault("memory.backend", "memory")
	v.SetDefault("memory.redis_url", "redis://localhost:6379/0")
	v.SetDefault("memory.sqlite_path", "")
	v.SetDefault("memory.ttl", "1h")
	v.SetDefault("memory.ping_timeout", "2s")

	v.SetDefault("orchestrator.default_mode", "dynamic")
	v.SetDefault("orchestrator.agent_timeout", "5m")
	v.SetDefault("orchestrator.max_insights", 10)
	v.SetDefault("orchestrator.session_retention", "1h")

	v.SetDefault("metrics.addr", "")
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "insighthub")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "insighthub")
	}

	return filepath.Join(home, ".config", "insighthub")
}
