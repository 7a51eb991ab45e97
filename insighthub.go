// Package insighthub provides a high-level façade over the orchestrator and
// its services (agents, shared memory, session registry, metrics & logging)
// for running multi-agent business analyses. Most applications interact
// with this package by:
//  1. Loading a config.Config (or using config.Default())
//  2. Creating a Hub via New(), optionally overriding the model, agents or sources
//  3. Running analyses synchronously (RunAnalysis) or in the background
//     (StartAnalysis + GetStatus)
//
// All defaults are safe for local development and testing: without provider
// credentials the mock model answers every prompt and memory stays
// in-process. Production deployments configure a real provider and a
// durable memory backend (Redis or SQLite).
package insighthub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/insighthub/agent"
	"github.com/hupe1980/insighthub/config"
	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/logging"
	"github.com/hupe1980/insighthub/memory"
	"github.com/hupe1980/insighthub/memory/redis"
	"github.com/hupe1980/insighthub/memory/sqlite"
	"github.com/hupe1980/insighthub/model"
	anthropicmodel "github.com/hupe1980/insighthub/model/anthropic"
	openaimodel "github.com/hupe1980/insighthub/model/openai"
	"github.com/hupe1980/insighthub/orchestrator"
	"github.com/hupe1980/insighthub/session"
)

// Options configures the Hub instance.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Model overrides the provider selected by Config.Model.
	Model model.Model
	// Agents replaces the built-in quantitative, research and synthesis agents.
	Agents []core.Agent
	// Sources supplies research material; defaults to agent.StaticCatalog.
	Sources agent.SourceProvider
	// MemoryBackend overrides the durable backend selected by Config.Memory.
	MemoryBackend core.MemoryBackend
	// Registry receives the Prometheus instruments; defaults to a private registry.
	Registry *prometheus.Registry
	// Logger defaults to a structured logger built from Config.Log.
	Logger logging.Logger
}

// Hub is the high-level façade aggregating the orchestrator and its services.
type Hub struct {
	cfg      *config.Config
	orch     *orchestrator.Orchestrator
	memory   *memory.Store
	registry *prometheus.Registry
	logger   logging.Logger
}

// AgentsInfo lists the registered agents and the supported execution modes.
type AgentsInfo struct {
	Agents []core.AgentInfo     `json:"agents"`
	Modes  []core.ExecutionMode `json:"execution_modes"`
}

// New creates a Hub. Any unset service is derived from the configuration.
func New(optFns ...func(o *Options)) (*Hub, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Config == nil {
		opts.Config = config.Default()
	}

	cfg := opts.Config

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(&logging.LoggerConfig{
			Level:     logging.ParseLevel(cfg.Log.Level),
			Format:    cfg.Log.Format,
			AddSource: cfg.Log.AddSource,
			Component: "insighthub",
		})
	}

	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	if opts.Model == nil {
		m, err := NewModel(cfg.Model)
		if err != nil {
			return nil, err
		}
		opts.Model = m
	}

	if opts.MemoryBackend == nil {
		b, err := NewMemoryBackend(cfg.Memory)
		if err != nil {
			return nil, err
		}
		opts.MemoryBackend = b
	}

	if opts.Agents == nil {
		opts.Agents = DefaultAgents(opts.Model, cfg.Orchestrator, opts.Sources, opts.Logger)
	}

	metrics := orchestrator.NewMetrics(opts.Registry)

	store := memory.NewStore(opts.MemoryBackend, func(o *memory.Options) {
		o.TTL = cfg.Memory.TTL
		o.PingTimeout = cfg.Memory.PingTimeout
		o.Logger = opts.Logger
		o.OnDegraded = metrics.ObserveDegraded
	})

	orch, err := orchestrator.New(opts.Agents, func(o *orchestrator.Options) {
		o.Memory = store
		o.Sessions = session.NewInMemoryStore(func(so *session.Options) {
			so.Retention = cfg.Orchestrator.SessionRetention
		})
		o.MaxInsights = cfg.Orchestrator.MaxInsights
		o.Metrics = metrics
		o.Logger = opts.Logger
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Hub{
		cfg:      cfg,
		orch:     orch,
		memory:   store,
		registry: opts.Registry,
		logger:   opts.Logger,
	}, nil
}

// DefaultAgents builds the quantitative, research and synthesis agents.
func DefaultAgents(llm model.Model, cfg config.OrchestratorConfig, sources agent.SourceProvider, logger logging.Logger) []core.Agent {
	base := func(id core.AgentID) func(o *agent.Options) {
		return func(o *agent.Options) {
			o.Timeout = cfg.TimeoutFor(id)
			o.Logger = logger
		}
	}

	return []core.Agent{
		agent.NewQuantitativeAgent(llm, base(core.AgentQuantitative)),
		agent.NewResearchAgent(llm, func(o *agent.ResearchOptions) {
			base(core.AgentResearch)(&o.Options)
			if sources != nil {
				o.Sources = sources
			}
		}),
		agent.NewSynthesisAgent(llm, base(core.AgentSynthesis)),
	}
}

// NewModel builds the model selected by cfg.
func NewModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "", "auto", "mock":
		return model.NewMockModel(cfg.Name, "mock"), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, &core.ValidationError{Field: "model.api_key", Message: "required for provider openai"}
		}
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.Name
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
		}), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, &core.ValidationError{Field: "model.api_key", Message: "required for provider anthropic"}
		}
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(cfg.Name)
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
		}), nil
	default:
		return nil, &core.ValidationError{Field: "model.provider", Message: fmt.Sprintf("unsupported provider %q", cfg.Provider)}
	}
}

// NewMemoryBackend opens the durable backend selected by cfg. The "memory"
// backend returns nil: sessions then use the in-process store directly.
func NewMemoryBackend(cfg config.MemoryConfig) (core.MemoryBackend, error) {
	switch cfg.Backend {
	case "", "memory":
		return nil, nil
	case "redis":
		b, err := redis.NewFromURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis memory backend: %w", err)
		}
		return b, nil
	case "sqlite":
		b, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite memory backend: %w", err)
		}
		return b, nil
	default:
		return nil, &core.ValidationError{Field: "memory.backend", Message: fmt.Sprintf("unsupported backend %q", cfg.Backend)}
	}
}

// RunAnalysis runs one analysis session to completion. An empty mode uses
// the configured default mode.
func (h *Hub) RunAnalysis(ctx context.Context, query string, mode core.ExecutionMode) (*core.SessionResult, error) {
	return h.orch.Run(ctx, query, h.modeOrDefault(mode))
}

// StartAnalysis starts a session in the background and returns its id
// together with a channel delivering the outcome.
func (h *Hub) StartAnalysis(ctx context.Context, query string, mode core.ExecutionMode) (string, <-chan orchestrator.Outcome, error) {
	return h.orch.Start(ctx, query, h.modeOrDefault(mode))
}

// GetStatus returns the polling view of a session.
func (h *Hub) GetStatus(sessionID string) (core.StatusSnapshot, error) {
	return h.orch.Status(sessionID)
}

// Cancel stops a running session.
func (h *Hub) Cancel(sessionID string) error {
	return h.orch.Cancel(sessionID)
}

// SessionMemory returns the shared-memory entries of a session ordered by
// write time. Entries outlive the session until their TTL expires.
func (h *Hub) SessionMemory(ctx context.Context, sessionID string) ([]core.MemoryEntry, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	entries, err := h.memory.Entries(ctx, sessionID)
	if !h.running(sessionID) {
		h.memory.Release(sessionID)
	}

	return entries, err
}

// ClearMemory deletes the shared-memory entries of a finished session.
func (h *Hub) ClearMemory(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	if h.running(sessionID) {
		return &core.ValidationError{Field: "session_id", Message: "session is still running"}
	}

	return h.memory.Clear(ctx, sessionID)
}

func (h *Hub) running(sessionID string) bool {
	st, err := h.orch.Status(sessionID)
	return err == nil && !st.Status.IsTerminal()
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return &core.ValidationError{Field: "session_id", Message: "must not be empty"}
	}
	return nil
}

// Classify reports how dynamic mode would execute query.
func (h *Hub) Classify(query string) orchestrator.Decision {
	return orchestrator.Classify(query)
}

// Agents lists the registered agents and supported modes.
func (h *Hub) Agents() AgentsInfo {
	info := AgentsInfo{Modes: append([]core.ExecutionMode(nil), core.Modes...)}
	for _, a := range h.orch.Agents() {
		info.Agents = append(info.Agents, core.InfoOf(a))
	}
	return info
}

// MetricsHandler serves the Hub's Prometheus metrics.
func (h *Hub) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{Registry: h.registry})
}

// Close releases the memory backends.
func (h *Hub) Close() error {
	if err := h.memory.Close(); err != nil {
		return fmt.Errorf("close memory: %w", err)
	}
	return nil
}

func (h *Hub) modeOrDefault(mode core.ExecutionMode) core.ExecutionMode {
	if mode != "" {
		return mode
	}
	return core.ExecutionMode(h.cfg.Orchestrator.DefaultMode)
}

// IsValidation reports whether err was caused by invalid caller input.
func IsValidation(err error) bool { return errors.Is(err, core.ErrValidation) }
