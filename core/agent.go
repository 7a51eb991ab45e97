package core

import (
	"context"
	"time"
)

// Agent is the capability every analysis agent provides.
//
// Produce receives the query plus a read-only snapshot of the session's
// shared memory and returns agent-specific findings. Implementations must
// respect ctx cancellation; the caller enforces Timeout through ctx.
//
// Agents are never called directly by the orchestrator. agent.Invoke wraps
// Produce, enforces the timeout and turns every failure into an AgentResult.
type Agent interface {
	ID() AgentID
	Description() string
	Timeout() time.Duration
	Produce(ctx context.Context, query string, shared SharedContext) (Findings, error)
}

// Dependent is implemented by agents that consume other agents' results.
// The orchestrator skips a Dependent agent when all of its dependencies failed.
type Dependent interface {
	DependsOn() []AgentID
}

// AgentInfo describes an agent for listings such as `insighthub agents`.
type AgentInfo struct {
	ID           AgentID       `json:"name"`
	Description  string        `json:"description"`
	Capabilities []string      `json:"capabilities,omitempty"`
	DependsOn    []AgentID     `json:"depends_on,omitempty"`
	Timeout      time.Duration `json:"timeout"`
}

// Describer is implemented by agents that advertise capabilities.
type Describer interface {
	Capabilities() []string
}

// InfoOf builds the AgentInfo for a.
func InfoOf(a Agent) AgentInfo {
	info := AgentInfo{ID: a.ID(), Description: a.Description(), Timeout: a.Timeout()}
	if d, ok := a.(Describer); ok {
		info.Capabilities = append([]string(nil), d.Capabilities()...)
	}
	if d, ok := a.(Dependent); ok {
		info.DependsOn = append([]AgentID(nil), d.DependsOn()...)
	}
	return info
}
