package core

import (
	"fmt"
	"strings"
)

// AgentID identifies an agent variant within a session. It doubles as the
// key of the agent's slot in SessionResult.AgentResults.
type AgentID string

const (
	// AgentQuantitative produces KPIs, quantitative insights and a data-quality score.
	AgentQuantitative AgentID = "quantitative"
	// AgentResearch produces cited sources, qualitative insights and a reliability score.
	AgentResearch AgentID = "research"
	// AgentSynthesis turns upstream findings into the executive narrative.
	AgentSynthesis AgentID = "synthesis"
)

// ExecutionMode governs agent ordering and concurrency for one session.
type ExecutionMode string

const (
	// ModeSequential runs quantitative → research → synthesis strictly in order.
	ModeSequential ExecutionMode = "sequential"
	// ModeParallel runs quantitative and research together, then synthesis.
	ModeParallel ExecutionMode = "parallel"
	// ModeDynamic lets the orchestrator pick sequential or parallel from the query.
	ModeDynamic ExecutionMode = "dynamic"
)

// Modes lists every accepted execution mode in presentation order.
var Modes = []ExecutionMode{ModeSequential, ModeParallel, ModeDynamic}

// ParseExecutionMode normalises s into an ExecutionMode. The empty string
// maps to ModeDynamic.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch m := ExecutionMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeDynamic, nil
	case ModeSequential, ModeParallel, ModeDynamic:
		return m, nil
	default:
		return "", &ValidationError{
			Field:   "execution_mode",
			Message: fmt.Sprintf("unknown execution mode %q (valid: sequential, parallel, dynamic)", s),
		}
	}
}

// IsConcrete reports whether the mode maps directly onto a wave plan.
func (m ExecutionMode) IsConcrete() bool {
	return m == ModeSequential || m == ModeParallel
}

// SessionStatus is the externally visible lifecycle of a session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// AgentStatus is the terminal state of a single agent invocation.
type AgentStatus string

const (
	AgentCompleted AgentStatus = "completed"
	AgentFailed    AgentStatus = "failed"
	AgentSkipped   AgentStatus = "skipped"
)

// Phase is the orchestrator's internal state for a session.
type Phase string

const (
	PhaseInitialized Phase = "initialized"
	PhaseDispatching Phase = "dispatching"
	PhaseCollecting  Phase = "collecting"
	PhaseAggregating Phase = "aggregating"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// phaseTransitions is the orchestrator state machine. Failed is only
// reachable while agents are being dispatched or collected.
var phaseTransitions = map[Phase][]Phase{
	PhaseInitialized: {PhaseDispatching},
	PhaseDispatching: {PhaseCollecting, PhaseFailed},
	PhaseCollecting:  {PhaseDispatching, PhaseAggregating, PhaseFailed},
	PhaseAggregating: {PhaseCompleted},
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to Phase) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
