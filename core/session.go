package core

import (
	"fmt"
	"sync"
	"time"
)

// Session is one orchestration run. It is mutated only by the orchestrator
// that owns it and is safe for concurrent access; readers take a Clone.
//
// Contract:
//   - Phase changes follow the state machine in CanTransition
//   - Every agent slot is written at most once (Record)
//   - Results arriving after the session is terminal are rejected
//   - Clone copies maps and slices so readers never observe later writes
type Session struct {
	ID            string                  `json:"session_id"`
	Query         string                  `json:"query"`
	RequestedMode ExecutionMode           `json:"requested_mode"`
	ResolvedMode  ExecutionMode           `json:"resolved_mode,omitempty"`
	Status        SessionStatus           `json:"status"`
	Phase         Phase                   `json:"phase"`
	Agents        []AgentID               `json:"agents"`
	Results       map[AgentID]AgentResult `json:"agent_results"`
	Report        *ConsolidatedReport     `json:"report,omitempty"`
	MemoryBackend string                  `json:"memory_backend,omitempty"`
	Degraded      bool                    `json:"degraded"`
	Error         string                  `json:"error,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	mu            sync.RWMutex
}

// NewSession creates a pending session in the initialized phase.
func NewSession(id, query string, requested ExecutionMode) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		Query:         query,
		RequestedMode: requested,
		Status:        SessionPending,
		Phase:         PhaseInitialized,
		Results:       map[AgentID]AgentResult{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetPlan records the resolved mode and the agents selected for the session.
func (s *Session) SetPlan(mode ExecutionMode, agents []AgentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResolvedMode = mode
	s.Agents = append([]AgentID(nil), agents...)
	s.UpdatedAt = time.Now()
}

// SetMemory records which backend the session's memory is bound to.
func (s *Session) SetMemory(backend string, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MemoryBackend = backend
	s.Degraded = degraded
	s.UpdatedAt = time.Now()
}

// SetReport stores the consolidated report.
func (s *Session) SetReport(r ConsolidatedReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Report = &r
	s.UpdatedAt = time.Now()
}

// Transition moves the session to phase to and derives Status from it.
func (s *Session) Transition(to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

func (s *Session) transitionLocked(to Phase) error {
	if !CanTransition(s.Phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.Phase, to)
	}

	s.Phase = to

	switch to {
	case PhaseDispatching:
		s.Status = SessionRunning
	case PhaseCompleted:
		s.Status = SessionCompleted
	case PhaseFailed:
		s.Status = SessionFailed
	}

	s.UpdatedAt = time.Now()

	return nil
}

// Fail moves the session to the failed phase and records reason.
func (s *Session) Fail(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionLocked(PhaseFailed); err != nil {
		return err
	}

	s.Error = reason

	return nil
}

// Record stores the terminal result of one agent.
func (s *Session) Record(r AgentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.IsTerminal() {
		return fmt.Errorf("%w: %s result for %s", ErrSessionClosed, r.Agent, s.ID)
	}

	if _, exists := s.Results[r.Agent]; exists {
		return fmt.Errorf("%w: %s", ErrResultRecorded, r.Agent)
	}

	s.Results[r.Agent] = r
	s.UpdatedAt = time.Now()

	return nil
}

// Result returns the recorded result for id.
func (s *Session) Result(id AgentID) (AgentResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.Results[id]
	return r, ok
}

// ResultSet returns a copy of all recorded results.
func (s *Session) ResultSet() map[AgentID]AgentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[AgentID]AgentResult, len(s.Results))
	for k, v := range s.Results {
		out[k] = v
	}
	return out
}

// CompletedCount returns how many agents finished with findings.
func (s *Session) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completedLocked()
}

func (s *Session) completedLocked() int {
	n := 0
	for _, r := range s.Results {
		if r.Completed() {
			n++
		}
	}
	return n
}

// AllTerminal reports whether every selected agent has a recorded result.
func (s *Session) AllTerminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.Agents {
		if _, ok := s.Results[id]; !ok {
			return false
		}
	}
	return true
}

// Snapshot returns the status view used for polling.
func (s *Session) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{
		SessionID:           s.ID,
		Status:              s.Status,
		Phase:               s.Phase,
		CompletedAgentCount: s.completedLocked(),
		TotalAgentCount:     len(s.Agents),
	}
}

// Clone returns a deep copy of the session safe for independent reading.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Session{
		ID:            s.ID,
		Query:         s.Query,
		RequestedMode: s.RequestedMode,
		ResolvedMode:  s.ResolvedMode,
		Status:        s.Status,
		Phase:         s.Phase,
		Agents:        append([]AgentID(nil), s.Agents...),
		Results:       make(map[AgentID]AgentResult, len(s.Results)),
		MemoryBackend: s.MemoryBackend,
		Degraded:      s.Degraded,
		Error:         s.Error,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}

	for k, v := range s.Results {
		clone.Results[k] = v
	}

	if s.Report != nil {
		r := *s.Report
		clone.Report = &r
	}

	return clone
}
