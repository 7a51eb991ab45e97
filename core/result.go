package core

import (
	"encoding/json"
	"time"
)

// AgentResult is the outcome of a single agent invocation. Findings is nil
// unless Status is AgentCompleted.
type AgentResult struct {
	Agent      AgentID       `json:"agent"`
	Status     AgentStatus   `json:"status"`
	Findings   Findings      `json:"findings"`
	Confidence float64       `json:"confidence"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	ErrorKind  ErrorKind     `json:"error_kind,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Completed reports whether the agent finished with findings.
func (r AgentResult) Completed() bool { return r.Status == AgentCompleted }

// UnmarshalJSON restores the concrete Findings type from the agent id.
func (r *AgentResult) UnmarshalJSON(data []byte) error {
	type alias AgentResult

	aux := struct {
		*alias
		Findings json.RawMessage `json:"findings"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	findings, err := DecodeFindings(r.Agent, aux.Findings)
	if err != nil {
		return err
	}

	r.Findings = findings

	return nil
}

// SkippedResult records an agent that was never dispatched.
func SkippedResult(id AgentID, reason string) AgentResult {
	now := time.Now()
	return AgentResult{
		Agent:      id,
		Status:     AgentSkipped,
		Error:      reason,
		ErrorKind:  ErrorKindSkipped,
		StartedAt:  now,
		FinishedAt: now,
	}
}
