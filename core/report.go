package core

import "time"

// AttributedInsight is an insight tagged with the agent that produced it.
type AttributedInsight struct {
	Agent AgentID `json:"agent"`
	Text  string  `json:"text"`
}

// String folds the attribution into the text, e.g. "📊 Revenue up 15%".
func (a AttributedInsight) String() string {
	switch a.Agent {
	case AgentQuantitative:
		return "📊 " + a.Text
	case AgentResearch:
		return "🔍 " + a.Text
	default:
		return "[" + string(a.Agent) + "] " + a.Text
	}
}

// InsightStrings renders insights in their attributed text form.
func InsightStrings(insights []AttributedInsight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.String()
	}
	return out
}

// QualityMetrics holds the session-level scores, each in [0,1].
type QualityMetrics struct {
	DataQualityScore         float64 `json:"data_quality_score"`
	ResearchReliabilityScore float64 `json:"research_reliability_score"`
}

// ConsolidatedReport is the aggregator's merge of all agent results.
type ConsolidatedReport struct {
	Insights         []AttributedInsight `json:"attributed_insights"`
	FinalReport      *string             `json:"final_report"`
	ExecutiveSummary string              `json:"executive_summary,omitempty"`
	KeyFindings      []string            `json:"key_findings,omitempty"`
	Recommendations  []string            `json:"recommendations,omitempty"`
	FallbackReport   string              `json:"fallback_report,omitempty"`
	Partial          bool                `json:"partial"`
	Scores           QualityMetrics      `json:"quality_metrics"`
}

// ExecutionSummary describes how a session was executed.
type ExecutionSummary struct {
	RequestedMode   ExecutionMode `json:"requested_mode"`
	ResolvedMode    ExecutionMode `json:"resolved_mode"`
	AgentsCompleted int           `json:"agents_completed"`
	TotalAgents     int           `json:"total_agents"`
	Duration        string        `json:"duration"`
}

// SessionResult is the externally visible outcome of RunAnalysis.
type SessionResult struct {
	SessionID            string                  `json:"session_id"`
	Status               SessionStatus           `json:"status"`
	Query                string                  `json:"query"`
	ExecutionSummary     ExecutionSummary        `json:"execution_summary"`
	AgentResults         map[AgentID]AgentResult `json:"agent_results"`
	FinalReport          *string                 `json:"final_report"`
	ExecutiveSummary     string                  `json:"executive_summary,omitempty"`
	KeyFindings          []string                `json:"key_findings,omitempty"`
	Recommendations      []string                `json:"recommendations,omitempty"`
	ConsolidatedInsights []string                `json:"consolidated_insights"`
	AttributedInsights   []AttributedInsight     `json:"attributed_insights,omitempty"`
	QualityMetrics       QualityMetrics          `json:"quality_metrics"`
	Partial              bool                    `json:"partial"`
	FallbackReport       string                  `json:"fallback_report,omitempty"`
	MemoryDegraded       bool                    `json:"memory_degraded,omitempty"`
	Error                string                  `json:"error,omitempty"`
}

// StatusSnapshot is the polling view of a running or finished session.
type StatusSnapshot struct {
	SessionID           string        `json:"session_id"`
	Status              SessionStatus `json:"status"`
	Phase               Phase         `json:"phase"`
	CompletedAgentCount int           `json:"completed_agent_count"`
	TotalAgentCount     int           `json:"total_agent_count"`
}

// BuildResult renders the session into its external form.
func (s *Session) BuildResult(elapsed time.Duration) *SessionResult {
	c := s.Clone()

	res := &SessionResult{
		SessionID: c.ID,
		Status:    c.Status,
		Query:     c.Query,
		ExecutionSummary: ExecutionSummary{
			RequestedMode:   c.RequestedMode,
			ResolvedMode:    c.ResolvedMode,
			AgentsCompleted: c.completedLocked(),
			TotalAgents:     len(c.Agents),
			Duration:        elapsed.Round(time.Millisecond).String(),
		},
		AgentResults:         c.Results,
		ConsolidatedInsights: []string{},
		MemoryDegraded:       c.Degraded,
		Error:                c.Error,
	}

	if r := c.Report; r != nil {
		res.FinalReport = r.FinalReport
		res.ExecutiveSummary = r.ExecutiveSummary
		res.KeyFindings = r.KeyFindings
		res.Recommendations = r.Recommendations
		res.ConsolidatedInsights = InsightStrings(r.Insights)
		res.AttributedInsights = r.Insights
		res.QualityMetrics = r.Scores
		res.Partial = r.Partial
		res.FallbackReport = r.FallbackReport
	}

	return res
}
