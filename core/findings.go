package core

import (
	"encoding/json"
	"fmt"
)

// Findings is the agent-specific payload of a completed AgentResult. The
// concrete type is determined by the producing agent.
type Findings interface {
	// Insights returns the textual insights that take part in aggregation.
	Insights() []string
	// Confidence is the agent's self-assessment in [0,1].
	Confidence() float64
}

// AnalysisRequirements is what the quantitative agent derived from the query.
type AnalysisRequirements struct {
	Metrics         []string `json:"metrics_requested"`
	TimePeriod      string   `json:"time_period,omitempty"`
	GeographicScope string   `json:"geographic_scope,omitempty"`
	Industry        string   `json:"industry,omitempty"`
}

// StatisticalSummary summarises the numbers found in a model reply.
type StatisticalSummary struct {
	Count  int     `json:"total_metrics_found"`
	Mean   float64 `json:"average_value,omitempty"`
	Max    float64 `json:"max_value,omitempty"`
	Min    float64 `json:"min_value,omitempty"`
	StdDev float64 `json:"std_deviation,omitempty"`
}

// QuantitativeFindings is produced by the quantitative agent.
type QuantitativeFindings struct {
	Requirements     AnalysisRequirements `json:"requirements"`
	KPIs             map[string]float64   `json:"kpis"`
	InsightList      []string             `json:"insights"`
	ExtractedMetrics []string             `json:"extracted_metrics,omitempty"`
	KeyFindings      []string             `json:"key_findings,omitempty"`
	TrendIndicators  []string             `json:"trend_indicators,omitempty"`
	Summary          StatisticalSummary   `json:"statistical_summary"`
	Recommendations  []string             `json:"recommendations,omitempty"`
	DataQualityScore float64              `json:"data_quality_score"`
}

// Insights implements Findings.
func (f *QuantitativeFindings) Insights() []string { return f.InsightList }

// Confidence implements Findings.
func (f *QuantitativeFindings) Confidence() float64 { return f.DataQualityScore }

// SearchStrategy is how the research agent decided to look for sources.
type SearchStrategy struct {
	SearchType      string   `json:"search_type"`
	FocusAreas      []string `json:"focus_areas,omitempty"`
	IndustrySector  string   `json:"industry_sector,omitempty"`
	GeographicFocus string   `json:"geographic_focus,omitempty"`
}

// Source is a cited reference with its reliability in [0,1].
type Source struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Publisher   string  `json:"source"`
	Reliability float64 `json:"reliability"`
	Published   string  `json:"date,omitempty"`
	ContentType string  `json:"content_type,omitempty"`
}

// Statistic is a figure quoted in research output with surrounding text.
type Statistic struct {
	Value   string `json:"value"`
	Context string `json:"context"`
}

// ResearchFindings is produced by the research agent.
type ResearchFindings struct {
	Strategy           SearchStrategy    `json:"search_strategy"`
	Sources            []Source          `json:"sources"`
	Sections           map[string]string `json:"sections,omitempty"`
	InsightList        []string          `json:"insights"`
	KeyStatistics      []Statistic       `json:"key_statistics,omitempty"`
	RecentDevelopments []string          `json:"recent_developments,omitempty"`
	Summary            string            `json:"search_summary,omitempty"`
	Recommendations    []string          `json:"recommendations,omitempty"`
	ReliabilityScore   float64           `json:"reliability_score"`
}

// Insights implements Findings.
func (f *ResearchFindings) Insights() []string { return f.InsightList }

// Confidence implements Findings.
func (f *ResearchFindings) Confidence() float64 { return f.ReliabilityScore }

// MeanReliability averages the per-source reliability scores, 0 without sources.
func (f *ResearchFindings) MeanReliability() float64 {
	if len(f.Sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range f.Sources {
		sum += s.Reliability
	}
	return sum / float64(len(f.Sources))
}

// WritingStyle is the tone and format the synthesis agent chose for the query.
type WritingStyle struct {
	Tone           string `json:"tone"`
	Format         string `json:"format"`
	Audience       string `json:"target_audience"`
	TechnicalLevel string `json:"technical_level"`
}

// ReadingMetrics describe the generated narrative.
type ReadingMetrics struct {
	WordCount          int     `json:"word_count"`
	ReadingTimeMinutes int     `json:"reading_time_minutes"`
	ParagraphCount     int     `json:"paragraph_count"`
	SectionCount       int     `json:"section_count"`
	CharacterCount     int     `json:"character_count"`
	ReadabilityScore   float64 `json:"readability_score"`
}

// SynthesisFindings is produced by the synthesis agent. It carries no
// quality score; the aggregator scores the session instead.
type SynthesisFindings struct {
	Narrative        string         `json:"narrative"`
	ExecutiveSummary string         `json:"executive_summary"`
	KeyFindings      []string       `json:"key_findings,omitempty"`
	Recommendations  []string       `json:"recommendations,omitempty"`
	Upstream         []AgentID      `json:"upstream_agents"`
	Style            WritingStyle   `json:"style"`
	Metrics          ReadingMetrics `json:"report_metadata"`
	// Coverage is the fraction of expected upstream agents that contributed.
	Coverage float64 `json:"coverage"`
}

// Insights implements Findings. Narrative output is not merged as insights.
func (f *SynthesisFindings) Insights() []string { return nil }

// Confidence implements Findings.
func (f *SynthesisFindings) Confidence() float64 { return f.Coverage }

// GenericFindings carries the payload of agent variants unknown to core.
type GenericFindings map[string]any

// Insights implements Findings by reading an optional "insights" list.
func (f GenericFindings) Insights() []string {
	raw, ok := f["insights"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Confidence implements Findings by reading an optional "confidence" number.
func (f GenericFindings) Confidence() float64 {
	c, _ := f["confidence"].(float64)
	return c
}

// DecodeFindings rebuilds the concrete findings type for agent from raw JSON.
// A null or empty payload decodes to nil.
func DecodeFindings(agent AgentID, raw json.RawMessage) (Findings, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var f Findings
	switch agent {
	case AgentQuantitative:
		f = &QuantitativeFindings{}
	case AgentResearch:
		f = &ResearchFindings{}
	case AgentSynthesis:
		f = &SynthesisFindings{}
	default:
		g := GenericFindings{}
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("decode %s findings: %w", agent, err)
		}
		return g, nil
	}

	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("decode %s findings: %w", agent, err)
	}
	return f, nil
}
