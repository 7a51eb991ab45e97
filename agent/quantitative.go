package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/util"
	"github.com/hupe1980/insighthub/model"
)

const (
	maxQuantInsights        = 8
	maxQuantRecommendations = 5
	maxExtractedMetrics     = 10
	maxKeyFindings          = 5
)

var (
	metricKeywords   = []string{"revenue", "growth", "market share", "roi", "conversion", "kpi", "performance", "statistics", "trends", "analysis"}
	timeKeywords     = []string{"2024", "2023", "quarterly", "monthly", "yearly", "annual"}
	geoKeywords      = []string{"europe", "usa", "global", "international", "domestic"}
	industryKeywords = []string{"fintech", "technology", "healthcare", "finance", "retail", "manufacturing"}
)

// KPI is a named key performance indicator.
type KPI struct {
	Name  string
	Value float64
}

// kpiTables maps a query keyword onto the KPIs reported for that domain.
// Tables are applied in order and generic quality KPIs always come last.
var kpiTables = []struct {
	keyword string
	kpis    []KPI
}{
	{"market", []KPI{{"market_growth_rate", 12.5}, {"market_penetration", 35.7}, {"competitive_index", 0.68}}},
	{"fintech", []KPI{{"adoption_rate", 28.3}, {"transaction_volume_growth", 45.2}, {"user_acquisition_cost", 125.0}}},
	{"revenue", []KPI{{"revenue_growth_yoy", 18.4}, {"profit_margin", 15.2}, {"roi", 22.8}}},
}

var genericKPIs = []KPI{{"confidence_score", 0.85}, {"data_completeness", 0.92}, {"analysis_depth_score", 0.78}}

// QuantitativeAgent produces KPIs, quantitative insights and a self-reported
// data-quality score.
type QuantitativeAgent struct {
	BaseAgent
}

// NewQuantitativeAgent creates the quantitative agent on top of llm.
func NewQuantitativeAgent(llm model.Model, optFns ...func(o *Options)) *QuantitativeAgent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &QuantitativeAgent{BaseAgent: NewBaseAgent(core.AgentQuantitative, llm, quantitativeInstruction, opts)}
	a.SetDescription("Specialized in numerical data analysis, KPI calculations, statistical insights and quantitative trends")
	a.setCapabilities("statistical_analysis", "kpi_calculation", "trend_analysis", "data_quality_assessment")

	return a
}

// Produce implements core.Agent.
func (a *QuantitativeAgent) Produce(ctx context.Context, query string, shared core.SharedContext) (core.Findings, error) {
	req := ParseRequirements(query)

	prompt, err := util.Execute(quantitativePrompt, map[string]any{
		"Query":    query,
		"Req":      req,
		"Upstream": upstreamDigest(shared, core.AgentQuantitative),
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	reply, err := a.complete(ctx, query, shared, prompt)
	if err != nil {
		return nil, err
	}

	f := &core.QuantitativeFindings{
		Requirements:     req,
		ExtractedMetrics: extractMetrics(reply, maxExtractedMetrics),
		KeyFindings:      extractKeyFindings(reply, maxKeyFindings),
		TrendIndicators:  extractTrendIndicators(reply),
		Summary:          summarize(reply),
	}

	table := KPITable(query)
	f.KPIs = make(map[string]float64, len(table))
	for _, k := range table {
		f.KPIs[k.Name] = k.Value
	}

	f.InsightList = quantInsights(f, table)
	f.DataQualityScore = DataQuality(f)
	f.Recommendations = quantRecommendations(f)

	return f, nil
}

// ParseRequirements extracts metrics, time period, geography and industry
// keywords from the query.
func ParseRequirements(query string) core.AnalysisRequirements {
	lower := strings.ToLower(query)
	req := core.AnalysisRequirements{}

	for _, k := range metricKeywords {
		if strings.Contains(lower, k) {
			req.Metrics = append(req.Metrics, k)
		}
	}

	req.TimePeriod = firstContained(lower, timeKeywords)
	req.GeographicScope = firstContained(lower, geoKeywords)
	req.Industry = firstContained(lower, industryKeywords)

	return req
}

func firstContained(s string, words []string) string {
	for _, w := range words {
		if strings.Contains(s, w) {
			return w
		}
	}
	return ""
}

// KPITable returns the KPIs for the query's domain in presentation order.
func KPITable(query string) []KPI {
	lower := strings.ToLower(query)

	var out []KPI
	for _, t := range kpiTables {
		if strings.Contains(lower, t.keyword) {
			out = append(out, t.kpis...)
		}
	}

	return append(out, genericKPIs...)
}

func quantInsights(f *core.QuantitativeFindings, table []KPI) []string {
	var insights []string

	for _, k := range table {
		switch {
		case strings.Contains(k.Name, "growth") && k.Value > 10:
			insights = append(insights, fmt.Sprintf("Strong growth indicated by %s: %s%%", k.Name, formatNumber(k.Value)))
		case strings.Contains(k.Name, "score") && k.Value > 0.8:
			insights = append(insights, fmt.Sprintf("High performance in %s: %.2f", k.Name, k.Value))
		}
	}

	for _, finding := range capList(f.KeyFindings, 3) {
		insights = append(insights, "Key finding: "+finding)
	}

	if len(f.TrendIndicators) > 0 {
		insights = append(insights, "Market trends showing: "+strings.Join(f.TrendIndicators, ", "))
	}

	return capList(insights, maxQuantInsights)
}

// DataQuality scores how much usable quantitative content the reply had:
// 0.5 base, +0.2 with extracted metrics, +0.15 with key findings and +0.15
// when more than three numbers were found, capped at 1.
func DataQuality(f *core.QuantitativeFindings) float64 {
	score := 0.5

	if len(f.ExtractedMetrics) > 0 {
		score += 0.2
	}

	if len(f.KeyFindings) > 0 {
		score += 0.15
	}

	if f.Summary.Count > 3 {
		score += 0.15
	}

	return min(score, 1.0)
}

func quantRecommendations(f *core.QuantitativeFindings) []string {
	recs := []string{
		"Monitor key performance metrics regularly for trend detection",
		"Conduct deeper analysis on identified growth opportunities",
		"Validate findings with additional data sources when possible",
	}

	for _, t := range f.TrendIndicators {
		switch t {
		case "growing":
			recs = append(recs, "Capitalize on growth trends with strategic investments")
		case "declining":
			recs = append(recs, "Investigate decline causes and implement corrective measures")
		}
	}

	return capList(recs, maxQuantRecommendations)
}

// upstreamDigest summarises the completed results in shared other than self,
// for inclusion in a prompt. It returns nil when there are none.
func upstreamDigest(shared core.SharedContext, self core.AgentID) map[string]any {
	digest := map[string]any{}

	for _, id := range []core.AgentID{core.AgentQuantitative, core.AgentResearch} {
		if id == self {
			continue
		}

		r, ok := shared.Result(id)
		if !ok || r.Findings == nil {
			continue
		}

		entry := map[string]any{"insights": r.Findings.Insights()}
		if qf, ok := r.Findings.(*core.QuantitativeFindings); ok {
			entry["kpis"] = qf.KPIs
		}
		if rf, ok := r.Findings.(*core.ResearchFindings); ok {
			entry["recent_developments"] = rf.RecentDevelopments
		}

		digest[string(id)] = entry
	}

	if len(digest) == 0 {
		return nil
	}

	return digest
}
