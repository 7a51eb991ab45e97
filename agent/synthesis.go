package agent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/util"
	"github.com/hupe1980/insighthub/model"
)

const (
	maxSynthesisFindings        = 8
	maxSynthesisRecommendations = 7
	maxPromptItems              = 5
)

var (
	executiveRe = regexp.MustCompile(`executive|board|leadership|c-level`)
	technicalRe = regexp.MustCompile(`technical|analysis|detailed|comprehensive`)
	briefRe     = regexp.MustCompile(`summary|brief|overview`)

	recommendationLineRe = regexp.MustCompile(`^(?:[-•]|\d+\.)\s*`)
)

// SynthesisAgent turns the quantitative and research results into a
// narrative report. It runs after both and scores only its own coverage.
type SynthesisAgent struct {
	BaseAgent
}

// NewSynthesisAgent creates the synthesis agent on top of llm.
func NewSynthesisAgent(llm model.Model, optFns ...func(o *Options)) *SynthesisAgent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &SynthesisAgent{BaseAgent: NewBaseAgent(core.AgentSynthesis, llm, synthesisInstruction, opts)}
	a.SetDescription("Specialized in synthesizing analyses into professional reports, executive summaries and recommendations")
	a.setCapabilities("report_generation", "executive_summaries", "content_synthesis", "recommendation_formulation")

	return a
}

// DependsOn implements core.Dependent.
func (a *SynthesisAgent) DependsOn() []core.AgentID {
	return []core.AgentID{core.AgentQuantitative, core.AgentResearch}
}

// Produce implements core.Agent.
func (a *SynthesisAgent) Produce(ctx context.Context, query string, shared core.SharedContext) (core.Findings, error) {
	var (
		quant    *core.QuantitativeFindings
		research *core.ResearchFindings
		upstream []core.AgentID
	)

	if r, ok := shared.Result(core.AgentQuantitative); ok {
		if qf, ok := r.Findings.(*core.QuantitativeFindings); ok {
			quant = qf
			upstream = append(upstream, core.AgentQuantitative)
		}
	}

	if r, ok := shared.Result(core.AgentResearch); ok {
		if rf, ok := r.Findings.(*core.ResearchFindings); ok {
			research = rf
			upstream = append(upstream, core.AgentResearch)
		}
	}

	if len(upstream) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrAgentExecution, core.ErrNoUpstreamContext)
	}

	var dataInsights, researchInsights, kpis []string
	if quant != nil {
		dataInsights = capList(quant.InsightList, maxPromptItems)
		kpis = capList(formatKPIs(quant.KPIs), maxPromptItems)
	}
	if research != nil {
		researchInsights = capList(research.InsightList, maxPromptItems)
	}

	prompt, err := util.Execute(summaryPrompt, map[string]any{
		"Query":            query,
		"DataInsights":     dataInsights,
		"ResearchInsights": researchInsights,
		"KPIs":             kpis,
	})
	if err != nil {
		return nil, fmt.Errorf("render summary prompt: %w", err)
	}

	summary, err := a.completeWith(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	prompt, err = util.Execute(recommendationsPrompt, map[string]any{
		"Query":            query,
		"DataInsights":     dataInsights,
		"ResearchInsights": researchInsights,
	})
	if err != nil {
		return nil, fmt.Errorf("render recommendations prompt: %w", err)
	}

	reply, err := a.completeWith(ctx, recommendationsSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	recs := ParseRecommendations(reply, maxSynthesisRecommendations)
	if len(recs) == 0 {
		recs = upstreamRecommendations(quant, research)
	}

	f := &core.SynthesisFindings{
		ExecutiveSummary: strings.TrimSpace(summary),
		KeyFindings:      keyFindings(quant, research),
		Recommendations:  recs,
		Upstream:         upstream,
		Style:            DetectWritingStyle(query),
		Coverage:         float64(len(upstream)) / float64(len(a.DependsOn())),
	}

	prompt, err = util.Execute(reportPrompt, map[string]any{
		"Query":            query,
		"ExecutiveSummary": f.ExecutiveSummary,
		"KeyFindings":      f.KeyFindings,
		"Recommendations":  f.Recommendations,
		"Style":            f.Style,
	})
	if err != nil {
		return nil, fmt.Errorf("render report prompt: %w", err)
	}

	narrative, err := a.complete(ctx, query, shared, prompt)
	if err != nil {
		return nil, err
	}

	f.Narrative = narrative
	f.Metrics = readingMetrics(narrative)

	return f, nil
}

// DetectWritingStyle picks tone, format, audience and technical depth from
// keywords in the query.
func DetectWritingStyle(query string) core.WritingStyle {
	lower := strings.ToLower(query)

	style := core.WritingStyle{
		Tone:           "professional",
		Format:         "business_report",
		Audience:       "business_stakeholders",
		TechnicalLevel: "moderate",
	}

	if executiveRe.MatchString(lower) {
		style.Tone = "executive"
		style.Format = "executive_summary"
		style.Audience = "senior_management"
	}

	if technicalRe.MatchString(lower) {
		style.TechnicalLevel = "high"
		style.Format = "detailed_analysis"
	}

	if briefRe.MatchString(lower) {
		style.Format = "summary_report"
		style.TechnicalLevel = "low"
	}

	return style
}

// ParseRecommendations returns the bulleted or numbered lines of text with
// their markers removed.
func ParseRecommendations(text string, limit int) []string {
	var out []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		loc := recommendationLineRe.FindStringIndex(line)
		if loc == nil {
			continue
		}

		if rec := strings.TrimSpace(line[loc[1]:]); rec != "" {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}

	return out
}

func keyFindings(quant *core.QuantitativeFindings, research *core.ResearchFindings) []string {
	var findings []string

	if quant != nil {
		for _, name := range sortedKeys(quant.KPIs)[:min(3, len(quant.KPIs))] {
			findings = append(findings, fmt.Sprintf("**%s**: %s", util.Title(name), formatNumber(quant.KPIs[name])))
		}
		findings = append(findings, capList(quant.InsightList, 3)...)
	}

	if research != nil {
		findings = append(findings, capList(research.InsightList, 3)...)
		if len(research.RecentDevelopments) > 0 {
			findings = append(findings, "**Recent Development**: "+truncateRunes(research.RecentDevelopments[0], 200))
		}
	}

	return capList(findings, maxSynthesisFindings)
}

func upstreamRecommendations(quant *core.QuantitativeFindings, research *core.ResearchFindings) []string {
	var recs []string
	if quant != nil {
		recs = append(recs, quant.Recommendations...)
	}
	if research != nil {
		recs = append(recs, research.Recommendations...)
	}
	return capList(recs, maxSynthesisRecommendations)
}

func formatKPIs(kpis map[string]float64) []string {
	out := make([]string, 0, len(kpis))
	for _, name := range sortedKeys(kpis) {
		out = append(out, fmt.Sprintf("%s: %s", util.Title(name), formatNumber(kpis[name])))
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
