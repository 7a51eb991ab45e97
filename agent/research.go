package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/util"
	"github.com/hupe1980/insighthub/model"
)

const (
	maxResearchInsights        = 8
	maxResearchRecommendations = 5
	maxKeyStatistics           = 10
	maxRecentDevelopments      = 5
	highReliability            = 0.85
)

type pattern struct {
	re    *regexp.Regexp
	value string
}

var (
	marketResearchRe = regexp.MustCompile(`market.*analysis|market.*research|industry.*report`)
	competitiveRe    = regexp.MustCompile(`competitor|competition|competitive`)
	trendRe          = regexp.MustCompile(`trend|future|forecast|prediction`)

	industryPatterns = []pattern{
		{regexp.MustCompile(`fintech|financial.*technology`), "fintech"},
		{regexp.MustCompile(`healthcare|medical|pharma`), "healthcare"},
		{regexp.MustCompile(`technology|tech|software`), "technology"},
		{regexp.MustCompile(`retail|e-commerce`), "retail"},
		{regexp.MustCompile(`energy|renewable`), "energy"},
	}

	geoPatterns = []pattern{
		{regexp.MustCompile(`europe|european`), "Europe"},
		{regexp.MustCompile(`usa|america|united.*states`), "North America"},
		{regexp.MustCompile(`asia|asian`), "Asia"},
		{regexp.MustCompile(`global|worldwide|international`), "Global"},
	}
)

// researchSections are the headings the research prompt asks for, keyed by
// the name they are stored under.
var researchSections = []struct {
	key     string
	keyword string
}{
	{"market_overview", "market overview"},
	{"industry_analysis", "industry analysis"},
	{"trends", "trends"},
	{"strategic_insights", "strategic insights"},
	{"expert_perspectives", "expert perspectives"},
}

// ResearchOptions configure the research agent.
type ResearchOptions struct {
	Options
	// Sources supplies reference material; defaults to StaticCatalog.
	Sources SourceProvider
}

// ResearchAgent produces qualitative insights backed by cited sources.
type ResearchAgent struct {
	BaseAgent
	sources SourceProvider
}

// NewResearchAgent creates the research agent on top of llm.
func NewResearchAgent(llm model.Model, optFns ...func(o *ResearchOptions)) *ResearchAgent {
	opts := ResearchOptions{Sources: StaticCatalog{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sources == nil {
		opts.Sources = StaticCatalog{}
	}

	a := &ResearchAgent{
		BaseAgent: NewBaseAgent(core.AgentResearch, llm, researchInstruction, opts.Options),
		sources:   opts.Sources,
	}
	a.SetDescription("Specialized in information gathering, source validation, qualitative insights and market research")
	a.setCapabilities("web_research", "source_validation", "content_analysis", "trend_identification")

	return a
}

// Produce implements core.Agent.
func (a *ResearchAgent) Produce(ctx context.Context, query string, shared core.SharedContext) (core.Findings, error) {
	strategy := PlanSearch(query)

	sources, err := a.sources.Sources(ctx, query, strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: source lookup: %w", core.ErrAgentExecution, err)
	}

	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}

	prompt, err := util.Execute(researchPrompt, map[string]any{
		"Query":    query,
		"Strategy": strategy,
		"Upstream": upstreamDigest(shared, core.AgentResearch),
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	reply, err := a.complete(ctx, query, shared, prompt)
	if err != nil {
		return nil, err
	}

	f := &core.ResearchFindings{
		Strategy:           strategy,
		Sources:            sources,
		Sections:           make(map[string]string, len(researchSections)),
		KeyStatistics:      extractStatistics(reply, maxKeyStatistics),
		RecentDevelopments: extractRecentDevelopments(reply, maxRecentDevelopments),
	}

	for _, s := range researchSections {
		f.Sections[s.key] = extractSection(reply, s.keyword)
	}

	f.ReliabilityScore = f.MeanReliability()
	f.InsightList = researchInsights(f)
	f.Summary = searchSummary(f)
	f.Recommendations = researchRecommendations(f)

	return f, nil
}

// PlanSearch classifies the query into a search type, focus areas, industry
// and geography.
func PlanSearch(query string) core.SearchStrategy {
	lower := strings.ToLower(query)

	strategy := core.SearchStrategy{SearchType: "general"}

	switch {
	case marketResearchRe.MatchString(lower):
		strategy.SearchType = "market_research"
		strategy.FocusAreas = []string{"market_size", "growth_trends", "competitive_landscape"}
	case competitiveRe.MatchString(lower):
		strategy.SearchType = "competitive_analysis"
		strategy.FocusAreas = []string{"competitor_profiles", "market_share", "positioning"}
	case trendRe.MatchString(lower):
		strategy.SearchType = "trend_analysis"
		strategy.FocusAreas = []string{"emerging_trends", "forecasts", "expert_predictions"}
	}

	strategy.IndustrySector = firstMatch(lower, industryPatterns)
	strategy.GeographicFocus = firstMatch(lower, geoPatterns)

	return strategy
}

func firstMatch(s string, patterns []pattern) string {
	for _, p := range patterns {
		if p.re.MatchString(s) {
			return p.value
		}
	}
	return ""
}

func researchInsights(f *core.ResearchFindings) []string {
	high := 0
	for _, s := range f.Sources {
		if s.Reliability > highReliability {
			high++
		}
	}

	insights := []string{
		fmt.Sprintf("Analysis based on %d sources, %d high-reliability", len(f.Sources), high),
	}

	if n := len(f.KeyStatistics); n > 0 {
		insights = append(insights, fmt.Sprintf("Found %d key statistical data points", n))
		for _, st := range f.KeyStatistics[:min(2, n)] {
			insights = append(insights, fmt.Sprintf("Key metric identified: %s - %s...", st.Value, truncateRunes(st.Context, 100)))
		}
	}

	if n := len(f.RecentDevelopments); n > 0 {
		insights = append(insights,
			fmt.Sprintf("Identified %d recent market developments", n),
			fmt.Sprintf("Latest development: %s...", truncateRunes(f.RecentDevelopments[0], 150)),
		)
	}

	if f.Strategy.IndustrySector == "fintech" {
		insights = append(insights,
			"Fintech sector showing strong digital transformation momentum",
			"Regulatory compliance and security remain key focus areas",
			"Investment patterns indicate growing institutional adoption",
		)
	}

	if f.Strategy.SearchType == "market_research" {
		insights = append(insights,
			"Market consolidation trends visible across major players",
			"Customer acquisition costs and retention metrics are key performance indicators",
		)
	}

	return capList(insights, maxResearchInsights)
}

func searchSummary(f *core.ResearchFindings) string {
	focus := "general topics"
	if len(f.Strategy.FocusAreas) > 0 {
		focus = strings.Join(f.Strategy.FocusAreas, ", ")
	}

	return fmt.Sprintf(
		"Research conducted using %s strategy across %d sources (average reliability %.2f), focusing on %s. Identified %d statistics and %d recent developments.",
		f.Strategy.SearchType, len(f.Sources), f.ReliabilityScore, focus, len(f.KeyStatistics), len(f.RecentDevelopments),
	)
}

func researchRecommendations(f *core.ResearchFindings) []string {
	recs := []string{
		"Continue monitoring market developments for strategic opportunities",
		"Validate findings with primary research and expert interviews",
		"Track key metrics and KPIs identified in the analysis regularly",
	}

	switch f.Strategy.SearchType {
	case "competitive_analysis":
		recs = append(recs,
			"Conduct deep-dive analysis on top 3 competitors",
			"Benchmark positioning against market leaders",
		)
	case "trend_analysis":
		recs = append(recs,
			"Develop strategic response to identified market trends",
			"Monitor early indicators of emerging opportunities",
		)
	}

	if f.Strategy.IndustrySector == "fintech" {
		recs = append(recs,
			"Assess regulatory compliance requirements in target markets",
			"Evaluate partnership opportunities with established financial institutions",
		)
	}

	return capList(recs, maxResearchRecommendations)
}
