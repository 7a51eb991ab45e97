package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/model"
)

const researchReply = `## Market Overview
The European fintech market reached $45.2 billion in 2024.
## Trends
Digital banking adoption grew 23% year over year. Several banks recently announced new partnerships with startups.
`

func TestPlanSearch(t *testing.T) {
	tests := []struct {
		query    string
		want     string
		industry string
		geo      string
	}{
		{"Competitor landscape for healthcare in Asia", "competitive_analysis", "healthcare", "Asia"},
		{"The future of renewable energy worldwide", "trend_analysis", "energy", "Global"},
		{"Market analysis of software in the United States", "market_research", "technology", "North America"},
		{"hello", "general", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			s := PlanSearch(tt.query)
			assert.Equal(t, tt.want, s.SearchType)
			assert.Equal(t, tt.industry, s.IndustrySector)
			assert.Equal(t, tt.geo, s.GeographicFocus)
		})
	}
}

func TestStaticCatalog(t *testing.T) {
	sources, err := StaticCatalog{}.Sources(context.Background(), "", core.SearchStrategy{IndustrySector: "fintech", GeographicFocus: "Europe"})
	require.NoError(t, err)
	require.Len(t, sources, 4)
	assert.Equal(t, "Fintech Market Analysis Europe 2024", sources[0].Title)
	assert.Equal(t, "Fintech Industry Report Europe", sources[2].Title)

	sources, err = StaticCatalog{}.Sources(context.Background(), "", core.SearchStrategy{})
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Technology Industry Report Global", sources[0].Title)
	assert.Equal(t, "https://www.deloitte.com/technology-market-intelligence", sources[1].URL)
}

func TestResearchAgent_Produce(t *testing.T) {
	llm := model.NewMockModel("mock", "test")
	llm.SetHandler(func(_ context.Context, req model.Request) (string, error) {
		assert.Contains(t, req.Prompt(), "Search Type: market_research")
		return researchReply, nil
	})

	a := NewResearchAgent(llm)
	assert.Equal(t, core.AgentResearch, a.ID())

	f, err := a.Produce(context.Background(), "Fintech market analysis in Europe", nil)
	require.NoError(t, err)

	rf, ok := f.(*core.ResearchFindings)
	require.True(t, ok)

	assert.Len(t, rf.Sources, 4)
	assert.InDelta(t, 0.895, rf.ReliabilityScore, 1e-9)
	assert.Equal(t, rf.ReliabilityScore, rf.Confidence())

	assert.Equal(t, "The European fintech market reached $45.2 billion in 2024.", rf.Sections["market_overview"])
	assert.Contains(t, rf.Sections["industry_analysis"], "Information about industry analysis")

	assert.Len(t, rf.KeyStatistics, 3)
	assert.Equal(t, "$45.2 billion", rf.KeyStatistics[0].Value)
	require.Len(t, rf.RecentDevelopments, 1)
	assert.Contains(t, rf.RecentDevelopments[0], "recently announced")

	require.Len(t, rf.Insights(), 8)
	assert.Equal(t, "Analysis based on 4 sources, 3 high-reliability", rf.Insights()[0])
	assert.Equal(t, "Found 3 key statistical data points", rf.Insights()[1])

	require.Len(t, rf.Recommendations, 5)
	assert.Equal(t, "Assess regulatory compliance requirements in target markets", rf.Recommendations[3])
	assert.Contains(t, rf.Summary, "market_research")
}

func TestResearchAgent_CapsSources(t *testing.T) {
	llm := model.NewMockModel("mock", "test")

	provider := SourceProviderFunc(func(context.Context, string, core.SearchStrategy) ([]core.Source, error) {
		out := make([]core.Source, 7)
		for i := range out {
			out[i] = core.Source{Title: "s", Reliability: 0.5}
		}
		return out, nil
	})

	a := NewResearchAgent(llm, func(o *ResearchOptions) { o.Sources = provider })

	f, err := a.Produce(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Len(t, f.(*core.ResearchFindings).Sources, MaxSources)
	assert.InDelta(t, 0.5, f.Confidence(), 1e-9)
}

func TestResearchAgent_SourceError(t *testing.T) {
	llm := model.NewMockModel("mock", "test")

	provider := SourceProviderFunc(func(context.Context, string, core.SearchStrategy) ([]core.Source, error) {
		return nil, errors.New("search unavailable")
	})

	_, err := NewResearchAgent(llm, func(o *ResearchOptions) { o.Sources = provider }).Produce(context.Background(), "q", nil)
	require.ErrorIs(t, err, core.ErrAgentExecution)
	assert.Equal(t, 0, llm.Calls())
}
