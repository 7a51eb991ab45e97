package aggregate

import (
	"fmt"
	"strings"

	"github.com/hupe1980/insighthub/core"
)

const fallbackItems = 5

// FallbackReport renders a markdown report straight from the quantitative and
// research findings. Either may be nil.
func FallbackReport(query string, quant *core.QuantitativeFindings, research *core.ResearchFindings) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis Report: %s\n\n", query)

	b.WriteString("## Executive Summary\n")
	b.WriteString("This report combines the available quantitative analysis and market research for the query above.\n\n")

	if quant != nil {
		b.WriteString("## Data Analysis Results\n")
		b.WriteString("Key quantitative insights:\n")
		writeBullets(&b, quant.InsightList, fallbackItems)
		b.WriteString("\n")
	}

	if research != nil {
		b.WriteString("## Research Findings\n")
		b.WriteString("Market research insights:\n")
		writeBullets(&b, research.InsightList, fallbackItems)
		b.WriteString("\n")
	}

	var recs []string
	if quant != nil {
		recs = append(recs, head(quant.Recommendations, 3)...)
	}
	if research != nil {
		recs = append(recs, head(research.Recommendations, 3)...)
	}

	if len(recs) > 0 {
		b.WriteString("## Strategic Recommendations\n")
		writeBullets(&b, recs, len(recs))
	}

	b.WriteString("\n---\nReport generated by InsightHub\n")

	return b.String()
}

func writeBullets(b *strings.Builder, items []string, n int) {
	for _, it := range head(items, n) {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
