package aggregate

import (
	"sort"

	"github.com/hupe1980/insighthub/core"
)

// DefaultMaxInsights is the insight cap used by DefaultOptions.
const DefaultMaxInsights = 10

const maxMergedRecommendations = 7

// Options control aggregation.
type Options struct {
	// Query is the analysed question, used as the fallback report title.
	Query string
	// MaxInsights caps the merged insight list; 0 means unlimited.
	MaxInsights int
}

// DefaultOptions returns Options with the default insight cap.
func DefaultOptions(query string) Options {
	return Options{Query: query, MaxInsights: DefaultMaxInsights}
}

// Aggregate merges results into a ConsolidatedReport.
//
// Insights are taken from the quantitative agent first, then research, then
// any other agent in id order. Exact repeats are dropped and attribution is
// kept. The final report is the synthesis narrative when synthesis
// completed; otherwise a markdown fallback is built from the raw findings,
// provided at least one data agent completed.
func Aggregate(results map[core.AgentID]core.AgentResult, opts Options) core.ConsolidatedReport {
	report := core.ConsolidatedReport{
		Insights: mergeInsights(results, opts.MaxInsights),
	}

	for _, r := range results {
		if !r.Completed() {
			report.Partial = true
			break
		}
	}

	quant := quantitative(results)
	research := researchFindings(results)

	if quant != nil {
		report.Scores.DataQualityScore = results[core.AgentQuantitative].Confidence
	}
	if research != nil {
		report.Scores.ResearchReliabilityScore = research.MeanReliability()
	}

	if sf := synthesis(results); sf != nil && sf.Narrative != "" {
		narrative := sf.Narrative
		report.FinalReport = &narrative
		report.ExecutiveSummary = sf.ExecutiveSummary
		report.KeyFindings = sf.KeyFindings
		report.Recommendations = sf.Recommendations
		return report
	}

	report.Recommendations = mergeRecommendations(quant, research)

	if quant != nil || research != nil {
		report.FallbackReport = FallbackReport(opts.Query, quant, research)
	}

	return report
}

// order returns the agent ids of results in merge order.
func order(results map[core.AgentID]core.AgentResult) []core.AgentID {
	ids := make([]core.AgentID, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}

	rank := func(id core.AgentID) int {
		switch id {
		case core.AgentQuantitative:
			return 0
		case core.AgentResearch:
			return 1
		default:
			return 2
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		ri, rj := rank(ids[i]), rank(ids[j])
		if ri != rj {
			return ri < rj
		}
		return ids[i] < ids[j]
	})

	return ids
}

func mergeInsights(results map[core.AgentID]core.AgentResult, limit int) []core.AttributedInsight {
	out := []core.AttributedInsight{}
	seen := make(map[string]struct{})

	for _, id := range order(results) {
		r := results[id]
		if !r.Completed() || r.Findings == nil {
			continue
		}

		for _, text := range r.Findings.Insights() {
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}

			out = append(out, core.AttributedInsight{Agent: id, Text: text})
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}

	return out
}

func mergeRecommendations(quant *core.QuantitativeFindings, research *core.ResearchFindings) []string {
	var all []string
	if quant != nil {
		all = append(all, quant.Recommendations...)
	}
	if research != nil {
		all = append(all, research.Recommendations...)
	}

	var out []string
	seen := make(map[string]struct{}, len(all))
	for _, r := range all {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
		if len(out) == maxMergedRecommendations {
			break
		}
	}

	return out
}

func quantitative(results map[core.AgentID]core.AgentResult) *core.QuantitativeFindings {
	r, ok := results[core.AgentQuantitative]
	if !ok || !r.Completed() {
		return nil
	}
	f, _ := r.Findings.(*core.QuantitativeFindings)
	return f
}

func researchFindings(results map[core.AgentID]core.AgentResult) *core.ResearchFindings {
	r, ok := results[core.AgentResearch]
	if !ok || !r.Completed() {
		return nil
	}
	f, _ := r.Findings.(*core.ResearchFindings)
	return f
}

func synthesis(results map[core.AgentID]core.AgentResult) *core.SynthesisFindings {
	r, ok := results[core.AgentSynthesis]
	if !ok || !r.Completed() {
		return nil
	}
	f, _ := r.Findings.(*core.SynthesisFindings)
	return f
}
