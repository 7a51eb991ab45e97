package orchestrator

import (
	"regexp"
	"strings"

	"github.com/hupe1980/insighthub/core"
)

// longQueryWords is the word count from which a query counts as a request
// for depth.
const longQueryWords = 16

type signalGroup struct {
	name  string
	words []string
}

var sequentialSignals = []signalGroup{
	{"comparative", []string{"compare", "comparison", "versus", "vs", "against", "relative", "benchmark"}},
	{"trend", []string{"trend", "trends", "growth", "forecast", "over time", "evolution", "historical", "yoy"}},
	{"depth", []string{"detailed", "comprehensive", "thorough", "deep", "in-depth"}},
	{"quantitative", []string{"kpi", "metrics", "statistics", "numbers", "data"}},
}

var parallelSignals = []signalGroup{
	{"breadth", []string{"quick", "summary", "brief", "overview", "list", "lookup", "snapshot"}},
}

var wordRe = regexp.MustCompile(`[a-z0-9]+(?:-[a-z0-9]+)*`)

// Decision is the outcome of classifying a query for dynamic mode.
type Decision struct {
	Mode            core.ExecutionMode `json:"mode"`
	SequentialScore int                `json:"sequential_score"`
	ParallelScore   int                `json:"parallel_score"`
	// Signals lists the matched keywords as "group:word".
	Signals []string `json:"signals,omitempty"`
}

// Classify picks sequential or parallel execution for query. Sequential
// wins only with a strictly higher score; ties go to parallel. The result
// depends on nothing but the query text.
func Classify(query string) Decision {
	words := wordRe.FindAllString(strings.ToLower(query), -1)

	present := make(map[string]struct{}, len(words))
	for _, w := range words {
		present[w] = struct{}{}
	}

	joined := " " + strings.Join(words, " ") + " "

	matches := func(signal string) bool {
		if strings.Contains(signal, " ") {
			return strings.Contains(joined, " "+signal+" ")
		}
		_, ok := present[signal]
		return ok
	}

	d := Decision{}

	score := func(groups []signalGroup) int {
		n := 0
		for _, g := range groups {
			for _, w := range g.words {
				if matches(w) {
					n++
					d.Signals = append(d.Signals, g.name+":"+w)
				}
			}
		}
		return n
	}

	d.SequentialScore = score(sequentialSignals)
	d.ParallelScore = score(parallelSignals)

	if len(words) >= longQueryWords {
		d.SequentialScore++
		d.Signals = append(d.Signals, "depth:long-query")
	}

	d.Mode = core.ModeParallel
	if d.SequentialScore > d.ParallelScore {
		d.Mode = core.ModeSequential
	}

	return d
}
