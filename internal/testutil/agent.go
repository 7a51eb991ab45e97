package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/insighthub/core"
)

// ProduceFunc scripts the behaviour of a FakeAgent.
type ProduceFunc func(ctx context.Context, query string, shared core.SharedContext) (core.Findings, error)

// FakeAgent is a scripted core.Agent that records the shared context it saw.
type FakeAgent struct {
	AgentID   core.AgentID
	Deps      []core.AgentID
	Limit     time.Duration
	ProduceFn ProduceFunc

	mu     sync.Mutex
	seen   []core.SharedContext
	called int
}

// NewFakeAgent returns an agent answering with f.
func NewFakeAgent(id core.AgentID, f core.Findings) *FakeAgent {
	return &FakeAgent{
		AgentID: id,
		Limit:   time.Second,
		ProduceFn: func(context.Context, string, core.SharedContext) (core.Findings, error) {
			return f, nil
		},
	}
}

func (a *FakeAgent) ID() core.AgentID          { return a.AgentID }
func (a *FakeAgent) Description() string       { return "fake " + string(a.AgentID) }
func (a *FakeAgent) Timeout() time.Duration    { return a.Limit }
func (a *FakeAgent) DependsOn() []core.AgentID { return a.Deps }

// Produce implements core.Agent.
func (a *FakeAgent) Produce(ctx context.Context, query string, shared core.SharedContext) (core.Findings, error) {
	a.mu.Lock()
	a.called++
	a.seen = append(a.seen, shared)
	a.mu.Unlock()

	return a.ProduceFn(ctx, query, shared)
}

// Calls returns how many times Produce ran.
func (a *FakeAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.called
}

// LastShared returns the shared context of the most recent call.
func (a *FakeAgent) LastShared() core.SharedContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.seen) == 0 {
		return nil
	}
	return a.seen[len(a.seen)-1]
}

// Quantitative returns quantitative findings with one insight and score.
func Quantitative(insight string, score float64) *core.QuantitativeFindings {
	return &core.QuantitativeFindings{
		KPIs:             map[string]float64{"market_growth_rate": 12.5},
		InsightList:      []string{insight},
		DataQualityScore: score,
	}
}

// Research returns research findings with one insight and the given source reliabilities.
func Research(insight string, reliabilities ...float64) *core.ResearchFindings {
	f := &core.ResearchFindings{InsightList: []string{insight}}
	for _, r := range reliabilities {
		f.Sources = append(f.Sources, core.Source{Title: "src", Reliability: r})
	}
	f.ReliabilityScore = f.MeanReliability()
	return f
}

// Synthesis returns synthesis findings with the given narrative.
func Synthesis(narrative string) *core.SynthesisFindings {
	return &core.SynthesisFindings{Narrative: narrative, ExecutiveSummary: "summary"}
}
