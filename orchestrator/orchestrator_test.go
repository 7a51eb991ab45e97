package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/agent"
	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/testutil"
	"github.com/hupe1980/insighthub/memory"
	"github.com/hupe1980/insighthub/model"
)

type fakes struct {
	quant, research, synth *testutil.FakeAgent
}

func newFakes() fakes {
	synth := testutil.NewFakeAgent(core.AgentSynthesis, testutil.Synthesis("# Narrative"))
	synth.Deps = []core.AgentID{core.AgentQuantitative, core.AgentResearch}

	return fakes{
		quant:    testutil.NewFakeAgent(core.AgentQuantitative, testutil.Quantitative("quant insight", 0.8)),
		research: testutil.NewFakeAgent(core.AgentResearch, testutil.Research("research insight", 0.9, 0.7)),
		synth:    synth,
	}
}

func (f fakes) agents() []core.Agent { return []core.Agent{f.quant, f.research, f.synth} }

func failing(a *testutil.FakeAgent) {
	a.ProduceFn = func(context.Context, string, core.SharedContext) (core.Findings, error) {
		return nil, errors.New("provider unavailable")
	}
}

func keys(shared core.SharedContext) []string {
	out := make([]string, 0, len(shared))
	for k := range shared {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newOrchestrator(t *testing.T, agents []core.Agent, optFns ...func(o *Options)) *Orchestrator {
	t.Helper()
	o, err := New(agents, optFns...)
	require.NoError(t, err)
	return o
}

func TestNew_RejectsDuplicateAgents(t *testing.T) {
	a := testutil.NewFakeAgent(core.AgentQuantitative, testutil.Quantitative("x", 1))
	_, err := New([]core.Agent{a, a})
	require.Error(t, err)
}

func TestRun_Validation(t *testing.T) {
	o := newOrchestrator(t, newFakes().agents())

	_, err := o.Run(context.Background(), "   ", core.ModeParallel)
	require.ErrorIs(t, err, core.ErrValidation)

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "query", ve.Field)

	_, err = o.Run(context.Background(), "q", "random")
	require.ErrorIs(t, err, core.ErrValidation)

	assert.Zero(t, o.sessions.Len())
}

func TestRun_TerminalForAllModes(t *testing.T) {
	for _, mode := range core.Modes {
		t.Run(string(mode), func(t *testing.T) {
			o := newOrchestrator(t, newFakes().agents())

			res, err := o.Run(context.Background(), "fintech market", mode)
			require.NoError(t, err)

			assert.True(t, res.Status.IsTerminal())
			assert.Equal(t, core.SessionCompleted, res.Status)
			assert.Equal(t, mode, res.ExecutionSummary.RequestedMode)
			assert.True(t, res.ExecutionSummary.ResolvedMode.IsConcrete())
			assert.Equal(t, 3, res.ExecutionSummary.AgentsCompleted)
			assert.Equal(t, 3, res.ExecutionSummary.TotalAgents)
			require.NotNil(t, res.FinalReport)
			assert.Equal(t, "# Narrative", *res.FinalReport)
			assert.False(t, res.Partial)

			snap, err := o.Status(res.SessionID)
			require.NoError(t, err)
			assert.Equal(t, core.PhaseCompleted, snap.Phase)
			assert.Equal(t, 3, snap.CompletedAgentCount)
		})
	}
}

func TestRun_SequentialResearchSeesQuantitative(t *testing.T) {
	f := newFakes()
	o := newOrchestrator(t, f.agents())

	_, err := o.Run(context.Background(), "fintech", core.ModeSequential)
	require.NoError(t, err)

	assert.Empty(t, f.quant.LastShared())

	shared := f.research.LastShared()
	assert.Equal(t, []string{core.OutputKey(core.AgentQuantitative)}, keys(shared))

	r, ok := shared.Result(core.AgentQuantitative)
	require.True(t, ok)
	assert.Equal(t, []string{"quant insight"}, r.Findings.Insights())
}

func TestRun_SequentialResearchWithoutFailedQuantitative(t *testing.T) {
	f := newFakes()
	failing(f.quant)
	o := newOrchestrator(t, f.agents())

	res, err := o.Run(context.Background(), "fintech", core.ModeSequential)
	require.NoError(t, err)

	assert.False(t, f.research.LastShared().Has(core.OutputKey(core.AgentQuantitative)))
	assert.Equal(t, core.SessionCompleted, res.Status)
	assert.True(t, res.Partial)
}

func TestRun_ParallelSiblingsIsolated(t *testing.T) {
	f := newFakes()
	o := newOrchestrator(t, f.agents())

	res, err := o.Run(context.Background(), "fintech", core.ModeParallel)
	require.NoError(t, err)

	assert.Empty(t, f.quant.LastShared())
	assert.Empty(t, f.research.LastShared())

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var out struct {
		ConsolidatedInsights []string `json:"consolidated_insights"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, []string{"📊 quant insight", "🔍 research insight"}, out.ConsolidatedInsights)

	synthShared := f.synth.LastShared()
	assert.True(t, synthShared.Has(core.OutputKey(core.AgentQuantitative)))
	assert.True(t, synthShared.Has(core.OutputKey(core.AgentResearch)))
}

func TestRun_SingleFailure(t *testing.T) {
	f := newFakes()
	failing(f.research)
	o := newOrchestrator(t, f.agents())

	res, err := o.Run(context.Background(), "fintech", core.ModeParallel)
	require.NoError(t, err)

	assert.Equal(t, core.SessionCompleted, res.Status)
	assert.True(t, res.Partial)
	assert.Equal(t, 2, res.ExecutionSummary.AgentsCompleted)

	failed := res.AgentResults[core.AgentResearch]
	assert.Equal(t, core.AgentFailed, failed.Status)
	assert.Nil(t, failed.Findings)
	assert.Equal(t, core.ErrorKindExecution, failed.ErrorKind)
	assert.Contains(t, failed.Error, "provider unavailable")

	assert.Zero(t, res.QualityMetrics.ResearchReliabilityScore)
	assert.Equal(t, 0.8, res.QualityMetrics.DataQualityScore)
}

func TestRun_AllFail(t *testing.T) {
	f := newFakes()
	failing(f.quant)
	failing(f.research)
	o := newOrchestrator(t, f.agents())

	res, err := o.Run(context.Background(), "fintech", core.ModeParallel)
	require.ErrorIs(t, err, core.ErrSessionFailure)

	var sfe *core.SessionFailureError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, res.SessionID, sfe.SessionID)

	assert.Equal(t, core.SessionFailed, res.Status)
	assert.Nil(t, res.FinalReport)
	assert.Empty(t, res.FallbackReport)
	assert.NotEmpty(t, res.Error)

	assert.Equal(t, core.AgentSkipped, res.AgentResults[core.AgentSynthesis].Status)
	assert.Equal(t, 0, f.synth.Calls())
}

func TestRun_NoAgents(t *testing.T) {
	o := newOrchestrator(t, nil)

	res, err := o.Run(context.Background(), "fintech", core.ModeParallel)
	require.ErrorIs(t, err, core.ErrSessionFailure)
	assert.Equal(t, core.SessionFailed, res.Status)
	assert.Zero(t, res.ExecutionSummary.TotalAgents)
}

func TestRun_FallbackReportWithoutSynthesis(t *testing.T) {
	f := newFakes()
	failing(f.synth)
	o := newOrchestrator(t, f.agents())

	res, err := o.Run(context.Background(), "fintech", core.ModeParallel)
	require.NoError(t, err)

	assert.Nil(t, res.FinalReport)
	assert.True(t, res.Partial)
	assert.Contains(t, res.FallbackReport, "# Analysis Report: fintech")
}

func TestRun_DegradedMemory(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	primary := &testutil.UnreachableBackend{}
	store := memory.NewStore(primary, func(o *memory.Options) { o.OnDegraded = metrics.ObserveDegraded })

	f := newFakes()
	o := newOrchestrator(t, f.agents(), func(o *Options) {
		o.Memory = store
		o.Metrics = metrics
	})

	res, err := o.Run(context.Background(), "fintech", core.ModeSequential)
	require.NoError(t, err)

	assert.True(t, res.MemoryDegraded)
	assert.Equal(t, core.SessionCompleted, res.Status)
	assert.Equal(t, 1, primary.Pings())
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.MemoryDegraded))

	r, ok := f.synth.LastShared().Result(core.AgentResearch)
	require.True(t, ok)
	assert.InDelta(t, 0.8, r.Findings.Confidence(), 1e-9)
}

func TestRun_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	f := newFakes()
	failing(f.research)
	o := newOrchestrator(t, f.agents(), func(o *Options) { o.Metrics = metrics })

	_, err := o.Run(context.Background(), "fintech", core.ModeParallel)
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Sessions.WithLabelValues("parallel", "completed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.AgentRuns.WithLabelValues("research", "failed", "execution")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.AgentRuns.WithLabelValues("quantitative", "completed", "")))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.InFlight))
}

func TestRun_DynamicDeterminism(t *testing.T) {
	query := "Compare fintech growth in Europe versus the US"

	var modes []core.ExecutionMode
	for i := 0; i < 3; i++ {
		o := newOrchestrator(t, newFakes().agents())
		res, err := o.Run(context.Background(), query, core.ModeDynamic)
		require.NoError(t, err)
		modes = append(modes, res.ExecutionSummary.ResolvedMode)
	}

	assert.Equal(t, []core.ExecutionMode{core.ModeSequential, core.ModeSequential, core.ModeSequential}, modes)
}

func TestRun_Cancellation(t *testing.T) {
	f := newFakes()
	f.quant.Limit = 100 * time.Millisecond
	f.quant.ProduceFn = func(ctx context.Context, _ string, _ core.SharedContext) (core.Findings, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	o := newOrchestrator(t, f.agents())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := o.Run(ctx, "fintech", core.ModeSequential)
	require.ErrorIs(t, err, core.ErrSessionFailure)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, core.SessionFailed, res.Status)
	assert.Empty(t, res.AgentResults)
	assert.Equal(t, 0, f.research.Calls())

	snap, err := o.Status(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, core.PhaseFailed, snap.Phase)
}

func TestStartStatusAndCancel(t *testing.T) {
	release := make(chan struct{})

	f := newFakes()
	f.quant.ProduceFn = func(ctx context.Context, _ string, _ core.SharedContext) (core.Findings, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return testutil.Quantitative("late", 0.5), nil
	}

	o := newOrchestrator(t, f.agents())

	id, outcome, err := o.Start(context.Background(), "fintech", core.ModeSequential)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := o.Status(id)
		return err == nil && snap.Status == core.SessionRunning
	}, time.Second, 5*time.Millisecond)

	snap, err := o.Status(id)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.TotalAgentCount)
	assert.Equal(t, 0, snap.CompletedAgentCount)

	require.NoError(t, o.Cancel(id))

	out := <-outcome
	require.ErrorIs(t, out.Err, core.ErrSessionFailure)
	assert.Equal(t, core.SessionFailed, out.Result.Status)

	close(release)

	_, ok := <-outcome
	assert.False(t, ok)

	require.ErrorIs(t, o.Cancel(id), core.ErrSessionNotFound)
}

func TestStatus_UnknownSession(t *testing.T) {
	o := newOrchestrator(t, nil)
	_, err := o.Status("nope")
	require.ErrorIs(t, err, core.ErrSessionNotFound)
}

const (
	quantReply    = "Revenue is growing at 15% annually. The market increased by 20% in 2024. Key players hold 45% share. Churn is stable."
	researchReply = "## Market Overview\nThe European fintech market reached $45.2 billion in 2024.\n## Trends\nDigital banking adoption grew 23% year over year. Several banks recently announced new partnerships with startups.\n"
	reportReply   = "# Fintech Report\n\n- Expand into Germany\n- Partner with established banks\n"
)

func TestRun_FintechSequentialScenario(t *testing.T) {
	var researchSawQuant atomic.Bool

	llm := model.NewMockModel("mock", "test")
	llm.SetHandler(func(_ context.Context, req model.Request) (string, error) {
		switch {
		case strings.Contains(req.Instructions, "Data Analyst"):
			return quantReply, nil
		case strings.Contains(req.Instructions, "Research AI"):
			if strings.Contains(req.Prompt(), "Additional Context from Previous Analysis") {
				researchSawQuant.Store(true)
			}
			return researchReply, nil
		default:
			return reportReply, nil
		}
	})

	agents := []core.Agent{
		agent.NewQuantitativeAgent(llm),
		agent.NewResearchAgent(llm),
		agent.NewSynthesisAgent(llm),
	}

	o := newOrchestrator(t, agents)

	res, err := o.Run(context.Background(), "Analyze fintech market trends in Europe for 2024", core.ModeSequential)
	require.NoError(t, err)

	assert.Equal(t, core.SessionCompleted, res.Status)
	assert.Equal(t, core.ModeSequential, res.ExecutionSummary.ResolvedMode)
	assert.Equal(t, 3, res.ExecutionSummary.AgentsCompleted)
	assert.False(t, res.Partial)
	assert.True(t, researchSawQuant.Load())

	require.NotNil(t, res.FinalReport)
	assert.Contains(t, *res.FinalReport, "# Fintech Report")
	assert.Equal(t, []string{"Expand into Germany", "Partner with established banks"}, res.Recommendations)

	assert.InDelta(t, 1.0, res.QualityMetrics.DataQualityScore, 1e-9)
	assert.InDelta(t, 0.895, res.QualityMetrics.ResearchReliabilityScore, 1e-9)

	require.NotEmpty(t, res.ConsolidatedInsights)
	assert.True(t, strings.HasPrefix(res.ConsolidatedInsights[0], "📊 "))
	assert.Equal(t, core.AgentQuantitative, res.AttributedInsights[0].Agent)
	assert.LessOrEqual(t, len(res.ConsolidatedInsights), 10)

	// 1 quantitative + 1 research + 3 synthesis calls.
	assert.Equal(t, 5, llm.Calls())
}

func TestExecute_RequiresEveryAgentTerminal(t *testing.T) {
	f := newFakes()
	o := newOrchestrator(t, f.agents())

	sess := core.NewSession("s-gap", "fintech", core.ModeParallel)
	sess.SetPlan(core.ModeParallel, []core.AgentID{core.AgentQuantitative, core.AgentResearch})

	plan := Plan{
		Requested: core.ModeParallel,
		Mode:      core.ModeParallel,
		Waves:     [][]core.AgentID{{core.AgentQuantitative}},
	}

	err := o.execute(context.Background(), o.logger, sess, plan)

	var failure *core.SessionFailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "selected agents without a result", failure.Reason)
	assert.Equal(t, core.PhaseFailed, sess.Snapshot().Phase)
	assert.Nil(t, sess.BuildResult(0).FinalReport)
}
