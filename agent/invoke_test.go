package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/testutil"
)

func TestInvoke_Completed(t *testing.T) {
	a := testutil.NewFakeAgent(core.AgentQuantitative, testutil.Quantitative("growth", 1.5))

	res := Invoke(context.Background(), a, "q", nil)

	assert.Equal(t, core.AgentCompleted, res.Status)
	assert.Equal(t, core.AgentQuantitative, res.Agent)
	assert.Equal(t, 1.0, res.Confidence)
	assert.NotNil(t, res.Findings)
	assert.Empty(t, res.Error)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestInvoke_Timeout(t *testing.T) {
	a := testutil.NewFakeAgent(core.AgentResearch, nil)
	a.Limit = 20 * time.Millisecond
	a.ProduceFn = func(ctx context.Context, _ string, _ core.SharedContext) (core.Findings, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	res := Invoke(context.Background(), a, "q", nil)

	assert.Equal(t, core.AgentFailed, res.Status)
	assert.Equal(t, core.ErrorKindTimeout, res.ErrorKind)
	assert.Nil(t, res.Findings)
	assert.Contains(t, res.Error, "agent timeout")
}

func TestInvoke_AbandonsAgentIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	a := testutil.NewFakeAgent(core.AgentResearch, nil)
	a.Limit = 10 * time.Millisecond
	a.ProduceFn = func(context.Context, string, core.SharedContext) (core.Findings, error) {
		<-release
		return testutil.Research("late"), nil
	}

	start := time.Now()
	res := Invoke(context.Background(), a, "q", nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, core.AgentFailed, res.Status)
	assert.Equal(t, core.ErrorKindTimeout, res.ErrorKind)
}

func TestInvoke_ExecutionError(t *testing.T) {
	a := testutil.NewFakeAgent(core.AgentQuantitative, nil)
	a.ProduceFn = func(context.Context, string, core.SharedContext) (core.Findings, error) {
		return nil, errors.New("upstream 500")
	}

	res := Invoke(context.Background(), a, "q", nil)

	assert.Equal(t, core.AgentFailed, res.Status)
	assert.Equal(t, core.ErrorKindExecution, res.ErrorKind)
	assert.Contains(t, res.Error, "upstream 500")
}

func TestInvoke_Panic(t *testing.T) {
	a := testutil.NewFakeAgent(core.AgentQuantitative, nil)
	a.ProduceFn = func(context.Context, string, core.SharedContext) (core.Findings, error) {
		panic("boom")
	}

	res := Invoke(context.Background(), a, "q", nil)

	assert.Equal(t, core.AgentFailed, res.Status)
	assert.Equal(t, core.ErrorKindExecution, res.ErrorKind)
	assert.Contains(t, res.Error, "boom")
}

func TestInvoke_NilFindings(t *testing.T) {
	a := testutil.NewFakeAgent(core.AgentQuantitative, nil)
	a.ProduceFn = func(context.Context, string, core.SharedContext) (core.Findings, error) {
		return nil, nil
	}

	res := Invoke(context.Background(), a, "q", nil)

	require.Equal(t, core.AgentFailed, res.Status)
	assert.Equal(t, core.ErrorKindExecution, res.ErrorKind)
}
