package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/insighthub/agent"
	"github.com/hupe1980/insighthub/core"
)

// dispatch runs one wave and returns its results in wave order. Every agent
// of the wave receives the same snapshot of earlier agents' outputs, taken
// once before any of them starts.
//
// Invocations are detached from ctx; if ctx is cancelled dispatch returns
// the cancellation cause immediately and the abandoned invocations finish
// on their own timeout with their results discarded.
func (o *Orchestrator) dispatch(ctx context.Context, sess *core.Session, wave []core.AgentID) ([]core.AgentResult, error) {
	shared, err := o.memory.GetAll(ctx, sess.ID)
	if err != nil {
		o.sessionLogger(sess.ID).Warn("memory snapshot failed", "error", err.Error())
		shared = nil
	}

	snapshot := core.AgentOutputs(shared)
	results := make([]core.AgentResult, len(wave))

	var g errgroup.Group

	for i, id := range wave {
		a, ok := o.agents[id]
		if !ok {
			results[i] = core.SkippedResult(id, "agent not registered")
			continue
		}

		if reason, skip := o.shouldSkip(sess, a); skip {
			results[i] = core.SkippedResult(id, reason)
			continue
		}

		g.Go(func() error {
			results[i] = agent.Invoke(context.WithoutCancel(ctx), a, sess.Query, snapshot)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return results, nil
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

// shouldSkip reports whether a is a dependent agent none of whose
// dependencies completed.
func (o *Orchestrator) shouldSkip(sess *core.Session, a core.Agent) (string, bool) {
	deps := dependsOn(a)
	if len(deps) == 0 {
		return "", false
	}

	for _, dep := range deps {
		if r, ok := sess.Result(dep); ok && r.Completed() {
			return "", false
		}
	}

	return fmt.Sprintf("no dependency completed: %v", deps), true
}
