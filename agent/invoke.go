package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/insighthub/core"
)

// Invoke runs a under its own timeout and converts every outcome into an
// AgentResult. It never returns an error and never panics: timeouts,
// failures and panics become failed results with nil findings.
//
// Agents that ignore ctx are abandoned when the timeout fires; their late
// result is discarded.
func Invoke(ctx context.Context, a core.Agent, query string, shared core.SharedContext) core.AgentResult {
	timeout := a.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		findings core.Findings
		err      error
	}

	done := make(chan outcome, 1)
	started := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: panic: %v", core.ErrAgentExecution, r)}
			}
		}()

		f, err := a.Produce(runCtx, query, shared)
		done <- outcome{findings: f, err: err}
	}()

	var out outcome

	select {
	case out = <-done:
	case <-runCtx.Done():
		out = outcome{err: runCtx.Err()}
	}

	res := core.AgentResult{
		Agent:      a.ID(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	res.Duration = res.FinishedAt.Sub(started)

	if out.err == nil && out.findings == nil {
		out.err = fmt.Errorf("%w: no findings produced", core.ErrAgentExecution)
	}

	if out.err != nil {
		err := classify(runCtx, out.err)
		res.Status = core.AgentFailed
		res.Error = err.Error()
		res.ErrorKind = core.KindOf(err)
		return res
	}

	res.Status = core.AgentCompleted
	res.Findings = out.findings
	res.Confidence = clamp01(out.findings.Confidence())

	return res
}

// classify wraps err with ErrAgentTimeout or ErrAgentExecution.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, core.ErrAgentTimeout), errors.Is(err, core.ErrAgentExecution):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", core.ErrAgentTimeout, err)
	default:
		return fmt.Errorf("%w: %w", core.ErrAgentExecution, err)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
