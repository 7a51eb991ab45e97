package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/insighthub/aggregate"
	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/util"
	"github.com/hupe1980/insighthub/logging"
	"github.com/hupe1980/insighthub/memory"
	"github.com/hupe1980/insighthub/session"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Memory is the session-scoped shared memory. Defaults to an in-process store.
	Memory *memory.Store
	// Sessions keeps sessions queryable by Status. Defaults to an in-memory registry.
	Sessions *session.InMemoryStore
	// MaxInsights caps the consolidated insight list; 0 means unlimited.
	MaxInsights int
	// Metrics records session and agent outcomes; nil disables metrics.
	Metrics *Metrics
	Logger  logging.Logger
}

// Orchestrator coordinates agent execution for analysis sessions. Public
// methods are safe for concurrent use; sessions share no mutable state
// beyond the memory store and the session registry.
type Orchestrator struct {
	agents   map[core.AgentID]core.Agent
	ordered  []core.Agent
	memory   *memory.Store
	sessions *session.InMemoryStore
	opts     Options
	logger   logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs an Orchestrator over agents. Agent ids must be unique.
func New(agents []core.Agent, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		MaxInsights: aggregate.DefaultMaxInsights,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Memory == nil {
		opts.Memory = memory.NewStore(nil)
	}

	if opts.Sessions == nil {
		opts.Sessions = session.NewInMemoryStore()
	}

	o := &Orchestrator{
		agents:     make(map[core.AgentID]core.Agent, len(agents)),
		memory:     opts.Memory,
		sessions:   opts.Sessions,
		opts:       opts,
		logger:     logging.OrNoOp(opts.Logger),
		activeRuns: make(map[string]context.CancelFunc),
	}

	for _, a := range agents {
		if a == nil {
			return nil, errors.New("nil agent")
		}
		if _, dup := o.agents[a.ID()]; dup {
			return nil, fmt.Errorf("duplicate agent %q", a.ID())
		}
		o.agents[a.ID()] = a
		o.ordered = append(o.ordered, a)
	}

	return o, nil
}

// Agents returns the registered agents in registration order.
func (o *Orchestrator) Agents() []core.Agent {
	return append([]core.Agent(nil), o.ordered...)
}

// Plan resolves the execution plan for query without running it.
func (o *Orchestrator) Plan(query string, mode core.ExecutionMode) Plan {
	return Resolve(query, mode, o.ordered)
}

// Outcome is the terminal result of a session started with Start.
type Outcome struct {
	Result *core.SessionResult
	Err    error
}

// Run executes one analysis session and blocks until it is terminal.
//
// Invalid input is rejected with a core.ValidationError before a session
// exists. A session in which no agent completed returns its result together
// with a *core.SessionFailureError; every other session returns a nil error,
// possibly with a partial report.
func (o *Orchestrator) Run(ctx context.Context, query string, mode core.ExecutionMode) (*core.SessionResult, error) {
	_, outcome, err := o.Start(ctx, query, mode)
	if err != nil {
		return nil, err
	}

	out := <-outcome

	return out.Result, out.Err
}

// Start validates the request, registers a new session and runs it in the
// background. The session id is usable with Status and Cancel immediately;
// the returned channel delivers exactly one Outcome and is then closed.
func (o *Orchestrator) Start(ctx context.Context, query string, mode core.ExecutionMode) (string, <-chan Outcome, error) {
	requested, err := validate(query, mode)
	if err != nil {
		return "", nil, err
	}

	plan := o.Plan(query, requested)

	sess := core.NewSession(util.NewID(), query, requested)
	sess.SetPlan(plan.Mode, plan.Agents())

	if err := o.sessions.Create(sess); err != nil {
		return "", nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.activeRuns[sess.ID] = cancel
	o.mu.Unlock()

	outcome := make(chan Outcome, 1)

	go func() {
		defer close(outcome)
		defer func() {
			cancel()
			o.mu.Lock()
			delete(o.activeRuns, sess.ID)
			o.mu.Unlock()
			o.sessions.Finish(sess.ID)
		}()

		res, err := o.run(runCtx, sess, plan)
		outcome <- Outcome{Result: res, Err: err}
	}()

	return sess.ID, outcome, nil
}

func (o *Orchestrator) run(ctx context.Context, sess *core.Session, plan Plan) (*core.SessionResult, error) {
	start := time.Now()

	log := o.sessionLogger(sess.ID)
	log.Info("session started", "mode", plan.Mode, "requested_mode", plan.Requested, "agents", len(sess.Agents))

	if plan.Decision != nil {
		log.Debug("mode classified",
			"mode", plan.Decision.Mode,
			"sequential_score", plan.Decision.SequentialScore,
			"parallel_score", plan.Decision.ParallelScore,
			"signals", strings.Join(plan.Decision.Signals, ","),
		)
	}

	o.opts.Metrics.sessionStarted()

	backend, degraded := o.memory.Bind(ctx, sess.ID)
	sess.SetMemory(backend, degraded)
	defer o.memory.Release(sess.ID)

	o.remember(ctx, log, sess.ID, core.KeyOriginalQuery, sess.Query)
	o.remember(ctx, log, sess.ID, core.KeyExecutionMode, plan.Mode)

	runErr := o.execute(ctx, log, sess, plan)

	elapsed := time.Since(start)
	res := sess.BuildResult(elapsed)

	o.opts.Metrics.sessionFinished(plan.Mode, res.Status, elapsed)

	if hl, ok := log.(*logging.HubLogger); ok {
		hl.LogSession(string(plan.Mode), res.ExecutionSummary.AgentsCompleted, res.ExecutionSummary.TotalAgents, elapsed, runErr)
	} else {
		args := []any{
			"mode", plan.Mode,
			"agents_completed", res.ExecutionSummary.AgentsCompleted,
			"total_agents", res.ExecutionSummary.TotalAgents,
			"duration", elapsed,
		}
		if runErr != nil {
			log.Error("session failed", append(args, "error", runErr.Error())...)
		} else {
			log.Info("session completed", args...)
		}
	}

	return res, runErr
}

// execute drives the phases of sess. It returns a *core.SessionFailureError
// when the session ends failed.
func (o *Orchestrator) execute(ctx context.Context, log logging.Logger, sess *core.Session, plan Plan) error {
	if len(plan.Waves) == 0 {
		if err := sess.Transition(core.PhaseDispatching); err != nil {
			return err
		}
		return o.fail(sess, "no agents resolved for execution", nil)
	}

	for i, wave := range plan.Waves {
		if err := sess.Transition(core.PhaseDispatching); err != nil {
			return err
		}

		if ctx.Err() != nil {
			return o.fail(sess, "cancelled", context.Cause(ctx))
		}

		log.Debug("dispatching wave", "wave", i, "agents", fmt.Sprint(wave))

		results, err := o.dispatch(ctx, sess, wave)
		if err != nil {
			return o.fail(sess, "cancelled", err)
		}

		if err := sess.Transition(core.PhaseCollecting); err != nil {
			return err
		}

		for _, r := range results {
			o.collect(ctx, log, sess, r)
		}
	}

	if !sess.AllTerminal() {
		return o.fail(sess, "selected agents without a result", nil)
	}

	if sess.CompletedCount() == 0 {
		return o.fail(sess, "no agent completed", nil)
	}

	if err := sess.Transition(core.PhaseAggregating); err != nil {
		return err
	}

	sess.SetReport(aggregate.Aggregate(sess.ResultSet(), aggregate.Options{
		Query:       sess.Query,
		MaxInsights: o.opts.MaxInsights,
	}))

	return sess.Transition(core.PhaseCompleted)
}

// collect records r on the session and shares completed results through
// memory for later waves.
func (o *Orchestrator) collect(ctx context.Context, log logging.Logger, sess *core.Session, r core.AgentResult) {
	if err := sess.Record(r); err != nil {
		log.Warn("agent result discarded", "agent", r.Agent, "error", err.Error())
		return
	}

	o.opts.Metrics.agentFinished(r)

	args := []any{"agent", r.Agent, "status", r.Status, "duration", r.Duration, "confidence", r.Confidence}
	if r.Error != "" {
		log.Warn("agent run failed", append(args, "error", r.Error, "error_kind", r.ErrorKind)...)
	} else {
		log.Info("agent run completed", args...)
	}

	if r.Completed() {
		o.remember(ctx, log, sess.ID, core.OutputKey(r.Agent), r)
	}
}

func (o *Orchestrator) fail(sess *core.Session, reason string, cause error) error {
	if err := sess.Fail(reason); err != nil {
		return err
	}
	return &core.SessionFailureError{SessionID: sess.ID, Reason: reason, Cause: cause}
}

// remember writes to session memory. Memory errors are logged, never fatal:
// later agents simply see less context.
func (o *Orchestrator) remember(ctx context.Context, log logging.Logger, sessionID, key string, value any) {
	if err := o.memory.Put(context.WithoutCancel(ctx), sessionID, key, value); err != nil {
		log.Warn("memory write failed", "key", key, "error", err.Error())
	}
}

// Status returns the polling view of a running or retained session.
func (o *Orchestrator) Status(sessionID string) (core.StatusSnapshot, error) {
	return o.sessions.Status(sessionID)
}

// Session returns a copy of a running or retained session.
func (o *Orchestrator) Session(sessionID string) (*core.Session, error) {
	return o.sessions.Get(sessionID)
}

// Cancel cancels a running session by id.
func (o *Orchestrator) Cancel(sessionID string) error {
	o.mu.Lock()
	cancel, exists := o.activeRuns[sessionID]
	o.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s is not running", core.ErrSessionNotFound, sessionID)
	}

	cancel()

	return nil
}

func (o *Orchestrator) sessionLogger(sessionID string) logging.Logger {
	if hl, ok := o.logger.(*logging.HubLogger); ok {
		return hl.WithSession(sessionID)
	}
	return o.logger
}

func validate(query string, mode core.ExecutionMode) (core.ExecutionMode, error) {
	if strings.TrimSpace(query) == "" {
		return "", &core.ValidationError{Field: "query", Message: "must not be empty"}
	}
	return core.ParseExecutionMode(string(mode))
}
