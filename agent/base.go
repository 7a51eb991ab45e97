package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/logging"
	"github.com/hupe1980/insighthub/model"
)

// DefaultTimeout is the maximum duration of one agent invocation.
const DefaultTimeout = 5 * time.Minute

// Options configure a concrete agent.
type Options struct {
	// Timeout bounds a single invocation; zero means DefaultTimeout.
	Timeout time.Duration
	// Instruction overrides the agent's built-in system prompt.
	Instruction Instruction
	Logger      logging.Logger
}

// BaseAgent bundles identity, timeout and model access shared by all
// variants. Embed it in concrete agent implementations and supply a Produce
// method to satisfy the core.Agent interface.
type BaseAgent struct {
	id           core.AgentID
	description  string
	capabilities []string
	timeout      time.Duration
	llm          model.Model
	instruction  Instruction
	logger       logging.Logger
}

// NewBaseAgent constructs a BaseAgent. defaultInstruction is used unless
// opts carries an override.
func NewBaseAgent(id core.AgentID, llm model.Model, defaultInstruction string, opts Options) BaseAgent {
	instruction := opts.Instruction
	if instruction.IsZero() {
		instruction = NewInstructionFromText(defaultInstruction)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return BaseAgent{
		id:          id,
		description: fmt.Sprintf("Agent %s", id),
		timeout:     timeout,
		llm:         llm,
		instruction: instruction,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// ID returns the agent identifier.
func (b *BaseAgent) ID() core.AgentID { return b.id }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Timeout returns the per-invocation budget.
func (b *BaseAgent) Timeout() time.Duration { return b.timeout }

// Capabilities lists what the agent can do, for agent listings.
func (b *BaseAgent) Capabilities() []string { return b.capabilities }

func (b *BaseAgent) setCapabilities(c ...string) { b.capabilities = c }

// complete resolves the system prompt and sends prompt to the model.
func (b *BaseAgent) complete(ctx context.Context, query string, shared core.SharedContext, prompt string) (string, error) {
	system, err := b.instruction.Resolve(query, shared)
	if err != nil {
		return "", fmt.Errorf("resolve instruction: %w", err)
	}

	return b.completeWith(ctx, system, prompt)
}

// completeWith sends prompt with an explicit system prompt.
func (b *BaseAgent) completeWith(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	text, err := model.Complete(ctx, b.llm, system, prompt)

	info := b.llm.Info()
	if hl, ok := b.logger.(*logging.HubLogger); ok {
		hl.WithAgent(string(b.id)).LogModelCall(info.Name, len(text), time.Since(start), err)
	} else if err != nil {
		b.logger.Warn("model call failed", "agent", b.id, "model", info.Name, "error", err)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, model.ErrEmptyResponse) {
			return "", fmt.Errorf("%w: malformed model output: %w", core.ErrAgentExecution, err)
		}
		return "", fmt.Errorf("%w: model call: %w", core.ErrAgentExecution, err)
	}

	return text, nil
}
