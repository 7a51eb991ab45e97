package agent

import (
	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the query or shared context.
type Provider interface {
	Instruction(query string, shared core.SharedContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(query string, shared core.SharedContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(query string, shared core.SharedContext) (string, error) {
	return f(query, shared)
}

// Instruction represents either a static system prompt or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(query string, shared core.SharedContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether neither text nor provider is set.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider if needed.
// Static text may reference {{.query}}.
func (i Instruction) Resolve(query string, shared core.SharedContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(query, shared)
	}
	return util.RenderTemplate(i.text, map[string]any{"query": query})
}
