package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/core"
)

func TestInstruction_Resolve(t *testing.T) {
	shared := core.SharedContext{}

	t.Run("static", func(t *testing.T) {
		out, err := NewInstructionFromText("You analyse markets.").Resolve("q", shared)
		require.NoError(t, err)
		assert.Equal(t, "You analyse markets.", out)
	})

	t.Run("templated", func(t *testing.T) {
		in := NewInstructionFromText("Answer {{.query}} ({{default \"any\" .industry}}).")
		out, err := in.Resolve("churn in Europe", shared)
		require.NoError(t, err)
		assert.Equal(t, "Answer churn in Europe (any).", out)
	})

	t.Run("provider", func(t *testing.T) {
		in := NewInstructionFromFunc(func(query string, _ core.SharedContext) (string, error) {
			return "dynamic:" + query, nil
		})
		assert.False(t, in.IsStatic())

		out, err := in.Resolve("q", nil)
		require.NoError(t, err)
		assert.Equal(t, "dynamic:q", out)
	})

	assert.True(t, Instruction{}.IsZero())
}
