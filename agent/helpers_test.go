package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/core"
)

// sharedWith builds a shared context holding completed results for the
// given agent/findings pairs.
func sharedWith(t *testing.T, pairs ...any) core.SharedContext {
	t.Helper()

	shared := core.SharedContext{}
	for i := 0; i+1 < len(pairs); i += 2 {
		id := pairs[i].(core.AgentID)
		f := pairs[i+1].(core.Findings)

		raw, err := json.Marshal(core.AgentResult{
			Agent:      id,
			Status:     core.AgentCompleted,
			Findings:   f,
			Confidence: f.Confidence(),
		})
		require.NoError(t, err)

		shared[core.OutputKey(id)] = raw
	}

	return shared
}
