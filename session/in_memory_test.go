package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/core"
)

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()

	sess := core.NewSession("s1", "q", core.ModeParallel)
	require.NoError(t, store.Create(sess))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "q", got.Query)

	got.Query = "mutated"

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "q", again.Query)
}

func TestInMemoryStore_StatusTracksLiveSession(t *testing.T) {
	store := NewInMemoryStore()

	sess := core.NewSession("s1", "q", core.ModeSequential)
	require.NoError(t, store.Create(sess))

	sess.SetPlan(core.ModeSequential, []core.AgentID{core.AgentQuantitative, core.AgentResearch})
	require.NoError(t, sess.Transition(core.PhaseDispatching))
	require.NoError(t, sess.Record(core.AgentResult{Agent: core.AgentQuantitative, Status: core.AgentCompleted}))

	snap, err := store.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, core.SessionRunning, snap.Status)
	assert.Equal(t, core.PhaseDispatching, snap.Phase)
	assert.Equal(t, 1, snap.CompletedAgentCount)
	assert.Equal(t, 2, snap.TotalAgentCount)
}

func TestInMemoryStore_NotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("missing")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	_, err = store.Status("missing")
	require.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestInMemoryStore_DuplicateCreate(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Create(core.NewSession("s1", "q", core.ModeDynamic)))
	require.Error(t, store.Create(core.NewSession("s1", "q", core.ModeDynamic)))
}

func TestInMemoryStore_Retention(t *testing.T) {
	store := NewInMemoryStore(func(o *Options) { o.Retention = time.Minute })

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(core.NewSession("done", "q", core.ModeDynamic)))
	require.NoError(t, store.Create(core.NewSession("running", "q", core.ModeDynamic)))

	store.Finish("done")

	now = now.Add(2 * time.Minute)

	_, err := store.Get("done")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	_, err = store.Get("running")
	require.NoError(t, err)

	require.NoError(t, store.Create(core.NewSession("next", "q", core.ModeDynamic)))
	assert.Equal(t, 2, store.Len())
}
