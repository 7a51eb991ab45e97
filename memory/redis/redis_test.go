package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/memory"
)

// Interface compliance (compile-time assertions)
var _ core.MemoryBackend = (*Backend)(nil)

func newTestBackend(t *testing.T) (*Backend, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	b := New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = b.Close() })

	return b, mr
}

func TestBackend_SetGetUsesSessionKeys(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestBackend(t)

	require.NoError(t, b.Ping(ctx))
	require.NoError(t, b.Set(ctx, "s1", "agent_output:quantitative", []byte(`{"a":1}`), time.Hour))

	assert.True(t, mr.Exists("session:s1:agent_output:quantitative"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1:agent_output:quantitative"))

	got, ok, err := b.Get(ctx, "s1", "agent_output:quantitative")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))

	_, ok, err = b.Get(ctx, "s1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackend_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestBackend(t)

	require.NoError(t, b.Set(ctx, "s1", "k", []byte(`1`), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := b.Get(ctx, "s1", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackend_ListAndDeleteAreSessionScoped(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestBackend(t)

	require.NoError(t, b.Set(ctx, "s1", "original_query", []byte(`"q"`), time.Hour))
	require.NoError(t, b.Set(ctx, "s1", "agent_output:research", []byte(`{}`), time.Hour))
	require.NoError(t, b.Set(ctx, "s10", "original_query", []byte(`"other"`), time.Hour))

	entries, err := b.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	keys := []string{entries[0].Key, entries[1].Key}
	assert.ElementsMatch(t, []string{"original_query", "agent_output:research"}, keys)

	require.NoError(t, b.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("session:s1:original_query"))
	assert.True(t, mr.Exists("session:s10:original_query"))
}

func TestBackend_WithStore(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBackend(t)

	store := memory.NewStore(b)
	name, degraded := store.Bind(ctx, "s1")
	assert.Equal(t, "redis", name)
	assert.False(t, degraded)

	require.NoError(t, store.Put(ctx, "s1", core.KeyExecutionMode, core.ModeParallel))

	var mode core.ExecutionMode
	ok, err := store.Decode(ctx, "s1", core.KeyExecutionMode, &mode)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.ModeParallel, mode)
}

func TestBackend_UnreachableDegradesStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	b := New(goredis.NewClient(&goredis.Options{Addr: addr, MaxRetries: -1}))
	t.Cleanup(func() { _ = b.Close() })

	store := memory.NewStore(b, func(o *memory.Options) { o.PingTimeout = 200 * time.Millisecond })
	name, degraded := store.Bind(ctx, "s1")
	assert.Equal(t, "memory", name)
	assert.True(t, degraded)

	require.NoError(t, store.Put(ctx, "s1", "k", "v"))
	raw, ok, err := store.Get(ctx, "s1", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"v"`, string(raw))
}

func TestNewFromURL(t *testing.T) {
	_, err := NewFromURL("://bad")
	require.Error(t, err)

	b, err := NewFromURL("redis://localhost:6379/0")
	require.NoError(t, err)
	require.NoError(t, b.Close())
}
