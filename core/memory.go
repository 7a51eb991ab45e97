package core

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

const (
	// KeyOriginalQuery holds the session query in shared memory.
	KeyOriginalQuery = "original_query"
	// KeyExecutionMode holds the resolved execution mode in shared memory.
	KeyExecutionMode = "execution_mode"

	outputKeyPrefix = "agent_output:"
)

// OutputKey is the memory key under which a completed agent's result is shared.
func OutputKey(id AgentID) string { return outputKeyPrefix + string(id) }

// IsOutputKey reports whether key holds an agent result.
func IsOutputKey(key string) bool { return strings.HasPrefix(key, outputKeyPrefix) }

// AgentOutputs returns the subset of entries holding agent results. Session
// bookkeeping such as KeyOriginalQuery is left out.
func AgentOutputs(entries map[string]json.RawMessage) SharedContext {
	shared := SharedContext{}
	for k, v := range entries {
		if IsOutputKey(k) {
			shared[k] = v
		}
	}
	return shared
}

// MemoryEntry is a single value in a session's shared memory.
type MemoryEntry struct {
	SessionID string          `json:"session_id"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	WrittenAt time.Time       `json:"written_at"`
}

// MemoryBackend persists session-scoped entries. Keys are namespaced by
// session id; values are opaque JSON bytes. Get reports a missing or expired
// key with ok=false and a nil error.
type MemoryBackend interface {
	Name() string
	Ping(ctx context.Context) error
	Set(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	List(ctx context.Context, sessionID string) ([]MemoryEntry, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// SharedContext is the read-only snapshot of session memory handed to an
// agent at dispatch time.
type SharedContext map[string]json.RawMessage

// Has reports whether key is present.
func (c SharedContext) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Decode unmarshals the value under key into v.
func (c SharedContext) Decode(key string, v any) (bool, error) {
	raw, ok := c[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// String returns a string value, or "" when absent or not a string.
func (c SharedContext) String(key string) string {
	var s string
	if ok, err := c.Decode(key, &s); !ok || err != nil {
		return ""
	}
	return s
}

// Result returns the shared result of agent id. Only completed results are
// ever shared.
func (c SharedContext) Result(id AgentID) (AgentResult, bool) {
	var r AgentResult
	ok, err := c.Decode(OutputKey(id), &r)
	if !ok || err != nil {
		return AgentResult{}, false
	}
	return r, true
}
