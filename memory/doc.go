// Package memory implements the session-scoped shared memory agents use to
// exchange intermediate findings. The MemoryBackend contract and MemoryEntry
// type reside in the core package; this package contains the Store that binds
// each session to a backend plus the in-process backend used as fallback.
//
// Durable backends live in sub-packages (memory/redis, memory/sqlite) and are
// selected at wiring time. A Store pings its durable backend once per session;
// when the ping fails the session is bound to the in-process backend for the
// rest of its life and the degradation is logged, never retried.
package memory
