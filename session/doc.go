// Package session keeps track of orchestration sessions so their status can
// be polled while they run and their results read after they finish.
//
// The registry holds the live *core.Session owned by the orchestrator and
// hands out clones, so callers never observe or cause partial writes.
// Finished sessions are evicted after a retention period.
package session
