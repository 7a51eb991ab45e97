package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/insighthub/core"
)

type item struct {
	value     []byte
	writtenAt time.Time
	expiresAt time.Time
}

// InMemoryBackend is a process‑local core.MemoryBackend.
//
// Concurrency: protected by RWMutex. Values are copied on write and on read
// so callers never share backing arrays with the store. Expired entries are
// dropped lazily whenever a session is touched.
type InMemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]map[string]item // sessionID -> key -> item
	now      func() time.Time
}

// NewInMemoryBackend creates a new in-memory backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		sessions: make(map[string]map[string]item),
		now:      time.Now,
	}
}

// Name implements core.MemoryBackend.
func (m *InMemoryBackend) Name() string { return "memory" }

// Ping implements core.MemoryBackend; the in-process backend is always reachable.
func (m *InMemoryBackend) Ping(context.Context) error { return nil }

// Set stores a copy of value under key until ttl elapses (ttl <= 0: no expiry).
func (m *InMemoryBackend) Set(_ context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pruneLocked(sessionID, now)

	if _, exists := m.sessions[sessionID]; !exists {
		m.sessions[sessionID] = make(map[string]item)
	}

	it := item{value: append([]byte(nil), value...), writtenAt: now}
	if ttl > 0 {
		it.expiresAt = now.Add(ttl)
	}

	m.sessions[sessionID][key] = it

	return nil
}

// Get returns a copy of the value under key.
func (m *InMemoryBackend) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.sessions[sessionID][key]
	if !ok || it.expired(m.now()) {
		return nil, false, nil
	}

	return append([]byte(nil), it.value...), true, nil
}

// List returns the live entries of a session ordered by write time.
func (m *InMemoryBackend) List(_ context.Context, sessionID string) ([]core.MemoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	entries := make([]core.MemoryEntry, 0, len(m.sessions[sessionID]))

	for k, it := range m.sessions[sessionID] {
		if it.expired(now) {
			continue
		}
		entries = append(entries, core.MemoryEntry{
			SessionID: sessionID,
			Key:       k,
			Value:     append([]byte(nil), it.value...),
			WrittenAt: it.writtenAt,
		})
	}

	sortEntries(entries)

	return entries, nil
}

// Delete removes every entry of the session.
func (m *InMemoryBackend) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Close implements core.MemoryBackend.
func (m *InMemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]map[string]item)
	return nil
}

func (m *InMemoryBackend) pruneLocked(sessionID string, now time.Time) {
	for k, it := range m.sessions[sessionID] {
		if it.expired(now) {
			delete(m.sessions[sessionID], k)
		}
	}
}

func (it item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

func sortEntries(entries []core.MemoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WrittenAt.Equal(entries[j].WrittenAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].WrittenAt.Before(entries[j].WrittenAt)
	})
}
