package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/insighthub/core"
	"github.com/hupe1980/insighthub/logging"
)

const (
	// DefaultTTL is the lifetime of every memory entry.
	DefaultTTL = time.Hour
	// DefaultPingTimeout bounds the reachability check of the durable backend.
	DefaultPingTimeout = 2 * time.Second
)

// Options configure a Store.
type Options struct {
	// Fallback is used when the durable backend is unreachable. Defaults to
	// a fresh InMemoryBackend.
	Fallback core.MemoryBackend
	// TTL applied to every write.
	TTL time.Duration
	// PingTimeout bounds the per-session reachability check.
	PingTimeout time.Duration
	Logger      logging.Logger
	// OnDegraded is called once for every session bound to the fallback
	// because the durable backend failed its ping.
	OnDegraded func(sessionID string, err error)
}

// Store is the session-scoped shared memory. Each session is bound to exactly
// one backend on first use; the binding holds until Clear.
type Store struct {
	primary  core.MemoryBackend
	fallback core.MemoryBackend
	opts     Options

	mu       sync.Mutex
	bindings map[string]binding
}

type binding struct {
	backend  core.MemoryBackend
	degraded bool
}

// NewStore creates a Store preferring primary. A nil primary binds every
// session to the fallback without reporting degradation.
func NewStore(primary core.MemoryBackend, optFns ...func(o *Options)) *Store {
	opts := Options{
		TTL:         DefaultTTL,
		PingTimeout: DefaultPingTimeout,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Fallback == nil {
		opts.Fallback = NewInMemoryBackend()
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Store{
		primary:  primary,
		fallback: opts.Fallback,
		opts:     opts,
		bindings: make(map[string]binding),
	}
}

// Bind decides the backend for sessionID and reports its name and whether
// the session runs degraded. Subsequent calls return the same decision.
func (s *Store) Bind(ctx context.Context, sessionID string) (string, bool) {
	b := s.bind(ctx, sessionID)
	return b.backend.Name(), b.degraded
}

func (s *Store) bind(ctx context.Context, sessionID string) binding {
	s.mu.Lock()
	b, ok := s.bindings[sessionID]
	s.mu.Unlock()

	if ok {
		return b
	}

	b = s.decide(ctx, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.bindings[sessionID]; ok {
		return existing
	}

	s.bindings[sessionID] = b

	return b
}

func (s *Store) decide(ctx context.Context, sessionID string) binding {
	if s.primary == nil {
		return binding{backend: s.fallback}
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.opts.PingTimeout)
	defer cancel()

	err := s.primary.Ping(pingCtx)
	if err == nil {
		return binding{backend: s.primary}
	}

	s.opts.Logger.Warn("MemoryStoreDegraded",
		"session_id", sessionID,
		"backend", s.primary.Name(),
		"fallback", s.fallback.Name(),
		"error", fmt.Errorf("%w: %w", core.ErrMemoryDegraded, err).Error(),
	)

	if s.opts.OnDegraded != nil {
		s.opts.OnDegraded(sessionID, err)
	}

	return binding{backend: s.fallback, degraded: true}
}

// Put JSON-encodes value and stores it under key, overwriting any previous value.
func (s *Store) Put(ctx context.Context, sessionID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode memory value %q: %w", key, err)
	}

	b := s.bind(ctx, sessionID)
	if err := b.backend.Set(ctx, sessionID, key, data, s.opts.TTL); err != nil {
		return fmt.Errorf("%s: set %q: %w", b.backend.Name(), key, err)
	}

	return nil
}

// Get returns the raw JSON value under key.
func (s *Store) Get(ctx context.Context, sessionID, key string) (json.RawMessage, bool, error) {
	b := s.bind(ctx, sessionID)

	data, ok, err := b.backend.Get(ctx, sessionID, key)
	if err != nil {
		return nil, false, fmt.Errorf("%s: get %q: %w", b.backend.Name(), key, err)
	}

	return data, ok, nil
}

// Decode reads key and unmarshals it into v.
func (s *Store) Decode(ctx context.Context, sessionID, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, sessionID, key)
	if err != nil || !ok {
		return ok, err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode memory value %q: %w", key, err)
	}

	return true, nil
}

// GetAll returns every live entry of the session keyed by name.
func (s *Store) GetAll(ctx context.Context, sessionID string) (map[string]json.RawMessage, error) {
	entries, err := s.Entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}

	return out, nil
}

// Entries returns every live entry of the session ordered by write time.
func (s *Store) Entries(ctx context.Context, sessionID string) ([]core.MemoryEntry, error) {
	b := s.bind(ctx, sessionID)

	entries, err := b.backend.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", b.backend.Name(), err)
	}

	sortEntries(entries)

	return entries, nil
}

// Clear deletes the session's entries and releases its binding. A session
// without a binding, e.g. one that already finished, is bound first so its
// entries are deleted from the backend they live on.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	b := s.bind(ctx, sessionID)
	s.Release(sessionID)

	if err := b.backend.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%s: delete session: %w", b.backend.Name(), err)
	}

	return nil
}

// Release forgets the session's binding without deleting its entries, which
// stay readable on their backend until the TTL expires.
func (s *Store) Release(sessionID string) {
	s.mu.Lock()
	delete(s.bindings, sessionID)
	s.mu.Unlock()
}

// Close releases both backends.
func (s *Store) Close() error {
	var firstErr error

	if s.primary != nil {
		firstErr = s.primary.Close()
	}

	if err := s.fallback.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
