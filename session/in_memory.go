package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/insighthub/core"
)

// DefaultRetention is how long finished sessions stay queryable.
const DefaultRetention = time.Hour

// Options configure an InMemoryStore.
type Options struct {
	// Retention bounds how long a finished session is kept; zero means
	// DefaultRetention and a negative value keeps sessions forever.
	Retention time.Duration
}

type entry struct {
	session  *core.Session
	finished time.Time
}

// InMemoryStore is a volatile session registry storing sessions in a
// process local map. It is safe for concurrent access. Each returned session
// is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*entry
	retention time.Duration
	now       func() time.Time
}

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{Retention: DefaultRetention}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Retention == 0 {
		opts.Retention = DefaultRetention
	}

	return &InMemoryStore{
		sessions:  make(map[string]*entry),
		retention: opts.Retention,
		now:       time.Now,
	}
}

// Create registers a live session. Registering an id twice is an error.
func (s *InMemoryStore) Create(sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()

	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("session %s already registered", sess.ID)
	}

	s.sessions[sess.ID] = &entry{session: sess}

	return nil
}

// Finish marks a session as finished; its retention period starts now.
func (s *InMemoryStore) Finish(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[sessionID]; ok && e.finished.IsZero() {
		e.finished = s.now()
	}
}

// Get returns a clone of the session or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return e.session.Clone(), nil
}

// Status returns the polling view of a session.
func (s *InMemoryStore) Status(sessionID string) (core.StatusSnapshot, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return core.StatusSnapshot{}, err
	}
	return e.session.Snapshot(), nil
}

// Len returns the number of retained sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *InMemoryStore) lookup(sessionID string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok || s.expiredLocked(e) {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}

	return e, nil
}

func (s *InMemoryStore) expiredLocked(e *entry) bool {
	if s.retention < 0 || e.finished.IsZero() {
		return false
	}
	return s.now().Sub(e.finished) > s.retention
}

// pruneLocked drops expired sessions; caller must hold the write lock.
func (s *InMemoryStore) pruneLocked() {
	for id, e := range s.sessions {
		if s.expiredLocked(e) {
			delete(s.sessions, id)
		}
	}
}
