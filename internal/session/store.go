// Package session provides the in-memory conversation session store.
package session

import (
	"sync"
	"time"

	"github.com/Vector-IT-Drew/Dash/internal/model"

	"github.com/oklog/ulid/v2"
)

// Store holds conversation sessions keyed by ID. Sessions are independent;
// each turn handler owns its session for the duration of a request, so the
// store only guards the map itself. Saves are last-write-wins.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	session  *model.ConversationSession
	lastSeen time.Time
}

// NewStore creates a session store. Sessions idle longer than ttl are
// removed by a background sweep.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Create registers a new session with a fresh ULID and returns it.
func (s *Store) Create(snapshot []model.ListingRecord) *model.ConversationSession {
	now := time.Now().UTC()
	sess := &model.ConversationSession{
		ID:          ulid.Make().String(),
		Messages:    []model.ChatMessage{},
		Preferences: model.NewPreferenceStore(),
		Snapshot:    snapshot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{session: sess, lastSeen: now}
	s.mu.Unlock()

	return sess
}

// Get returns the session with the given ID, or nil if unknown or expired.
func (s *Store) Get(id string) *model.ConversationSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.ttl > 0 && time.Since(e.lastSeen) > s.ttl {
		return nil
	}
	return e.session
}

// Save stores the session state, replacing whatever was there before.
func (s *Store) Save(sess *model.ConversationSession) {
	sess.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{session: sess, lastSeen: sess.UpdatedAt}
	s.mu.Unlock()
}

// Delete removes a session entirely.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background sweep.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweep() {
	if s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(s.ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.ttl)
			s.mu.Lock()
			for id, e := range s.sessions {
				if e.lastSeen.Before(cutoff) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
