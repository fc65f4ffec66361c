// Package session keeps chat sessions in process memory. Sessions are
// transient conversation state; losing them on restart is acceptable, so
// no persistence layer sits behind this store.
package session

import (
	"sync"
	"time"

	"github.com/innovorex/campuskb/internal/domain"
)

// Store holds chat sessions keyed by ID, evicting those idle past the TTL.
// Sessions never escape the store; readers get copies of the history so
// concurrent turns on the same session cannot race.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*domain.ChatSession
	ttl      time.Duration
	now      func() time.Time
}

// New creates a session store with the given idle TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*domain.ChatSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// History returns a copy of the last n messages of the session, or nil if
// the session is absent or expired. An expired session is removed on access.
func (s *Store) History(id string, n int) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.now().Sub(sess.LastActive) > s.ttl {
		delete(s.sessions, id)
		return nil
	}

	window := sess.LastTurns(n)
	out := make([]domain.ChatMessage, len(window))
	copy(out, window)
	return out
}

// Append records a turn on the session, creating it if absent, and
// refreshes its activity time.
func (s *Store) Append(id string, msgs ...domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &domain.ChatSession{ID: id}
		s.sessions[id] = sess
	}
	sess.Messages = append(sess.Messages, msgs...)
	sess.LastActive = s.now()
}

// ActiveCount returns the number of live sessions, sweeping expired ones.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActive) > s.ttl {
			delete(s.sessions, id)
		}
	}
	return len(s.sessions)
}
