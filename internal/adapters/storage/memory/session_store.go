package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/domain"
)

// SessionStore keeps wizard sessions in memory. Sessions idle for longer
// than ttl are treated as gone and removed by Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*advocacy.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID]*advocacy.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) CreateSession(session *advocacy.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("%w: session %s already exists", domain.ErrConflict, session.ID)
	}

	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) GetSession(id domain.SessionID) (*advocacy.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || s.expired(sess) {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

func (s *SessionStore) DeleteSession(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) CountSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Janitor runs Sweep every interval until ctx is done.
func (s *SessionStore) Janitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := s.Sweep()
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

// A session with a send in flight never expires.
func (s *SessionStore) expired(sess *advocacy.Session) bool {
	if s.ttl <= 0 || sess.Sending() {
		return false
	}
	return s.now().Sub(sess.UpdatedAt()) > s.ttl
}
