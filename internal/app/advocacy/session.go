package advocacy

import (
	"errors"
	"sync"
	"time"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
)

// ErrBusy is returned while a previous network call of the same session is
// still running; the client is expected to keep its button disabled.
var ErrBusy = errors.New("session is busy")

// Session is one in-memory wizard session. It is never persisted; only the
// MessageActivity written at send time is.
type Session struct {
	ID        domain.SessionID
	CreatedAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
	loading   bool
	ctrl      *wizard.Controller
	send      *wizard.SendTask

	bill        *domain.Bill
	suggestions []domain.Recipient
}

func newSession(id domain.SessionID, ctrl *wizard.Controller, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		updatedAt: now,
		ctrl:      ctrl,
		send:      wizard.NewSendTask(),
	}
}

// UpdatedAt is the time of the last change, used for expiry.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Sending reports whether a send write is in flight.
func (s *Session) Sending() bool {
	return s.send.Sending()
}

// SendDone is closed once the current send settles; nil before any send.
func (s *Session) SendDone() <-chan struct{} {
	return s.send.Done()
}

// SessionStore keeps wizard sessions between requests.
type SessionStore interface {
	CreateSession(s *Session) error
	GetSession(id domain.SessionID) (*Session, error)
	DeleteSession(id domain.SessionID) error
	CountSessions() int
}
