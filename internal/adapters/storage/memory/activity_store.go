package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/advocate/internal/domain"
)

// ActivityStore is a simple in-memory implementation of domain.ActivityStore.
// It is NOT persistent and is only suitable for development / local mode.
type ActivityStore struct {
	mu       sync.RWMutex
	entries  map[domain.ActivityID]*domain.MessageActivity
	byUserID map[domain.UserID][]domain.ActivityID
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		entries:  make(map[domain.ActivityID]*domain.MessageActivity),
		byUserID: make(map[domain.UserID][]domain.ActivityID),
	}
}

// SaveActivity stores a copy of a. An empty ID gets a generated one.
func (s *ActivityStore) SaveActivity(_ context.Context, a *domain.MessageActivity) (domain.ActivityID, error) {
	if a == nil {
		return "", fmt.Errorf("%w: nil activity", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	if cp.ID == "" {
		cp.ID = domain.ActivityID(uuid.NewString())
	}
	if _, exists := s.entries[cp.ID]; exists {
		return "", fmt.Errorf("%w: activity %s already exists", domain.ErrConflict, cp.ID)
	}

	s.entries[cp.ID] = &cp
	if cp.UserID != "" {
		s.byUserID[cp.UserID] = append(s.byUserID[cp.UserID], cp.ID)
	}
	return cp.ID, nil
}

func (s *ActivityStore) LinkActivityToUser(_ context.Context, id domain.ActivityID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("activity %s: %w", id, domain.ErrNotFound)
	}
	if a.UserID == userID {
		return nil
	}
	if a.UserID != "" {
		return fmt.Errorf("%w: activity %s belongs to another user", domain.ErrConflict, id)
	}

	a.UserID = userID
	s.byUserID[userID] = append(s.byUserID[userID], id)
	return nil
}

// ListActivitiesByUser returns the last `limit` activities of a user, newest
// first. If limit <= 0, returns all.
func (s *ActivityStore) ListActivitiesByUser(
	_ context.Context,
	userID domain.UserID,
	limit int,
) ([]*domain.MessageActivity, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUserID[userID]
	out := make([]*domain.MessageActivity, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.entries[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a stored activity by id.
func (s *ActivityStore) Get(id domain.ActivityID) (*domain.MessageActivity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

// Len is the number of stored activities.
func (s *ActivityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
