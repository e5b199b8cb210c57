package history

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

// Service holds the logic of reading a user's sent messages
type Service struct {
	store   domain.ActivityStore
	metrics *observability.Metrics
}

// NewService creates a history service from an ActivityStore
func NewService(store domain.ActivityStore, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		metrics: metrics,
	}
}

// ListUserActivities returns the last `limit` messages sent by or linked to
// a user, newest first. If limit <= 0, a reasonable default value is used.
func (s *Service) ListUserActivities(
	ctx context.Context,
	userID domain.UserID,
	limit int,
) ([]*domain.MessageActivity, error) {

	if s.store == nil {
		return []*domain.MessageActivity{}, nil
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	start := time.Now()
	out, err := s.store.ListActivitiesByUser(ctx, userID, limit)
	s.metrics.ObserveCall("activity_store", start, err)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list activities",
			zap.String("user_id", string(userID)),
			zap.Error(err),
		)
		return nil, err
	}
	return out, nil
}
