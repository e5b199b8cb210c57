package history_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/advocate/internal/adapters/storage/memory"
	"github.com/PabloGalante/advocate/internal/app/history"
	"github.com/PabloGalante/advocate/internal/domain"
)

type brokenStore struct {
	*memory.ActivityStore
}

func (brokenStore) ListActivitiesByUser(context.Context, domain.UserID, int) ([]*domain.MessageActivity, error) {
	return nil, errors.New("boom")
}

func TestListUserActivities(t *testing.T) {
	ctx := context.Background()
	store := memory.NewActivityStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		_, err := store.SaveActivity(ctx, &domain.MessageActivity{
			ID:        domain.ActivityID(fmt.Sprintf("a%02d", i)),
			UserID:    "u1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	svc := history.NewService(store, nil)

	out, err := svc.ListUserActivities(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, out, 20)
	assert.Equal(t, domain.ActivityID("a29"), out[0].ID)

	out, err = svc.ListUserActivities(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Len(t, out, 5)

	out, err = svc.ListUserActivities(ctx, "someone-else", 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListUserActivitiesErrors(t *testing.T) {
	svc := history.NewService(brokenStore{}, nil)
	_, err := svc.ListUserActivities(context.Background(), "u1", 5)
	assert.Error(t, err)

	out, err := history.NewService(nil, nil).ListUserActivities(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}
