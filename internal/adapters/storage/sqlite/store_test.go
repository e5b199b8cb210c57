package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/advocate/internal/domain"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "advocate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func activity(id string, userID domain.UserID, at time.Time) *domain.MessageActivity {
	return &domain.MessageActivity{
		ID:        domain.ActivityID(id),
		SessionID: "sess-" + domain.SessionID(id),
		Sender:    domain.SenderGuest,
		UserID:    userID,
		Stance:    domain.StanceSupport,
		Body:      "Please support this bill.",
		Recipients: []domain.Recipient{{
			ID:      "S000148",
			Name:    "Charles Schumer",
			Party:   "D",
			Chamber: domain.ChamberSenate,
			Role:    "Senator",
			State:   "NY",
			Email:   "charles.schumer@senate.gov",
		}},
		DisclosedFields: map[domain.FieldKey]string{domain.FieldFullName: "A constituent"},
		Bill:            &domain.BillRef{Congress: 118, Type: "hr", Number: "8"},
		MediaURLs:       []string{},
		DeliveryChannel: domain.DeliveryEmail,
		DeliveryStatus:  domain.DeliverySent,
		CreatedAt:       at,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestSaveAndListActivities(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	first := activity("a1", "u1", base)
	second := activity("a2", "u1", base.Add(time.Hour))
	other := activity("a3", "u2", base)

	for _, a := range []*domain.MessageActivity{first, second, other} {
		id, err := store.SaveActivity(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, a.ID, id)
	}

	got, err := store.ListActivitiesByUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	if diff := cmp.Diff(second, got[0]); diff != "" {
		t.Fatalf("newest activity mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, first.ID, got[1].ID)

	limited, err := store.ListActivitiesByUser(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSaveActivityRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	a := activity("dup", "", time.Now().UTC())
	_, err := store.SaveActivity(ctx, a)
	require.NoError(t, err)

	_, err = store.SaveActivity(ctx, a)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestUniqueViolationUsesDriverCode(t *testing.T) {
	store := openTempStore(t)
	_, err := store.SaveActivity(context.Background(), activity("x", "", time.Now().UTC()))
	require.NoError(t, err)

	_, err = store.sqlDB.Exec(`
		INSERT INTO message_activities (
			id, session_id, sender, stance, body, recipients, disclosed_fields,
			media_urls, delivery_channel, delivery_status, created_at
		) VALUES ('x', 's', 'guest', 'support', 'b', '[]', '{}', '[]', 'email', 'sent', '')`)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	assert.False(t, isUniqueViolation(errors.New("UNIQUE constraint failed: message_activities.id")))
	assert.False(t, isUniqueViolation(nil))
}

func TestLinkActivityToUser(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	a := activity("guest", "", time.Now().UTC())
	a.Bill = nil
	_, err := store.SaveActivity(ctx, a)
	require.NoError(t, err)

	require.NoError(t, store.LinkActivityToUser(ctx, "guest", "u9"))
	require.NoError(t, store.LinkActivityToUser(ctx, "guest", "u9"))
	require.ErrorIs(t, store.LinkActivityToUser(ctx, "guest", "u10"), domain.ErrConflict)
	require.ErrorIs(t, store.LinkActivityToUser(ctx, "missing", "u9"), domain.ErrNotFound)

	got, err := store.ListActivitiesByUser(ctx, "u9", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Bill)
	assert.Equal(t, domain.UserID("u9"), got[0].UserID)
}
