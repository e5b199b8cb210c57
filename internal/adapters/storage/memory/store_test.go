package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/PabloGalante/advocate/internal/adapters/congress"
	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startSession(t *testing.T, store *SessionStore) domain.SessionID {
	t.Helper()
	directory := congress.NewMock()
	svc := advocacy.NewService(advocacy.Dependencies{
		Bills:    directory,
		Members:  directory,
		Sessions: store,
	}, advocacy.Options{})

	v, err := svc.StartSession(context.Background(), advocacy.StartSessionInput{
		CampaignID: "clean-water",
		Profile:    &domain.UserProfile{UserID: "u1"},
	})
	require.NoError(t, err)
	return v.SessionID
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(time.Hour)
	id := startSession(t, store)

	sess, err := store.GetSession(id)
	require.NoError(t, err)
	assert.ErrorIs(t, store.CreateSession(sess), domain.ErrConflict)
	assert.Equal(t, 0, store.Sweep())

	later := time.Now().Add(2 * time.Hour)
	store.now = func() time.Time { return later }

	_, err = store.GetSession(id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, store.CountSessions())
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.CountSessions())
}

func TestSessionStoreWithoutTTLKeepsSessions(t *testing.T) {
	store := NewSessionStore(0)
	id := startSession(t, store)
	store.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }

	_, err := store.GetSession(id)
	require.NoError(t, err)
	require.NoError(t, store.DeleteSession(id))
	_, err = store.GetSession(id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJanitorSweepsUntilCancelled(t *testing.T) {
	store := NewSessionStore(time.Minute)
	startSession(t, store)
	store.mu.Lock()
	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	store.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Janitor(ctx, 5*time.Millisecond, func(n int) { swept <- n })
	}()

	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never swept")
	}
	cancel()
	<-done
	assert.Equal(t, 0, store.CountSessions())
}

func TestActivityStore(t *testing.T) {
	ctx := context.Background()
	store := NewActivityStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	guestID, err := store.SaveActivity(ctx, &domain.MessageActivity{Sender: domain.SenderGuest, Body: "first", CreatedAt: base})
	require.NoError(t, err)
	require.NotEmpty(t, guestID)

	_, err = store.SaveActivity(ctx, &domain.MessageActivity{ID: guestID})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = store.SaveActivity(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.SaveActivity(ctx, &domain.MessageActivity{ID: "a2", UserID: "u1", Body: "second", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, store.LinkActivityToUser(ctx, guestID, "u1"))
	require.NoError(t, store.LinkActivityToUser(ctx, guestID, "u1"))
	assert.ErrorIs(t, store.LinkActivityToUser(ctx, guestID, "u2"), domain.ErrConflict)
	assert.ErrorIs(t, store.LinkActivityToUser(ctx, "missing", "u1"), domain.ErrNotFound)

	acts, err := store.ListActivitiesByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "second", acts[0].Body)
	assert.Equal(t, "first", acts[1].Body)

	acts, err = store.ListActivitiesByUser(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, acts, 1)

	// Callers get copies.
	acts[0].Body = "edited"
	a, ok := store.Get("a2")
	require.True(t, ok)
	assert.Equal(t, "second", a.Body)
	assert.Equal(t, 2, store.Len())
}

func TestAccountStore(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()
	store.hashCost = bcrypt.MinCost

	acct, err := store.CreateAccount(ctx, " Sam@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", acct.Profile.Email)
	require.NotEmpty(t, acct.Token)

	stored := store.byEmail["sam@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, []byte("correct horse"), stored.hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.hash, []byte("correct horse")))

	_, err = store.CreateAccount(ctx, "SAM@example.com", "another one")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = store.CreateAccount(ctx, "", "whatever1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := store.Authenticate(ctx, acct.Token)
	require.NoError(t, err)
	assert.Equal(t, acct.Profile.UserID, p.UserID)
	_, err = store.Authenticate(ctx, "bogus")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, store.UpdateProfile(ctx, domain.UserProfile{UserID: p.UserID, FullName: "Sam Lee", Email: "ignored@x.io"}))
	p, err = store.Authenticate(ctx, acct.Token)
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", p.FullName)
	assert.Equal(t, "sam@example.com", p.Email)

	assert.ErrorIs(t, store.UpdateProfile(ctx, domain.UserProfile{UserID: "nobody"}), domain.ErrNotFound)
}
