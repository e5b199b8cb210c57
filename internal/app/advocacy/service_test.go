package advocacy_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/advocate/internal/adapters/congress"
	"github.com/PabloGalante/advocate/internal/adapters/llm"
	"github.com/PabloGalante/advocate/internal/adapters/storage/memory"
	"github.com/PabloGalante/advocate/internal/adapters/verification"
	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// flakyStore fails SaveActivity while fail is set and counts writes.
type flakyStore struct {
	*memory.ActivityStore
	fail   atomic.Bool
	writes atomic.Int32
}

func (f *flakyStore) SaveActivity(ctx context.Context, a *domain.MessageActivity) (domain.ActivityID, error) {
	f.writes.Add(1)
	if f.fail.Load() {
		return "", errors.New("datastore unavailable")
	}
	return f.ActivityStore.SaveActivity(ctx, a)
}

// noSuggestions fails state lookups only.
type noSuggestions struct {
	*congress.Mock
}

func (noSuggestions) MembersByState(context.Context, string) ([]*domain.Member, error) {
	return nil, errors.New("directory down")
}

type fixture struct {
	svc      *advocacy.Service
	store    *flakyStore
	accounts *memory.AccountStore
	members  domain.MemberDirectory
	gen      domain.MessageGenerator
}

func newFixture(t *testing.T, opts ...func(*fixture)) *fixture {
	t.Helper()

	directory := congress.NewMock()
	f := &fixture{
		store:    &flakyStore{ActivityStore: memory.NewActivityStore()},
		accounts: memory.NewAccountStore(),
		members:  directory,
		gen:      llm.NewMockGenerator(),
	}
	for _, o := range opts {
		o(f)
	}

	f.svc = advocacy.NewService(advocacy.Dependencies{
		Bills:      directory,
		Members:    f.members,
		Verifier:   verification.NewMock(),
		Generator:  f.gen,
		Activities: f.store,
		Accounts:   f.accounts,
		Sessions:   memory.NewSessionStore(time.Hour),
	}, advocacy.Options{
		Disclosure:     wizard.DisclosurePolicy{DefaultOn: true},
		AnimationDelay: 2500 * time.Millisecond,
	})
	return f
}

var hr8 = domain.BillRef{Congress: 118, Type: "hr", Number: "8"}

func await(t *testing.T, svc *advocacy.Service, id domain.SessionID) *advocacy.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := svc.AwaitSend(ctx, id)
	require.NoError(t, err)
	return v
}

// toReview drives a guest bill session from Verify to Review.
func toReview(t *testing.T, svc *advocacy.Service, id domain.SessionID, stance domain.Stance, body string) {
	t.Helper()
	ctx := context.Background()

	v, err := svc.SubmitIdentity(ctx, id, wizard.IdentityQuery{FirstName: "Jane", LastName: "Doe", Address: "12 Elm St, Austin, TX 78701"})
	require.NoError(t, err)
	require.Equal(t, wizard.VerificationSelection, v.Verification.State)

	_, err = svc.SelectCandidate(ctx, id, 0)
	require.NoError(t, err)
	_, err = svc.SetPosition(ctx, id, stance)
	require.NoError(t, err)
	_, err = svc.Continue(ctx, id)
	require.NoError(t, err)
	_, err = svc.Skip(ctx, id)
	require.NoError(t, err)
	_, err = svc.SetBody(ctx, id, body)
	require.NoError(t, err)

	for _, want := range []wizard.Step{wizard.StepMedia, wizard.StepSelectRecipients, wizard.StepPersonalInfo, wizard.StepReview} {
		v, err = svc.Continue(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want.String(), v.Step)
	}
}

func TestGuestOpposesBillWithPreselectedRepresentative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, Preselect: []string{"P000197"}})
	require.NoError(t, err)
	require.Equal(t, "verify", v.Step)

	toReview(t, f.svc, v.SessionID, domain.StanceOppose, "Please oppose H.R. 8.")

	v, err = f.svc.Continue(ctx, v.SessionID)
	require.NoError(t, err)
	require.Equal(t, "delivery_channel", v.Step)

	v, err = f.svc.Send(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "sending", v.Step)
	assert.Equal(t, int64(2500), v.AnimationDelayMS)
	assert.Nil(t, v.Display)

	v = await(t, f.svc, v.SessionID)
	assert.Equal(t, "account_prompt", v.Step)
	require.NotEmpty(t, v.ActivityID)

	a, ok := f.store.Get(v.ActivityID)
	require.True(t, ok)
	assert.True(t, a.IsGuestUser())
	assert.Equal(t, domain.StanceOppose, a.Stance)
	assert.Equal(t, "Please oppose H.R. 8.", a.Body)
	require.Len(t, a.Recipients, 1)
	assert.Equal(t, domain.RecipientID("P000197"), a.Recipients[0].ID)
	assert.Equal(t, domain.DeliverySent, a.DeliveryStatus)
	assert.Equal(t, &hr8, a.Bill)
	assert.Empty(t, a.UserID)
}

func TestAuthenticatedSendGoesToConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	profile := &domain.UserProfile{UserID: "u1", Email: "sam@example.com", FullName: "Sam Lee", ZipCode: "78701"}
	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{MemberID: "C001098", Profile: profile})
	require.NoError(t, err)
	assert.Equal(t, "position", v.Step)
	require.NotNil(t, v.Display)
	assert.Equal(t, 1, v.Display.Number)
	id := v.SessionID

	_, err = f.svc.SetPosition(ctx, id, domain.StanceSupport)
	require.NoError(t, err)
	v, err = f.svc.Continue(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "compose", v.Step)

	_, err = f.svc.SetBody(ctx, id, "Thank you for your work.")
	require.NoError(t, err)
	for _, want := range []string{"media", "personal_info", "review"} {
		v, err = f.svc.Continue(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, v.Step)
	}

	_, err = f.svc.Send(ctx, id)
	require.NoError(t, err)
	v = await(t, f.svc, id)
	assert.Equal(t, "confirmation", v.Step)
	assert.Equal(t, "/advocacy/confirmation?recipients=1", v.ConfirmationRoute)

	acts, err := f.store.ListActivitiesByUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, domain.SenderAuthenticated, acts[0].Sender)
	assert.Equal(t, "Sam Lee", acts[0].DisclosedFields[domain.FieldFullName])
}

func TestConcurrentSendsWriteOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, Preselect: []string{"P000197", "P000145"}})
	require.NoError(t, err)
	id := v.SessionID
	toReview(t, f.svc, id, domain.StanceSupport, "Please support H.R. 8.")
	_, err = f.svc.Continue(ctx, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Send(ctx, id)
		}()
	}
	wg.Wait()

	v = await(t, f.svc, id)
	assert.Equal(t, "account_prompt", v.Step)
	assert.Equal(t, int32(1), f.store.writes.Load())

	a, ok := f.store.Get(v.ActivityID)
	require.True(t, ok)
	ids := []domain.RecipientID{a.Recipients[0].ID, a.Recipients[1].ID}
	assert.Equal(t, []domain.RecipientID{"P000197", "P000145"}, ids)
}

func TestFailedSendOffersBackToReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.fail.Store(true)

	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, Preselect: []string{"P000197"}})
	require.NoError(t, err)
	id := v.SessionID
	toReview(t, f.svc, id, domain.StanceSupport, "Please support H.R. 8.")
	_, err = f.svc.Continue(ctx, id)
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, id)
	require.NoError(t, err)
	v = await(t, f.svc, id)
	assert.Equal(t, "send_failed", v.Step)
	assert.False(t, v.Sent)
	assert.NotEmpty(t, v.SendError)
	assert.True(t, v.CanGoBack)

	v, err = f.svc.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "review", v.Step)

	f.store.fail.Store(false)
	_, err = f.svc.Continue(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, id)
	require.NoError(t, err)
	v = await(t, f.svc, id)
	assert.Equal(t, "account_prompt", v.Step)
	assert.Equal(t, int32(2), f.store.writes.Load())
}

func TestAddedRecipientsReachTheActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{CampaignID: "clean-water", Preselect: []string{"P000197"}})
	require.NoError(t, err)
	id := v.SessionID
	toReview(t, f.svc, id, domain.StanceSupport, "Protect clean water.")

	// Recipients may still change from review by going back.
	_, err = f.svc.Back(ctx, id)
	require.NoError(t, err)
	v, err = f.svc.Back(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "select_recipients", v.Step)

	_, err = f.svc.AddRecipient(ctx, id, "s001150")
	require.NoError(t, err)
	_, err = f.svc.AddRecipient(ctx, id, "P000197")
	require.NoError(t, err)
	_, err = f.svc.AddRecipient(ctx, id, "NOPE")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.RemoveRecipient(ctx, id, "P000197")
	require.NoError(t, err)
	_, err = f.svc.AddRecipient(ctx, id, "C001098")
	require.NoError(t, err)

	page, err := f.svc.Review(ctx, id, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Recipients, 1)
	assert.Equal(t, domain.RecipientID("S001150"), page.Recipients[0].ID)

	for i := 0; i < 3; i++ {
		_, err = f.svc.Continue(ctx, id)
		require.NoError(t, err)
	}
	_, err = f.svc.Send(ctx, id)
	require.NoError(t, err)
	v = await(t, f.svc, id)

	a, ok := f.store.Get(v.ActivityID)
	require.True(t, ok)
	require.Len(t, a.Recipients, 2)
	assert.Equal(t, domain.RecipientID("S001150"), a.Recipients[0].ID)
	assert.Equal(t, domain.RecipientID("C001098"), a.Recipients[1].ID)
	assert.Equal(t, "clean-water", a.CampaignID)
	assert.Nil(t, a.Bill)
}

func TestCreateAccountLinksMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, Preselect: []string{"P000197"}})
	require.NoError(t, err)
	id := v.SessionID

	_, err = f.svc.CreateAccount(ctx, id, advocacy.CreateAccountInput{Email: "a@b.co", Password: "long enough"})
	require.ErrorIs(t, err, wizard.ErrIllegalTransition)

	toReview(t, f.svc, id, domain.StanceOppose, "No.")
	_, err = f.svc.Continue(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, id)
	require.NoError(t, err)
	sent := await(t, f.svc, id)

	_, err = f.svc.CreateAccount(ctx, id, advocacy.CreateAccountInput{Email: "a@b.co", Password: "short"})
	require.ErrorIs(t, err, domain.ErrValidation)

	out, err := f.svc.CreateAccount(ctx, id, advocacy.CreateAccountInput{Email: "A@B.co", Password: "long enough"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "confirmation", out.View.Step)

	p, err := f.accounts.Authenticate(ctx, out.Token)
	require.NoError(t, err)
	acts, err := f.store.ListActivitiesByUser(ctx, p.UserID, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, sent.ActivityID, acts[0].ID)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("bill flow drafts and moves to compose", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{
			Bill:    &hr8,
			Profile: &domain.UserProfile{UserID: "u1", Profession: "Nurse"},
		})
		require.NoError(t, err)
		id := v.SessionID

		_, err = f.svc.Generate(ctx, id, advocacy.GenerateInput{})
		require.ErrorIs(t, err, wizard.ErrIllegalTransition, "AI help is not offered on position")

		_, err = f.svc.SetPosition(ctx, id, domain.StanceSupport)
		require.NoError(t, err)
		_, err = f.svc.Continue(ctx, id)
		require.NoError(t, err)

		v, err = f.svc.Generate(ctx, id, advocacy.GenerateInput{Tone: "urgent"})
		require.NoError(t, err)
		assert.Equal(t, "compose", v.Step)
		assert.Contains(t, v.Body, "support Bipartisan Background Checks Act of 2023")
	})

	t.Run("failure surfaces and keeps the step", func(t *testing.T) {
		f := newFixture(t, func(f *fixture) {
			f.gen = &llm.MockGenerator{Err: errors.New("quota")}
		})
		v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, Profile: &domain.UserProfile{UserID: "u1"}})
		require.NoError(t, err)
		_, err = f.svc.SetPosition(ctx, v.SessionID, domain.StanceOppose)
		require.NoError(t, err)
		_, err = f.svc.Continue(ctx, v.SessionID)
		require.NoError(t, err)

		_, err = f.svc.Generate(ctx, v.SessionID, advocacy.GenerateInput{})
		require.ErrorIs(t, err, domain.ErrUnavailable)

		v, err = f.svc.GetSession(ctx, v.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "ai_help_offer", v.Step)
	})

	t.Run("not offered without a generator", func(t *testing.T) {
		f := newFixture(t, func(f *fixture) { f.gen = nil })
		v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8})
		require.NoError(t, err)
		_, err = f.svc.Generate(ctx, v.SessionID, advocacy.GenerateInput{})
		require.ErrorIs(t, err, advocacy.ErrGenerationUnavailable)
	})

	t.Run("member contact has no AI help", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{MemberID: "C001098", Profile: &domain.UserProfile{UserID: "u1"}})
		require.NoError(t, err)
		_, err = f.svc.SetPosition(ctx, v.SessionID, domain.StanceOppose)
		require.NoError(t, err)
		_, err = f.svc.Continue(ctx, v.SessionID)
		require.NoError(t, err)
		_, err = f.svc.Generate(ctx, v.SessionID, advocacy.GenerateInput{})
		require.ErrorIs(t, err, wizard.ErrIllegalTransition)
	})
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()

	t.Run("suggestions degrade silently", func(t *testing.T) {
		f := newFixture(t, func(f *fixture) {
			f.members = noSuggestions{Mock: congress.NewMock()}
		})
		v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, ZipCode: "94110"})
		require.NoError(t, err)
		assert.Empty(t, v.Suggestions)
	})

	t.Run("suggestions follow the zip code", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, ZipCode: "10001"})
		require.NoError(t, err)
		require.NotEmpty(t, v.Suggestions)
		for _, r := range v.Suggestions {
			assert.Equal(t, "NY", r.State)
		}
	})

	t.Run("unknown bill", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &domain.BillRef{Congress: 1, Type: "hr", Number: "1"}})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("nothing to write about", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Continue(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestVerificationWithoutCandidatesGoesManual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8})
	require.NoError(t, err)
	id := v.SessionID

	v, err = f.svc.SubmitIdentity(ctx, id, wizard.IdentityQuery{FirstName: "Ana", LastName: "Ruiz", Address: "somewhere"})
	require.NoError(t, err)
	require.Equal(t, wizard.VerificationManual, v.Verification.State)
	assert.Equal(t, "Ana Ruiz", v.Verification.Manual.FullName)

	_, err = f.svc.SubmitManual(ctx, id, domain.VerificationRecord{FullName: "Ana Ruiz", Address: "1 Main St", City: "Austin", State: "tx", ZipCode: "787"})
	require.ErrorIs(t, err, domain.ErrValidation)

	v, err = f.svc.SubmitManual(ctx, id, domain.VerificationRecord{FullName: "Ana Ruiz", Address: "1 Main St", City: "Austin", State: "tx", ZipCode: "78701"})
	require.NoError(t, err)
	assert.Equal(t, "position", v.Step)
	assert.Equal(t, domain.AuthVerified, v.AuthState)
	require.NotNil(t, v.Record)
	assert.Equal(t, "TX", v.Record.State)

	_, err = f.svc.NotMe(ctx, id)
	require.ErrorIs(t, err, wizard.ErrIllegalTransition)
}

func TestSignInMidFlowSkipsVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8})
	require.NoError(t, err)
	require.Equal(t, "verify", v.Step)

	v, err = f.svc.Authenticate(ctx, v.SessionID, &domain.UserProfile{UserID: "u7", FullName: "Kim Park"})
	require.NoError(t, err)
	assert.Equal(t, "position", v.Step)
	assert.Equal(t, domain.AuthAuthenticated, v.AuthState)
	assert.False(t, v.CanGoBack)

	v, err = f.svc.Authenticate(ctx, v.SessionID, &domain.UserProfile{UserID: "u7"})
	require.NoError(t, err)
	assert.Equal(t, "position", v.Step)
}

// gatedGenerator holds Generate until release is closed.
type gatedGenerator struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedGenerator) Generate(ctx context.Context, _ domain.GenerationRequest) (string, error) {
	close(g.entered)
	select {
	case <-g.release:
		return "Drafted.", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestAuthenticatedSessionStaysReadableWhileLoading(t *testing.T) {
	ctx := context.Background()
	gen := &gatedGenerator{entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, func(f *fixture) { f.gen = gen })

	profile := &domain.UserProfile{UserID: "u1", FullName: "Sam Lee"}
	v, err := f.svc.StartSession(ctx, advocacy.StartSessionInput{Bill: &hr8, Profile: profile})
	require.NoError(t, err)
	id := v.SessionID
	_, err = f.svc.SetPosition(ctx, id, domain.StanceSupport)
	require.NoError(t, err)
	_, err = f.svc.Continue(ctx, id)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Generate(ctx, id, advocacy.GenerateInput{})
		done <- err
	}()
	<-gen.entered

	v, err = f.svc.Authenticate(ctx, id, profile)
	require.NoError(t, err)
	assert.True(t, v.Loading)
	assert.Equal(t, "ai_help_offer", v.Step)

	_, err = f.svc.SetBody(ctx, id, "mine")
	assert.ErrorIs(t, err, advocacy.ErrBusy)

	close(gen.release)
	require.NoError(t, <-done)

	v, err = f.svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.False(t, v.Loading)
	assert.Equal(t, "Drafted.", v.Body)
}
