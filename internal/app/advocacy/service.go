// Package advocacy hosts wizard sessions and connects them to the bill,
// member, verification, generation, persistence and account collaborators.
package advocacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

// Dependencies are the collaborators of the service. Generator may be nil,
// in which case AI help reports itself unavailable.
type Dependencies struct {
	Bills      domain.BillLookup
	Members    domain.MemberDirectory
	Verifier   domain.Verifier
	Generator  domain.MessageGenerator
	Activities domain.ActivityStore
	Accounts   domain.AccountProvider
	Sessions   SessionStore
	Metrics    *observability.Metrics
}

type Options struct {
	Disclosure     wizard.DisclosurePolicy
	AnimationDelay time.Duration
}

type Service struct {
	deps Dependencies
	opts Options
	now  func() time.Time
}

func NewService(deps Dependencies, opts Options) *Service {
	return &Service{
		deps: deps,
		opts: opts,
		now:  time.Now,
	}
}

// ─────────────────────────────────────────
// Session lifecycle
// ─────────────────────────────────────────

type StartSessionInput struct {
	Bill       *domain.BillRef
	CampaignID string
	MemberID   string
	ZipCode    string
	Preselect  []string
	Profile    *domain.UserProfile
}

// FlowKind is member contact when a member is given without a bill.
func (in StartSessionInput) FlowKind() domain.FlowKind {
	if in.MemberID != "" && (in.Bill == nil || in.Bill.IsZero()) {
		return domain.FlowMemberContact
	}
	return domain.FlowBillOrCampaign
}

func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*View, error) {
	flow := in.FlowKind()
	log := observability.LoggerFromContext(ctx).With(
		zap.String("flow", string(flow)),
		zap.Bool("authenticated", in.Profile != nil),
	)
	log.Info("starting wizard session")

	if flow == domain.FlowBillOrCampaign && (in.Bill == nil || in.Bill.IsZero()) && in.CampaignID == "" {
		return nil, fmt.Errorf("%w: a bill, campaign or member is required", domain.ErrValidation)
	}

	zip := strings.TrimSpace(in.ZipCode)
	if zip == "" && in.Profile != nil {
		zip = in.Profile.ZipCode
	}

	var (
		bill        *domain.Bill
		fixed       *domain.Recipient
		preselected = make([]domain.Recipient, len(in.Preselect))
		suggestions []domain.Recipient
	)

	g, gctx := errgroup.WithContext(ctx)

	if in.Bill != nil && !in.Bill.IsZero() {
		ref := *in.Bill
		g.Go(func() error {
			b, err := s.getBill(gctx, ref)
			if err != nil {
				return err
			}
			bill = b
			return nil
		})
	}

	if flow == domain.FlowMemberContact {
		g.Go(func() error {
			r, err := s.recipient(gctx, in.MemberID)
			if err != nil {
				return err
			}
			fixed = &r
			return nil
		})
	} else {
		for i, id := range in.Preselect {
			g.Go(func() error {
				r, err := s.recipient(gctx, id)
				if err != nil {
					return err
				}
				preselected[i] = r
				return nil
			})
		}
	}

	if state, ok := domain.StateForZip(zip); ok {
		g.Go(func() error {
			// Suggestions are cosmetic; a failure only empties the list.
			rs, err := s.membersByState(gctx, state)
			if err != nil {
				log.Warn("member suggestions unavailable", zap.String("state", state), zap.Error(err))
				return nil
			}
			suggestions = rs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("failed to load session data", zap.Error(err))
		return nil, err
	}

	auth := domain.AuthAnonymous
	if in.Profile != nil {
		auth = domain.AuthAuthenticated
	}

	var billRef *domain.BillRef
	if bill != nil {
		ref := bill.Ref
		billRef = &ref
	}

	ctrl, err := wizard.New(wizard.Options{
		Flow:           flow,
		Auth:           auth,
		Profile:        in.Profile,
		ZipCode:        zip,
		Bill:           billRef,
		CampaignID:     in.CampaignID,
		FixedRecipient: fixed,
		Preselected:    preselected,
		Disclosure:     s.opts.Disclosure,
		Observer:       s.observeTransition,
	})
	if err != nil {
		return nil, err
	}

	sess := newSession(domain.SessionID(uuid.NewString()), ctrl, s.now())
	sess.bill = bill
	sess.suggestions = suggestions

	if err := s.deps.Sessions.CreateSession(sess); err != nil {
		log.Error("failed to store session", zap.Error(err))
		return nil, err
	}
	s.gaugeSessions()

	log.Info("wizard session started",
		zap.String("session_id", string(sess.ID)),
		zap.String("step", ctrl.Step().String()),
		zap.Int("recipients", len(ctrl.Recipients())),
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(s.opts.AnimationDelay), nil
}

func (s *Service) GetSession(ctx context.Context, id domain.SessionID) (*View, error) {
	var v *View
	err := s.with(ctx, id, func(sess *Session) error {
		v = sess.view(s.opts.AnimationDelay)
		return nil
	})
	return v, err
}

// Review returns one page of the review screen.
func (s *Service) Review(ctx context.Context, id domain.SessionID, page, size int) (*ReviewPage, error) {
	var out *ReviewPage
	err := s.with(ctx, id, func(sess *Session) error {
		if page < 1 {
			page = 1
		}
		rs, pages := sess.ctrl.ReviewPage(page, size)
		out = &ReviewPage{
			View:       sess.view(s.opts.AnimationDelay),
			Page:       page,
			Pages:      pages,
			Recipients: rs,
		}
		return nil
	})
	return out, err
}

// Authenticate attaches a signed-in profile to a running session. It is a
// no-op once the session is authenticated, even while a call is in flight.
func (s *Service) Authenticate(ctx context.Context, id domain.SessionID, p *domain.UserProfile) (*View, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: profile is required", domain.ErrUnauthorized)
	}

	var v *View
	err := s.with(ctx, id, func(sess *Session) error {
		if sess.ctrl.Auth() == domain.AuthAuthenticated {
			v = sess.view(s.opts.AnimationDelay)
		}
		return nil
	})
	if err != nil || v != nil {
		return v, err
	}

	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		if c.Auth() == domain.AuthAuthenticated {
			return nil
		}
		return c.Authenticate(p)
	})
}

// ─────────────────────────────────────────
// Navigation
// ─────────────────────────────────────────

func (s *Service) Continue(ctx context.Context, id domain.SessionID) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.Fire(wizard.EventContinue)
	})
}

func (s *Service) Skip(ctx context.Context, id domain.SessionID) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.Fire(wizard.EventSkip)
	})
}

func (s *Service) Back(ctx context.Context, id domain.SessionID) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.Back()
	})
}

// ─────────────────────────────────────────
// Editing
// ─────────────────────────────────────────

func (s *Service) SetPosition(ctx context.Context, id domain.SessionID, stance domain.Stance) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.SetPosition(stance)
	})
}

func (s *Service) SetBody(ctx context.Context, id domain.SessionID, body string) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.SetBody(body)
	})
}

func (s *Service) SetMedia(ctx context.Context, id domain.SessionID, urls []string) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.SetMediaURLs(urls)
	})
}

func (s *Service) SetDeliveryChannel(ctx context.Context, id domain.SessionID, ch domain.DeliveryChannel) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.SetDeliveryChannel(ch)
	})
}

func (s *Service) ToggleField(ctx context.Context, id domain.SessionID, k domain.FieldKey) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.ToggleField(k)
	})
}

func (s *Service) RemoveRecipient(ctx context.Context, id domain.SessionID, rid domain.RecipientID) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		return c.RemoveRecipient(rid)
	})
}

// AddRecipient looks the member up and adds it to the selection.
func (s *Service) AddRecipient(ctx context.Context, id domain.SessionID, bioguideID string) (*View, error) {
	return s.withLoading(ctx, id, func(ctx context.Context, sess *Session) (func(*wizard.Controller) error, error) {
		r, err := s.recipient(ctx, bioguideID)
		if err != nil {
			return nil, err
		}
		return func(c *wizard.Controller) error {
			_, err := c.AddRecipient(r)
			return err
		}, nil
	})
}

// SearchMembers is the free-text recipient search.
func (s *Service) SearchMembers(ctx context.Context, query string, limit int) ([]domain.Recipient, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("%w: search needs at least two characters", domain.ErrValidation)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	start := time.Now()
	ms, err := s.deps.Members.SearchMembers(ctx, query, limit)
	s.deps.Metrics.ObserveCall("member_search", start, err)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("member search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: member search: %v", domain.ErrUnavailable, err)
	}

	out := make([]domain.Recipient, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.RecipientFromMember(*m))
	}
	return out, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Service) session(id domain.SessionID) (*Session, error) {
	sess, err := s.deps.Sessions.GetSession(id)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// with runs fn under the session lock.
func (s *Service) with(ctx context.Context, id domain.SessionID, fn func(*Session) error) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess)
}

// mutate applies fn to the controller and returns the resulting view.
func (s *Service) mutate(ctx context.Context, id domain.SessionID, fn func(*wizard.Controller) error) (*View, error) {
	var v *View
	err := s.with(ctx, id, func(sess *Session) error {
		if sess.loading {
			return ErrBusy
		}
		if err := fn(sess.ctrl); err != nil {
			return err
		}
		sess.updatedAt = s.now()
		v = sess.view(s.opts.AnimationDelay)
		return nil
	})
	if err != nil {
		s.logRejected(ctx, id, err)
		return nil, err
	}
	return v, nil
}

// withLoading runs a network call without holding the session lock. The
// session is marked loading meanwhile so a second trigger gets ErrBusy.
// call returns the change to apply once the result is in.
func (s *Service) withLoading(
	ctx context.Context,
	id domain.SessionID,
	call func(ctx context.Context, sess *Session) (func(*wizard.Controller) error, error),
) (*View, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.loading {
		sess.mu.Unlock()
		return nil, ErrBusy
	}
	sess.loading = true
	sess.mu.Unlock()

	apply, callErr := call(ctx, sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.loading = false

	if callErr == nil && apply != nil {
		callErr = apply(sess.ctrl)
	}
	if callErr != nil {
		s.logRejected(ctx, id, callErr)
		return nil, callErr
	}
	sess.updatedAt = s.now()
	return sess.view(s.opts.AnimationDelay), nil
}

func (s *Service) logRejected(ctx context.Context, id domain.SessionID, err error) {
	log := observability.LoggerFromContext(ctx).With(zap.String("session_id", string(id)))
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, wizard.ErrIllegalTransition),
		errors.Is(err, wizard.ErrLocked), errors.Is(err, ErrBusy):
		log.Info("wizard action rejected", zap.Error(err))
	default:
		log.Error("wizard action failed", zap.Error(err))
	}
}

func (s *Service) observeTransition(from, to wizard.Step, ev wizard.Event) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.Transitions.WithLabelValues(from.String(), to.String(), string(ev)).Inc()
}

func (s *Service) gaugeSessions() {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.ActiveSessions.Set(float64(s.deps.Sessions.CountSessions()))
}

func (s *Service) getBill(ctx context.Context, ref domain.BillRef) (*domain.Bill, error) {
	start := time.Now()
	b, err := s.deps.Bills.GetBill(ctx, ref)
	s.deps.Metrics.ObserveCall("bill_lookup", start, err)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("bill %s: %w", ref, err)
		}
		return nil, fmt.Errorf("%w: bill lookup %s: %v", domain.ErrUnavailable, ref, err)
	}
	return b, nil
}

func (s *Service) recipient(ctx context.Context, bioguideID string) (domain.Recipient, error) {
	bioguideID = strings.ToUpper(strings.TrimSpace(bioguideID))
	if bioguideID == "" {
		return domain.Recipient{}, fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}

	start := time.Now()
	m, err := s.deps.Members.GetMember(ctx, bioguideID)
	s.deps.Metrics.ObserveCall("member_lookup", start, err)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Recipient{}, fmt.Errorf("member %s: %w", bioguideID, err)
		}
		return domain.Recipient{}, fmt.Errorf("%w: member lookup %s: %v", domain.ErrUnavailable, bioguideID, err)
	}
	return domain.RecipientFromMember(*m), nil
}

func (s *Service) membersByState(ctx context.Context, state string) ([]domain.Recipient, error) {
	start := time.Now()
	ms, err := s.deps.Members.MembersByState(ctx, state)
	s.deps.Metrics.ObserveCall("members_by_state", start, err)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Recipient, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.RecipientFromMember(*m))
	}
	return out, nil
}
