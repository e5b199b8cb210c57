package advocacy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

// SubmitIdentity records the initial verification form and asks the
// Verifier for candidates. No candidates opens manual entry.
func (s *Service) SubmitIdentity(ctx context.Context, id domain.SessionID, q wizard.IdentityQuery) (*View, error) {
	return s.withLoading(ctx, id, func(ctx context.Context, sess *Session) (func(*wizard.Controller) error, error) {
		sess.mu.Lock()
		err := onVerify(sess.ctrl)
		if err == nil {
			err = sess.ctrl.Verification().Submit(q)
		}
		sess.mu.Unlock()
		if err != nil {
			return nil, err
		}

		start := time.Now()
		candidates, err := s.deps.Verifier.Match(ctx, q.FirstName, q.LastName, q.Address)
		s.deps.Metrics.ObserveCall("verifier", start, err)
		if err != nil {
			observability.LoggerFromContext(ctx).Error("identity verification failed", zap.Error(err))
			return nil, fmt.Errorf("%w: verification: %v", domain.ErrUnavailable, err)
		}

		observability.LoggerFromContext(ctx).Info("identity candidates received",
			zap.String("session_id", string(id)),
			zap.Int("candidates", len(candidates)),
		)
		return func(c *wizard.Controller) error {
			if err := onVerify(c); err != nil {
				return err
			}
			return c.Verification().Offer(candidates)
		}, nil
	})
}

func (s *Service) SelectCandidate(ctx context.Context, id domain.SessionID, index int) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		if err := onVerify(c); err != nil {
			return err
		}
		return c.Verification().Select(index)
	})
}

func (s *Service) NotMe(ctx context.Context, id domain.SessionID) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		if err := onVerify(c); err != nil {
			return err
		}
		return c.Verification().NotMe()
	})
}

func (s *Service) TryAgain(ctx context.Context, id domain.SessionID) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		if err := onVerify(c); err != nil {
			return err
		}
		return c.Verification().TryAgain()
	})
}

func (s *Service) SubmitManual(ctx context.Context, id domain.SessionID, r domain.VerificationRecord) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		if err := onVerify(c); err != nil {
			return err
		}
		return c.Verification().SubmitManual(r)
	})
}

func (s *Service) ManualBack(ctx context.Context, id domain.SessionID) (*View, error) {
	return s.mutate(ctx, id, func(c *wizard.Controller) error {
		if err := onVerify(c); err != nil {
			return err
		}
		return c.Verification().ManualBack()
	})
}

func onVerify(c *wizard.Controller) error {
	if c.Step() != wizard.StepVerify {
		return fmt.Errorf("%w: verification on %s", wizard.ErrIllegalTransition, c.Step())
	}
	return nil
}
