package advocacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

type CreateAccountInput struct {
	Email    string
	Password string
}

type CreateAccountOutput struct {
	View  *View
	Token string
}

// CreateAccount signs a guest up from the account prompt and links the
// message they just sent to the new account.
func (s *Service) CreateAccount(ctx context.Context, id domain.SessionID, in CreateAccountInput) (*CreateAccountOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must have at least 8 characters", domain.ErrValidation)
	}

	var token string
	v, err := s.withLoading(ctx, id, func(ctx context.Context, sess *Session) (func(*wizard.Controller) error, error) {
		sess.mu.Lock()
		step, activityID := sess.ctrl.Step(), sess.ctrl.ActivityID()
		sess.mu.Unlock()
		if step != wizard.StepAccountPrompt {
			return nil, fmt.Errorf("%w: account creation on %s", wizard.ErrIllegalTransition, step)
		}

		log := observability.LoggerFromContext(ctx).With(zap.String("session_id", string(id)))

		start := time.Now()
		acct, err := s.deps.Accounts.CreateAccount(ctx, email, in.Password)
		s.deps.Metrics.ObserveCall("accounts", start, err)
		if err != nil {
			log.Error("failed to create account", zap.Error(err))
			return nil, err
		}

		start = time.Now()
		err = s.deps.Activities.LinkActivityToUser(ctx, activityID, acct.Profile.UserID)
		s.deps.Metrics.ObserveCall("activity_store", start, err)
		if err != nil {
			// The account exists; only the link to this message is lost.
			log.Warn("failed to link message to new account",
				zap.String("activity_id", string(activityID)),
				zap.Error(err),
			)
		}

		log.Info("account created", zap.String("user_id", string(acct.Profile.UserID)))
		token = acct.Token
		profile := acct.Profile
		return func(c *wizard.Controller) error {
			return c.AccountCreated(&profile)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &CreateAccountOutput{View: v, Token: token}, nil
}
