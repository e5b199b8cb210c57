package advocacy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

// Send starts the persistence write of the message and returns the Sending
// view at once. Repeating it while sending or after success writes nothing
// and returns the current view. The write outlives the request context.
func (s *Service) Send(ctx context.Context, id domain.SessionID) (*View, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(zap.String("session_id", string(id)))

	sess.mu.Lock()
	defer sess.mu.Unlock()

	c := sess.ctrl
	if c.Sending() || c.Sent() {
		log.Info("duplicate send ignored", zap.String("step", c.Step().String()))
		return sess.view(s.opts.AnimationDelay), nil
	}
	if sess.loading || sess.send.Sending() {
		return nil, ErrBusy
	}

	activity, err := c.BeginSend()
	if err != nil {
		s.logRejected(ctx, id, err)
		return nil, err
	}
	activity.ID = domain.ActivityID(uuid.NewString())
	activity.SessionID = sess.ID
	activity.CreatedAt = s.now()
	sess.updatedAt = activity.CreatedAt

	log.Info("sending message",
		zap.String("activity_id", string(activity.ID)),
		zap.String("sender", string(activity.Sender)),
		zap.Int("recipients", len(activity.Recipients)),
	)

	write := func(ctx context.Context) (domain.ActivityID, error) {
		start := time.Now()
		saved, err := s.deps.Activities.SaveActivity(ctx, activity)
		s.deps.Metrics.ObserveCall("activity_store", start, err)
		return saved, err
	}
	settle := func(out wizard.Outcome) {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if err := c.Settle(out.ActivityID, out.Err); err != nil {
			log.Error("failed to settle send", zap.Error(err))
		}
		sess.updatedAt = s.now()
		if s.deps.Metrics != nil {
			s.deps.Metrics.Sends.WithLabelValues(observability.Outcome(out.Err)).Inc()
		}
		if out.Err != nil {
			log.Error("message send failed", zap.Error(out.Err))
			return
		}
		log.Info("message sent",
			zap.String("activity_id", string(out.ActivityID)),
			zap.String("step", c.Step().String()),
		)
	}

	if !sess.send.Start(context.WithoutCancel(ctx), write, settle) {
		// Unreachable while the controller guard holds; keep the session usable.
		_ = c.Settle("", wizard.ErrAlreadySending)
		return nil, ErrBusy
	}
	return sess.view(s.opts.AnimationDelay), nil
}

// AwaitSend blocks until the session's send settles or ctx ends, then
// returns the resulting view.
func (s *Service) AwaitSend(ctx context.Context, id domain.SessionID) (*View, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if _, err := sess.send.Wait(ctx); err != nil && !errors.Is(err, wizard.ErrNotSending) {
		return nil, fmt.Errorf("await send: %w", err)
	}
	return s.GetSession(ctx, id)
}
