package advocacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

// ErrGenerationUnavailable means no generator is configured.
var ErrGenerationUnavailable = errors.New("message generation is not available")

type GenerateInput struct {
	Tone string
}

// Generate drafts a message body for the bill flow. It is offered on the AI
// help and compose screens; the draft replaces the body and moves the user
// to Compose so it can be edited before sending.
func (s *Service) Generate(ctx context.Context, id domain.SessionID, in GenerateInput) (*View, error) {
	if s.deps.Generator == nil {
		return nil, ErrGenerationUnavailable
	}

	return s.withLoading(ctx, id, func(ctx context.Context, sess *Session) (func(*wizard.Controller) error, error) {
		sess.mu.Lock()
		req, err := generationRequest(sess, in)
		sess.mu.Unlock()
		if err != nil {
			return nil, err
		}

		log := observability.LoggerFromContext(ctx).With(
			zap.String("session_id", string(id)),
			zap.String("stance", string(req.Stance)),
		)
		log.Info("generating message")

		start := time.Now()
		body, err := s.deps.Generator.Generate(ctx, req)
		s.deps.Metrics.ObserveCall("generator", start, err)
		if s.deps.Metrics != nil {
			s.deps.Metrics.Generations.WithLabelValues(observability.Outcome(err)).Inc()
		}
		if err != nil {
			log.Error("message generation failed", zap.Error(err))
			return nil, fmt.Errorf("%w: generation: %v", domain.ErrUnavailable, err)
		}

		return func(c *wizard.Controller) error {
			if c.Step() == wizard.StepAIHelpOffer {
				if err := c.Fire(wizard.EventContinue); err != nil {
					return err
				}
			}
			if c.Step() != wizard.StepCompose {
				return fmt.Errorf("%w: generated text arrived on %s", wizard.ErrIllegalTransition, c.Step())
			}
			return c.SetBody(body)
		}, nil
	})
}

// generationRequest is built under the session lock.
func generationRequest(sess *Session, in GenerateInput) (domain.GenerationRequest, error) {
	c := sess.ctrl
	if c.Variant().Flow != domain.FlowBillOrCampaign {
		return domain.GenerationRequest{}, fmt.Errorf("%w: AI help is only offered for bills", wizard.ErrIllegalTransition)
	}
	if c.Step() != wizard.StepAIHelpOffer && c.Step() != wizard.StepCompose {
		return domain.GenerationRequest{}, fmt.Errorf("%w: AI help on %s", wizard.ErrIllegalTransition, c.Step())
	}
	if c.Position() == domain.StanceUnset {
		return domain.GenerationRequest{}, fmt.Errorf("%w: choose a position first", domain.ErrValidation)
	}

	req := domain.GenerationRequest{
		Stance:       c.Position(),
		Tone:         strings.TrimSpace(in.Tone),
		PersonalData: c.Disclosure().Resolve(),
	}
	if sess.bill != nil {
		req.BillTitle = sess.bill.Title
		req.BillSummary = sess.bill.Summary
	}
	if rs := c.Recipients(); len(rs) == 1 {
		req.MemberName = rs[0].Name
	}
	return req, nil
}
