package wizard

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

// Variant selects the transition table. Both fields are fixed for a session
// except that Authenticated may flip to true once, when sign-in resolves.
type Variant struct {
	Flow          domain.FlowKind
	Authenticated bool
}

func (v Variant) String() string {
	if v.Authenticated {
		return string(v.Flow) + "/authenticated"
	}
	return string(v.Flow) + "/guest"
}

// guard rejects a transition whose preconditions are not met.
type guard func(c *Controller) error

type transition struct {
	from  Step
	event Event
	guard guard
	to    Step
}

var billGuestFlow = []transition{
	{StepVerify, EventContinue, requireVerified, StepPosition},
	{StepPosition, EventContinue, requireStance, StepAIHelpOffer},
	{StepAIHelpOffer, EventContinue, nil, StepCompose},
	{StepAIHelpOffer, EventSkip, nil, StepCompose},
	{StepCompose, EventContinue, requireBody, StepMedia},
	{StepCompose, EventSkip, requireBody, StepSelectRecipients},
	{StepMedia, EventContinue, nil, StepSelectRecipients},
	{StepSelectRecipients, EventContinue, requireRecipients, StepPersonalInfo},
	{StepPersonalInfo, EventContinue, requireSendable, StepReview},
	{StepReview, EventContinue, requireSendable, StepDeliveryChannel},
	{StepDeliveryChannel, EventSend, requireSendable, StepSending},
	{StepSending, EventSendOK, nil, StepAccountPrompt},
	{StepSending, EventSendFailed, nil, StepSendFailed},
	{StepSendFailed, EventBackToReview, nil, StepReview},
	{StepAccountPrompt, EventContinue, nil, StepConfirmation},
	{StepAccountPrompt, EventSkip, nil, StepConfirmation},
}

var billAuthenticatedFlow = []transition{
	{StepPosition, EventContinue, requireStance, StepAIHelpOffer},
	{StepAIHelpOffer, EventContinue, nil, StepCompose},
	{StepAIHelpOffer, EventSkip, nil, StepCompose},
	{StepCompose, EventContinue, requireBody, StepMedia},
	{StepCompose, EventSkip, requireBody, StepSelectRecipients},
	{StepMedia, EventContinue, nil, StepSelectRecipients},
	{StepSelectRecipients, EventContinue, requireRecipients, StepPersonalInfo},
	{StepPersonalInfo, EventContinue, requireSendable, StepReview},
	{StepReview, EventSend, requireSendable, StepSending},
	{StepSending, EventSendOK, nil, StepConfirmation},
	{StepSending, EventSendFailed, nil, StepSendFailed},
	{StepSendFailed, EventBackToReview, nil, StepReview},
}

var memberGuestFlow = []transition{
	{StepVerify, EventContinue, requireVerified, StepPosition},
	{StepPosition, EventContinue, requireStance, StepCompose},
	{StepCompose, EventContinue, requireBody, StepMedia},
	{StepCompose, EventSkip, requireBody, StepPersonalInfo},
	{StepMedia, EventContinue, nil, StepPersonalInfo},
	{StepPersonalInfo, EventContinue, requireSendable, StepReview},
	{StepReview, EventContinue, requireSendable, StepDeliveryChannel},
	{StepDeliveryChannel, EventSend, requireSendable, StepSending},
	{StepSending, EventSendOK, nil, StepAccountPrompt},
	{StepSending, EventSendFailed, nil, StepSendFailed},
	{StepSendFailed, EventBackToReview, nil, StepReview},
	{StepAccountPrompt, EventContinue, nil, StepConfirmation},
	{StepAccountPrompt, EventSkip, nil, StepConfirmation},
}

var memberAuthenticatedFlow = []transition{
	{StepPosition, EventContinue, requireStance, StepCompose},
	{StepCompose, EventContinue, requireBody, StepMedia},
	{StepCompose, EventSkip, requireBody, StepPersonalInfo},
	{StepMedia, EventContinue, nil, StepPersonalInfo},
	{StepPersonalInfo, EventContinue, requireSendable, StepReview},
	{StepReview, EventSend, requireSendable, StepSending},
	{StepSending, EventSendOK, nil, StepConfirmation},
	{StepSending, EventSendFailed, nil, StepSendFailed},
	{StepSendFailed, EventBackToReview, nil, StepReview},
}

func tableFor(v Variant) []transition {
	switch {
	case v.Flow == domain.FlowMemberContact && v.Authenticated:
		return memberAuthenticatedFlow
	case v.Flow == domain.FlowMemberContact:
		return memberGuestFlow
	case v.Authenticated:
		return billAuthenticatedFlow
	default:
		return billGuestFlow
	}
}

func lookup(v Variant, from Step, ev Event) (transition, bool) {
	for _, t := range tableFor(v) {
		if t.from == from && t.event == ev {
			return t, true
		}
	}
	return transition{}, false
}

// StartStep is the first screen of a variant.
func StartStep(v Variant) Step {
	if v.Authenticated {
		return StepPosition
	}
	return StepVerify
}

// Sequence lists the numbered screens of a variant in order: the path taken
// by pressing Continue (or Send) on every screen, stopping at Sending.
func Sequence(v Variant) []Step {
	var seq []Step
	seen := make(map[Step]bool)
	for s := StartStep(v); s != StepSending && !seen[s]; {
		seen[s] = true
		seq = append(seq, s)

		t, ok := lookup(v, s, EventContinue)
		if !ok {
			if t, ok = lookup(v, s, EventSend); !ok {
				break
			}
		}
		s = t.to
	}
	return seq
}

// DisplayStep maps an internal step to the dense 1-based number shown as
// "Step N of M". ok is false for screens outside the numbered sequence.
func DisplayStep(step Step, v Variant) (n int, ok bool) {
	for i, s := range Sequence(v) {
		if s == step {
			return i + 1, true
		}
	}
	return 0, false
}

// TotalSteps is M in "Step N of M".
func TotalSteps(v Variant) int {
	return len(Sequence(v))
}

func requireVerified(c *Controller) error {
	if c.record == nil && c.auth != domain.AuthAuthenticated {
		return fmt.Errorf("%w: identity verification is not complete", domain.ErrValidation)
	}
	return nil
}

func requireStance(c *Controller) error {
	if c.position == domain.StanceUnset {
		return fmt.Errorf("%w: choose whether you support or oppose", domain.ErrValidation)
	}
	return nil
}

func requireBody(c *Controller) error {
	if strings.TrimSpace(c.body) == "" {
		return fmt.Errorf("%w: message body is empty", domain.ErrValidation)
	}
	return nil
}

func requireRecipients(c *Controller) error {
	if c.recipients.Len() == 0 {
		return fmt.Errorf("%w: select at least one recipient", domain.ErrValidation)
	}
	return nil
}

func requireSendable(c *Controller) error {
	if err := requireRecipients(c); err != nil {
		return err
	}
	return requireBody(c)
}
