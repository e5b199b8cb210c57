// Package wizard sequences one advocacy-message session: identity
// verification, stance, composition, recipients, disclosure, review,
// delivery and sending.
package wizard

import "fmt"

// Step is a named wizard screen. The numeric values are internal and sparse;
// use DisplayStep for what the user sees.
type Step int

const (
	StepVerify           Step = 1
	StepPosition         Step = 2
	StepAIHelpOffer      Step = 3
	StepCompose          Step = 4
	StepMedia            Step = 5
	StepSelectRecipients Step = 6
	StepPersonalInfo     Step = 7
	StepReview           Step = 8
	StepDeliveryChannel  Step = 9
	StepAccountPrompt    Step = 10
	StepConfirmation     Step = 11
	StepSending          Step = 12
	StepSendFailed       Step = 13
)

var stepNames = map[Step]string{
	StepVerify:           "verify",
	StepPosition:         "position",
	StepAIHelpOffer:      "ai_help_offer",
	StepCompose:          "compose",
	StepMedia:            "media",
	StepSelectRecipients: "select_recipients",
	StepPersonalInfo:     "personal_info",
	StepReview:           "review",
	StepDeliveryChannel:  "delivery_channel",
	StepAccountPrompt:    "account_prompt",
	StepConfirmation:     "confirmation",
	StepSending:          "sending",
	StepSendFailed:       "send_failed",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Terminal steps end the session.
func (s Step) Terminal() bool {
	return s == StepConfirmation
}

// editable reports whether message content may still change on this step.
func (s Step) editable() bool {
	switch s {
	case StepSending, StepSendFailed, StepAccountPrompt, StepConfirmation:
		return false
	default:
		return true
	}
}

// Event drives a forward transition.
type Event string

const (
	EventContinue     Event = "continue"
	EventSkip         Event = "skip"
	EventSend         Event = "send"
	EventSendOK       Event = "send_ok"
	EventSendFailed   Event = "send_failed"
	EventBackToReview Event = "back_to_review"
)
