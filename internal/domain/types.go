package domain

import "time"

type SessionID string
type UserID string
type ActivityID string
type RecipientID string

// FlowKind tells whether a wizard session targets a bill/campaign or a single member.
type FlowKind string

const (
	FlowBillOrCampaign FlowKind = "bill_or_campaign"
	FlowMemberContact  FlowKind = "member_contact"
)

// AuthState is the identity level of the person composing the message.
// Authenticated takes precedence over Verified.
type AuthState string

const (
	AuthAnonymous     AuthState = "anonymous"
	AuthVerified      AuthState = "verified"
	AuthAuthenticated AuthState = "authenticated"
)

type Stance string

const (
	StanceUnset   Stance = ""
	StanceSupport Stance = "support"
	StanceOppose  Stance = "oppose"
)

// ParseStance accepts the lower-case wire form.
func ParseStance(s string) (Stance, bool) {
	switch Stance(s) {
	case StanceSupport, StanceOppose:
		return Stance(s), true
	default:
		return StanceUnset, false
	}
}

// SenderClass is how a persisted message classifies its author.
type SenderClass string

const (
	SenderGuest         SenderClass = "guest"
	SenderVerified      SenderClass = "verified"
	SenderAuthenticated SenderClass = "authenticated"
)

// SenderClassFor maps the wizard auth state to the persisted classification.
func SenderClassFor(a AuthState) SenderClass {
	switch a {
	case AuthAuthenticated:
		return SenderAuthenticated
	case AuthVerified:
		return SenderVerified
	default:
		return SenderGuest
	}
}

type DeliveryStatus string

const (
	DeliverySent DeliveryStatus = "sent"
)

// DeliveryChannel is the guest's choice on the delivery-channel screen.
type DeliveryChannel string

const (
	DeliveryEmail   DeliveryChannel = "email"
	DeliveryWebForm DeliveryChannel = "web_form"
	DeliveryPrinted DeliveryChannel = "printed"
	DeliveryDefault DeliveryChannel = DeliveryEmail
)

// ParseDeliveryChannel accepts the wire form of a delivery channel.
func ParseDeliveryChannel(s string) (DeliveryChannel, bool) {
	switch DeliveryChannel(s) {
	case DeliveryEmail, DeliveryWebForm, DeliveryPrinted:
		return DeliveryChannel(s), true
	default:
		return "", false
	}
}

type Timestamp = time.Time
