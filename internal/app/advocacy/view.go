package advocacy

import (
	"time"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
)

// View is what a client needs to render the current wizard screen.
type View struct {
	SessionID domain.SessionID `json:"session_id"`
	Flow      domain.FlowKind  `json:"flow"`
	AuthState domain.AuthState `json:"auth_state"`
	Step      string           `json:"step"`
	StepID    int              `json:"step_id"`
	Display   *DisplayStep     `json:"display,omitempty"`
	CanGoBack bool             `json:"can_go_back"`

	Bill            *domain.Bill               `json:"bill,omitempty"`
	CampaignID      string                     `json:"campaign_id,omitempty"`
	Position        domain.Stance              `json:"position,omitempty"`
	Body            string                     `json:"body"`
	MediaURLs       []string                   `json:"media_urls,omitempty"`
	Recipients      []domain.Recipient         `json:"recipients"`
	RecipientFixed  bool                       `json:"recipient_fixed"`
	Suggestions     []domain.Recipient         `json:"suggestions,omitempty"`
	DeliveryChannel domain.DeliveryChannel     `json:"delivery_channel"`
	Disclosure      []wizard.FieldStatus       `json:"disclosure"`
	Verification    *VerificationView          `json:"verification,omitempty"`
	Record          *domain.VerificationRecord `json:"verification_record,omitempty"`

	Loading           bool              `json:"loading"`
	Sending           bool              `json:"sending"`
	Sent              bool              `json:"sent"`
	ActivityID        domain.ActivityID `json:"activity_id,omitempty"`
	SendError         string            `json:"send_error,omitempty"`
	AnimationDelayMS  int64             `json:"animation_delay_ms,omitempty"`
	ConfirmationRoute string            `json:"confirmation_route,omitempty"`
}

// DisplayStep is the "Step N of M" label.
type DisplayStep struct {
	Number int `json:"number"`
	Total  int `json:"total"`
}

type VerificationView struct {
	State      wizard.VerificationState  `json:"state"`
	Candidates []domain.Candidate        `json:"candidates,omitempty"`
	Manual     domain.VerificationRecord `json:"manual"`
}

// ReviewPage is one page of the review screen.
type ReviewPage struct {
	View       *View              `json:"view"`
	Page       int                `json:"page"`
	Pages      int                `json:"pages"`
	Recipients []domain.Recipient `json:"recipients"`
}

// view builds the read model; the caller holds s.mu.
func (s *Session) view(animationDelay time.Duration) *View {
	c := s.ctrl
	v := &View{
		SessionID:       s.ID,
		Flow:            c.Variant().Flow,
		AuthState:       c.Auth(),
		Step:            c.Step().String(),
		StepID:          int(c.Step()),
		CanGoBack:       c.CanGoBack(),
		Bill:            s.bill,
		CampaignID:      c.CampaignID(),
		Position:        c.Position(),
		Body:            c.Body(),
		MediaURLs:       c.MediaURLs(),
		Recipients:      c.Recipients(),
		RecipientFixed:  c.Variant().Flow == domain.FlowMemberContact,
		Suggestions:     s.suggestions,
		DeliveryChannel: c.DeliveryChannel(),
		Disclosure:      c.Disclosure().Fields(),
		Record:          c.Record(),
		Loading:         s.loading,
		Sending:         c.Sending(),
		Sent:            c.Sent(),
		ActivityID:      c.ActivityID(),
	}

	if n, m, ok := c.Display(); ok {
		v.Display = &DisplayStep{Number: n, Total: m}
	}

	switch c.Step() {
	case wizard.StepVerify:
		ver := c.Verification()
		v.Verification = &VerificationView{
			State:      ver.State(),
			Candidates: ver.Candidates(),
			Manual:     ver.Manual(),
		}
	case wizard.StepSending:
		v.AnimationDelayMS = animationDelay.Milliseconds()
	case wizard.StepConfirmation:
		v.ConfirmationRoute = c.ConfirmationRoute()
	}
	if err := c.SendError(); err != nil {
		v.SendError = "We could not send your message. Go back to review and try again."
	}
	return v
}
