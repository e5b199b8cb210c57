package wizard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PabloGalante/advocate/internal/domain"
)

// Options are the session-fixed inputs of a controller. Auth state and zip
// code are passed in rather than read from ambient state.
type Options struct {
	Flow       domain.FlowKind
	Auth       domain.AuthState
	Profile    *domain.UserProfile
	ZipCode    string
	Bill       *domain.BillRef
	CampaignID string

	// FixedRecipient is the contacted member; required for FlowMemberContact.
	FixedRecipient *domain.Recipient
	Preselected    []domain.Recipient

	Disclosure DisclosurePolicy

	// Observer, if set, is told about every step change.
	Observer func(from, to Step, ev Event)
}

// Controller is the advocacy-message state machine for one session.
// It is not safe for concurrent use.
type Controller struct {
	variant Variant
	auth    domain.AuthState
	step    Step
	history []Step

	position   domain.Stance
	body       string
	mediaURLs  []string
	channel    domain.DeliveryChannel
	recipients *RecipientSet
	fixed      *domain.Recipient

	disclosure   *Disclosure
	verification *Verification
	record       *domain.VerificationRecord
	profile      *domain.UserProfile
	zipCode      string
	bill         *domain.BillRef
	campaignID   string

	sending    bool
	sent       bool
	activityID domain.ActivityID
	sendErr    error

	observer func(from, to Step, ev Event)
}

func New(opts Options) (*Controller, error) {
	switch opts.Flow {
	case domain.FlowBillOrCampaign:
		if opts.FixedRecipient != nil {
			return nil, fmt.Errorf("%w: bill flow cannot fix a recipient", domain.ErrValidation)
		}
	case domain.FlowMemberContact:
		if opts.FixedRecipient == nil || opts.FixedRecipient.ID == "" {
			return nil, fmt.Errorf("%w: member contact needs the contacted member", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown flow %q", domain.ErrValidation, opts.Flow)
	}

	auth := opts.Auth
	switch auth {
	case domain.AuthAnonymous, domain.AuthAuthenticated:
	case "":
		auth = domain.AuthAnonymous
	default:
		return nil, fmt.Errorf("%w: a session cannot start as %q", domain.ErrValidation, auth)
	}

	v := Variant{Flow: opts.Flow, Authenticated: auth == domain.AuthAuthenticated}
	c := &Controller{
		variant:    v,
		auth:       auth,
		step:       StartStep(v),
		channel:    domain.DeliveryDefault,
		recipients: NewRecipientSet(),
		profile:    opts.Profile,
		zipCode:    strings.TrimSpace(opts.ZipCode),
		bill:       opts.Bill,
		campaignID: opts.CampaignID,
		observer:   opts.Observer,
	}
	if c.zipCode == "" && opts.Profile != nil {
		c.zipCode = opts.Profile.ZipCode
	}

	if opts.FixedRecipient != nil {
		fixed := *opts.FixedRecipient
		c.fixed = &fixed
		c.recipients.Add(fixed)
	} else {
		for _, r := range opts.Preselected {
			if r.ID != "" {
				c.recipients.Add(r)
			}
		}
	}

	c.disclosure = newDisclosure(opts.Disclosure, c.fieldValue)
	c.verification = newVerification(c.completeVerification)
	return c, nil
}

func (c *Controller) Step() Step { return c.step }

func (c *Controller) Variant() Variant { return c.variant }

func (c *Controller) Auth() domain.AuthState { return c.auth }

func (c *Controller) Position() domain.Stance { return c.position }

func (c *Controller) Body() string { return c.body }

func (c *Controller) DeliveryChannel() domain.DeliveryChannel { return c.channel }

func (c *Controller) Disclosure() *Disclosure { return c.disclosure }

func (c *Controller) Verification() *Verification { return c.verification }

func (c *Controller) Profile() *domain.UserProfile { return c.profile }

func (c *Controller) ZipCode() string { return c.zipCode }

func (c *Controller) Bill() *domain.BillRef { return c.bill }

func (c *Controller) CampaignID() string { return c.campaignID }

func (c *Controller) Sending() bool { return c.sending }

func (c *Controller) Sent() bool { return c.sent }

func (c *Controller) ActivityID() domain.ActivityID { return c.activityID }

func (c *Controller) SendError() error { return c.sendErr }

// Record is the verified identity, if verification completed.
func (c *Controller) Record() *domain.VerificationRecord {
	if c.record == nil {
		return nil
	}
	r := *c.record
	return &r
}

func (c *Controller) MediaURLs() []string {
	return append([]string(nil), c.mediaURLs...)
}

// Recipients returns the selection in insertion order.
func (c *Controller) Recipients() []domain.Recipient {
	return c.recipients.List()
}

// ReviewPage pages the selection for the review screen.
func (c *Controller) ReviewPage(page, size int) ([]domain.Recipient, int) {
	return c.recipients.Page(page, size)
}

// History is the stack of screens Back will return through.
func (c *Controller) History() []Step {
	return append([]Step(nil), c.history...)
}

// Display returns N and M for "Step N of M"; ok is false off-sequence.
func (c *Controller) Display() (n, m int, ok bool) {
	n, ok = DisplayStep(c.step, c.variant)
	return n, TotalSteps(c.variant), ok
}

// ─────────────────────────────────────────
// Transitions
// ─────────────────────────────────────────

// Fire applies a user event. Send and its outcomes go through BeginSend and
// Settle instead.
func (c *Controller) Fire(ev Event) error {
	switch ev {
	case EventSend, EventSendOK, EventSendFailed:
		return fmt.Errorf("%w: %s is not a user event", ErrIllegalTransition, ev)
	}
	return c.fire(ev)
}

func (c *Controller) fire(ev Event) error {
	t, ok := lookup(c.variant, c.step, ev)
	if !ok {
		return fmt.Errorf("%w: %s on %s (%s)", ErrIllegalTransition, ev, c.step, c.variant)
	}
	if t.guard != nil {
		if err := t.guard(c); err != nil {
			return err
		}
	}

	from := c.step
	if ev == EventBackToReview {
		c.rewindTo(t.to)
	} else {
		c.history = append(c.history, from)
		c.step = t.to
	}
	c.notify(from, c.step, ev)
	return nil
}

// Back returns to the screen the current one was entered from, so it undoes
// exactly the forward path taken, skipped screens included.
func (c *Controller) Back() error {
	switch c.step {
	case StepSending, StepAccountPrompt, StepConfirmation:
		return fmt.Errorf("%w: %s", ErrBackNotAllowed, c.step)
	case StepSendFailed:
		return c.fire(EventBackToReview)
	}
	if len(c.history) == 0 {
		return ErrNoPreviousStep
	}

	from := c.step
	c.step = c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	c.notify(from, c.step, "back")
	return nil
}

// CanGoBack reports whether Back would succeed on the current step.
func (c *Controller) CanGoBack() bool {
	switch c.step {
	case StepSending, StepAccountPrompt, StepConfirmation:
		return false
	case StepSendFailed:
		return true
	}
	return len(c.history) > 0
}

// rewindTo pops history until target has been restored as the current step.
func (c *Controller) rewindTo(target Step) {
	for len(c.history) > 0 {
		s := c.history[len(c.history)-1]
		c.history = c.history[:len(c.history)-1]
		if s == target {
			c.step = target
			return
		}
	}
	c.step = target
}

func (c *Controller) notify(from, to Step, ev Event) {
	if c.observer != nil && from != to {
		c.observer(from, to, ev)
	}
}

// Authenticate upgrades the session once a signed-in user is known. If the
// Verify screen is showing it is skipped without leaving a history entry;
// Verify and DeliveryChannel are also dropped from the back path.
func (c *Controller) Authenticate(p *domain.UserProfile) error {
	if !c.step.editable() {
		return fmt.Errorf("%w: cannot sign in on %s", ErrLocked, c.step)
	}

	c.profile = p
	c.auth = domain.AuthAuthenticated
	if c.zipCode == "" && p != nil {
		c.zipCode = p.ZipCode
	}
	if c.variant.Authenticated {
		return nil
	}
	c.variant.Authenticated = true

	kept := c.history[:0]
	for _, s := range c.history {
		if s != StepVerify && s != StepDeliveryChannel {
			kept = append(kept, s)
		}
	}
	c.history = kept

	from := c.step
	switch c.step {
	case StepVerify:
		c.step = StepPosition
	case StepDeliveryChannel:
		c.rewindTo(StepReview)
	}
	c.notify(from, c.step, "authenticated")
	return nil
}

func (c *Controller) completeVerification(r domain.VerificationRecord) error {
	if c.step != StepVerify {
		return fmt.Errorf("%w: verification finished on %s", ErrIllegalTransition, c.step)
	}
	c.record = &r
	if c.auth != domain.AuthAuthenticated {
		c.auth = domain.AuthVerified
	}
	if c.zipCode == "" {
		c.zipCode = r.ZipCode
	}
	return c.fire(EventContinue)
}

// ─────────────────────────────────────────
// Editing
// ─────────────────────────────────────────

func (c *Controller) checkEditable() error {
	if c.sending || c.sent || !c.step.editable() {
		return fmt.Errorf("%w: on %s", ErrLocked, c.step)
	}
	return nil
}

func (c *Controller) SetPosition(s domain.Stance) error {
	if err := c.checkEditable(); err != nil {
		return err
	}
	if s != domain.StanceSupport && s != domain.StanceOppose {
		return fmt.Errorf("%w: stance must be support or oppose", domain.ErrValidation)
	}
	c.position = s
	return nil
}

func (c *Controller) SetBody(body string) error {
	if err := c.checkEditable(); err != nil {
		return err
	}
	c.body = body
	return nil
}

func (c *Controller) SetMediaURLs(urls []string) error {
	if err := c.checkEditable(); err != nil {
		return err
	}
	clean := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("%w: invalid media url %q", domain.ErrValidation, raw)
		}
		clean = append(clean, u.String())
	}
	c.mediaURLs = clean
	return nil
}

// AddRecipient adds r to the selection and reports whether it was new.
func (c *Controller) AddRecipient(r domain.Recipient) (bool, error) {
	if err := c.checkEditable(); err != nil {
		return false, err
	}
	if c.fixed != nil {
		return false, ErrFixedRecipient
	}
	if r.ID == "" {
		return false, fmt.Errorf("%w: recipient id is required", domain.ErrValidation)
	}
	return c.recipients.Add(r), nil
}

func (c *Controller) RemoveRecipient(id domain.RecipientID) error {
	if err := c.checkEditable(); err != nil {
		return err
	}
	if c.fixed != nil {
		return ErrFixedRecipient
	}
	if !c.recipients.Remove(id) {
		return fmt.Errorf("%w: recipient %s", domain.ErrNotFound, id)
	}
	return nil
}

func (c *Controller) SetDeliveryChannel(ch domain.DeliveryChannel) error {
	if err := c.checkEditable(); err != nil {
		return err
	}
	if _, ok := domain.ParseDeliveryChannel(string(ch)); !ok {
		return fmt.Errorf("%w: unknown delivery channel %q", domain.ErrValidation, ch)
	}
	c.channel = ch
	return nil
}

func (c *Controller) ToggleField(k domain.FieldKey) error {
	if err := c.checkEditable(); err != nil {
		return err
	}
	return c.disclosure.Toggle(k)
}

// fieldValue resolves a disclosure field from the authenticated profile,
// then the verification record, then the anonymous defaults.
func (c *Controller) fieldValue(k domain.FieldKey) string {
	if v := c.profile.Field(k); v != "" {
		return v
	}

	switch k {
	case domain.FieldFullName:
		if c.record != nil && c.record.FullName != "" {
			return c.record.FullName
		}
		return AnonymousName
	case domain.FieldAddress:
		if c.record != nil {
			return c.record.FormattedAddress()
		}
		if state, ok := domain.StateForZip(c.zipCode); ok {
			return domain.FormatAddress("", "", state, c.zipCode)
		}
	}
	return ""
}

// ─────────────────────────────────────────
// Sending
// ─────────────────────────────────────────

// BeginSend moves to Sending and returns the snapshot to persist. It fails
// while a send is in flight or after one succeeded.
func (c *Controller) BeginSend() (*domain.MessageActivity, error) {
	if c.sent {
		return nil, ErrAlreadySent
	}
	if c.sending {
		return nil, ErrAlreadySending
	}
	if err := c.fire(EventSend); err != nil {
		return nil, err
	}
	c.sending = true
	c.sendErr = nil

	a := &domain.MessageActivity{
		Sender:          domain.SenderClassFor(c.auth),
		Stance:          c.position,
		Body:            strings.TrimSpace(c.body),
		Recipients:      c.recipients.List(),
		DisclosedFields: c.disclosure.Resolve(),
		CampaignID:      c.campaignID,
		MediaURLs:       c.MediaURLs(),
		DeliveryChannel: c.channel,
		DeliveryStatus:  domain.DeliverySent,
	}
	if c.auth == domain.AuthAuthenticated && c.profile != nil {
		a.UserID = c.profile.UserID
	}
	if c.bill != nil {
		ref := *c.bill
		a.Bill = &ref
	}
	return a, nil
}

// Settle records the outcome of the persistence write started by BeginSend.
// A failure leaves the message unsent and offers BackToReview.
func (c *Controller) Settle(id domain.ActivityID, err error) error {
	if !c.sending {
		return ErrNotSending
	}
	c.sending = false
	if err != nil {
		c.sendErr = err
		return c.fire(EventSendFailed)
	}
	c.sent = true
	c.activityID = id
	return c.fire(EventSendOK)
}

// AccountCreated finishes the account prompt after a guest signed up.
func (c *Controller) AccountCreated(p *domain.UserProfile) error {
	if c.step != StepAccountPrompt {
		return fmt.Errorf("%w: account created on %s", ErrIllegalTransition, c.step)
	}
	c.profile = p
	return c.fire(EventContinue)
}

// ConfirmationRoute is where the client goes once the session is done.
func (c *Controller) ConfirmationRoute() string {
	q := url.Values{}
	q.Set("recipients", strconv.Itoa(c.recipients.Len()))
	return "/advocacy/confirmation?" + q.Encode()
}
