package domain

// MessageActivity is the persisted record of one sent advocacy message.
// It is written once at send time; only UserID may be filled in later, when
// a guest creates an account after sending.
type MessageActivity struct {
	ID              ActivityID
	SessionID       SessionID
	Sender          SenderClass
	UserID          UserID
	Stance          Stance
	Body            string
	Recipients      []Recipient
	DisclosedFields map[FieldKey]string
	Bill            *BillRef
	CampaignID      string
	MediaURLs       []string
	DeliveryChannel DeliveryChannel
	DeliveryStatus  DeliveryStatus
	CreatedAt       Timestamp
}

// IsGuestUser reports whether the sender had no account at send time.
func (a *MessageActivity) IsGuestUser() bool {
	return a.Sender != SenderAuthenticated
}
