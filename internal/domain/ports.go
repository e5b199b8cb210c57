package domain

import "context"

// BillLookup fetches bill records.
type BillLookup interface {
	GetBill(ctx context.Context, ref BillRef) (*Bill, error)
}

// MemberDirectory looks up and searches congressional members.
type MemberDirectory interface {
	GetMember(ctx context.Context, bioguideID string) (*Member, error)
	SearchMembers(ctx context.Context, query string, limit int) ([]*Member, error)
	MembersByState(ctx context.Context, state string) ([]*Member, error)
}

// Verifier produces candidate identity matches for a name and address.
type Verifier interface {
	Match(ctx context.Context, firstName, lastName, address string) ([]Candidate, error)
}

// GenerationRequest is everything the message generator may weave in.
type GenerationRequest struct {
	BillTitle    string
	BillSummary  string
	MemberName   string
	Stance       Stance
	Tone         string
	PersonalData map[FieldKey]string
}

// MessageGenerator drafts advocacy messages.
type MessageGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// ActivityStore persists sent messages.
type ActivityStore interface {
	SaveActivity(ctx context.Context, a *MessageActivity) (ActivityID, error)
	LinkActivityToUser(ctx context.Context, id ActivityID, userID UserID) error
	ListActivitiesByUser(ctx context.Context, userID UserID, limit int) ([]*MessageActivity, error)
}

// Account is a newly created or resolved account with its session token.
type Account struct {
	Profile UserProfile
	Token   string
}

// AccountProvider creates accounts and resolves session tokens.
type AccountProvider interface {
	CreateAccount(ctx context.Context, email, password string) (*Account, error)
	Authenticate(ctx context.Context, token string) (*UserProfile, error)
}
