package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/advocate/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (ADVOCATE_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) activitiesCol() *firestore.CollectionRef {
	return s.client.Collection("message_activities")
}

func (s *Store) activityDoc(id domain.ActivityID) *firestore.DocumentRef {
	return s.activitiesCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type activityDoc struct {
	SessionID       string            `firestore:"session_id"`
	Sender          string            `firestore:"sender"`
	UserID          string            `firestore:"user_id"`
	Stance          string            `firestore:"stance"`
	Body            string            `firestore:"body"`
	Recipients      []recipientDoc    `firestore:"recipients"`
	DisclosedFields map[string]string `firestore:"disclosed_fields"`
	Bill            *domain.BillRef   `firestore:"bill"`
	CampaignID      string            `firestore:"campaign_id"`
	MediaURLs       []string          `firestore:"media_urls"`
	DeliveryChannel string            `firestore:"delivery_channel"`
	DeliveryStatus  string            `firestore:"delivery_status"`
	CreatedAt       time.Time         `firestore:"created_at"`
}

type recipientDoc struct {
	ID       string `firestore:"id"`
	Name     string `firestore:"name"`
	Party    string `firestore:"party"`
	Chamber  string `firestore:"chamber"`
	Role     string `firestore:"role"`
	State    string `firestore:"state"`
	District *int   `firestore:"district"`
	Email    string `firestore:"email"`
}

func toDoc(a *domain.MessageActivity) activityDoc {
	doc := activityDoc{
		SessionID:       string(a.SessionID),
		Sender:          string(a.Sender),
		UserID:          string(a.UserID),
		Stance:          string(a.Stance),
		Body:            a.Body,
		Recipients:      make([]recipientDoc, 0, len(a.Recipients)),
		DisclosedFields: make(map[string]string, len(a.DisclosedFields)),
		Bill:            a.Bill,
		CampaignID:      a.CampaignID,
		MediaURLs:       a.MediaURLs,
		DeliveryChannel: string(a.DeliveryChannel),
		DeliveryStatus:  string(a.DeliveryStatus),
		CreatedAt:       a.CreatedAt,
	}
	for _, r := range a.Recipients {
		doc.Recipients = append(doc.Recipients, recipientDoc{
			ID:       string(r.ID),
			Name:     r.Name,
			Party:    r.Party,
			Chamber:  string(r.Chamber),
			Role:     r.Role,
			State:    r.State,
			District: r.District,
			Email:    r.Email,
		})
	}
	for k, v := range a.DisclosedFields {
		doc.DisclosedFields[string(k)] = v
	}
	return doc
}

func fromDoc(id string, doc activityDoc) *domain.MessageActivity {
	a := &domain.MessageActivity{
		ID:              domain.ActivityID(id),
		SessionID:       domain.SessionID(doc.SessionID),
		Sender:          domain.SenderClass(doc.Sender),
		UserID:          domain.UserID(doc.UserID),
		Stance:          domain.Stance(doc.Stance),
		Body:            doc.Body,
		Recipients:      make([]domain.Recipient, 0, len(doc.Recipients)),
		DisclosedFields: make(map[domain.FieldKey]string, len(doc.DisclosedFields)),
		Bill:            doc.Bill,
		CampaignID:      doc.CampaignID,
		MediaURLs:       doc.MediaURLs,
		DeliveryChannel: domain.DeliveryChannel(doc.DeliveryChannel),
		DeliveryStatus:  domain.DeliveryStatus(doc.DeliveryStatus),
		CreatedAt:       doc.CreatedAt,
	}
	for _, r := range doc.Recipients {
		a.Recipients = append(a.Recipients, domain.Recipient{
			ID:       domain.RecipientID(r.ID),
			Name:     r.Name,
			Party:    r.Party,
			Chamber:  domain.Chamber(r.Chamber),
			Role:     r.Role,
			State:    r.State,
			District: r.District,
			Email:    r.Email,
		})
	}
	for k, v := range doc.DisclosedFields {
		a.DisclosedFields[domain.FieldKey(k)] = v
	}
	return a
}

// ─────────────────────────────────────────
// ActivityStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveActivity(ctx context.Context, a *domain.MessageActivity) (domain.ActivityID, error) {
	if a == nil || a.ID == "" {
		return "", fmt.Errorf("%w: activity id is required", domain.ErrValidation)
	}

	_, err := s.activityDoc(a.ID).Create(ctx, toDoc(a))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return "", fmt.Errorf("%w: activity %s already exists", domain.ErrConflict, a.ID)
		}
		return "", fmt.Errorf("firestore SaveActivity: %w", err)
	}
	return a.ID, nil
}

// LinkActivityToUser sets the owner of a guest activity. Linking to the
// current owner again is a no-op.
func (s *Store) LinkActivityToUser(ctx context.Context, id domain.ActivityID, userID domain.UserID) error {
	ref := s.activityDoc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		owner, err := snap.DataAt("user_id")
		if err != nil {
			owner = ""
		}
		switch owner {
		case string(userID):
			return nil
		case "", nil:
		default:
			return fmt.Errorf("%w: activity %s belongs to another user", domain.ErrConflict, id)
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "user_id", Value: string(userID)},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("activity %s: %w", id, domain.ErrNotFound)
		}
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return fmt.Errorf("firestore LinkActivityToUser: %w", err)
	}
	return nil
}

func (s *Store) ListActivitiesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MessageActivity, error) {
	q := s.activitiesCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.MessageActivity{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListActivitiesByUser: %w", err)
		}

		var doc activityDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode activityDoc: %w", err)
		}
		out = append(out, fromDoc(snap.Ref.ID, doc))
	}
	return out, nil
}
