// Package sqlite is a single-file ActivityStore for deployments without
// Firestore.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/PabloGalante/advocate/internal/domain"
)

// Fixed width so created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

//go:embed schema.sql
var schema string

// Store provides a SQLite-backed domain.ActivityStore.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = path
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) SaveActivity(ctx context.Context, a *domain.MessageActivity) (domain.ActivityID, error) {
	if a == nil || strings.TrimSpace(string(a.ID)) == "" {
		return "", fmt.Errorf("%w: activity id is required", domain.ErrValidation)
	}

	recipients, err := json.Marshal(nonNil(a.Recipients))
	if err != nil {
		return "", fmt.Errorf("encode recipients: %w", err)
	}
	fields, err := json.Marshal(a.DisclosedFields)
	if err != nil {
		return "", fmt.Errorf("encode disclosed fields: %w", err)
	}
	media, err := json.Marshal(nonNil(a.MediaURLs))
	if err != nil {
		return "", fmt.Errorf("encode media urls: %w", err)
	}

	var (
		congress sql.NullInt64
		billType sql.NullString
		number   sql.NullString
	)
	if a.Bill != nil {
		congress = sql.NullInt64{Int64: int64(a.Bill.Congress), Valid: true}
		billType = sql.NullString{String: a.Bill.Type, Valid: true}
		number = sql.NullString{String: a.Bill.Number, Valid: true}
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO message_activities (
			id, session_id, sender, user_id, stance, body, recipients,
			disclosed_fields, bill_congress, bill_type, bill_number,
			campaign_id, media_urls, delivery_channel, delivery_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.ID), string(a.SessionID), string(a.Sender), string(a.UserID),
		string(a.Stance), a.Body, string(recipients), string(fields),
		congress, billType, number, a.CampaignID, string(media),
		string(a.DeliveryChannel), string(a.DeliveryStatus),
		createdAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: activity %s already exists", domain.ErrConflict, a.ID)
		}
		return "", fmt.Errorf("insert activity: %w", err)
	}
	return a.ID, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

// LinkActivityToUser sets the owner of a guest activity. Linking to the
// current owner again is a no-op.
func (s *Store) LinkActivityToUser(ctx context.Context, id domain.ActivityID, userID domain.UserID) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE message_activities SET user_id = ? WHERE id = ? AND (user_id = '' OR user_id = ?)`,
		string(userID), string(id), string(userID),
	)
	if err != nil {
		return fmt.Errorf("link activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var owner string
	err = s.sqlDB.QueryRowContext(ctx, `SELECT user_id FROM message_activities WHERE id = ?`, string(id)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("activity %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load activity owner: %w", err)
	}
	return fmt.Errorf("%w: activity %s belongs to another user", domain.ErrConflict, id)
}

func (s *Store) ListActivitiesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MessageActivity, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, session_id, sender, user_id, stance, body, recipients,
		       disclosed_fields, bill_congress, bill_type, bill_number,
		       campaign_id, media_urls, delivery_channel, delivery_status, created_at
		FROM message_activities
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		string(userID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := []*domain.MessageActivity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}

func scanActivity(rows *sql.Rows) (*domain.MessageActivity, error) {
	var (
		a                                domain.MessageActivity
		id, sessionID, sender, userID    string
		stance, channel, status, created string
		recipients, fields, media        string
		congress                         sql.NullInt64
		billType, number                 sql.NullString
	)
	if err := rows.Scan(
		&id, &sessionID, &sender, &userID, &stance, &a.Body, &recipients,
		&fields, &congress, &billType, &number,
		&a.CampaignID, &media, &channel, &status, &created,
	); err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}

	a.ID = domain.ActivityID(id)
	a.SessionID = domain.SessionID(sessionID)
	a.Sender = domain.SenderClass(sender)
	a.UserID = domain.UserID(userID)
	a.Stance = domain.Stance(stance)
	a.DeliveryChannel = domain.DeliveryChannel(channel)
	a.DeliveryStatus = domain.DeliveryStatus(status)

	if err := json.Unmarshal([]byte(recipients), &a.Recipients); err != nil {
		return nil, fmt.Errorf("decode recipients of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(fields), &a.DisclosedFields); err != nil {
		return nil, fmt.Errorf("decode disclosed fields of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(media), &a.MediaURLs); err != nil {
		return nil, fmt.Errorf("decode media urls of %s: %w", id, err)
	}
	if congress.Valid {
		a.Bill = &domain.BillRef{
			Congress: int(congress.Int64),
			Type:     billType.String,
			Number:   number.String,
		}
	}

	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", id, err)
	}
	a.CreatedAt = t
	return &a, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
