// Package notification stores per-user in-app notifications and delivery
// preferences.
package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("notification: not found")

type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	IsRead    bool            `json:"is_read"`
	ActionURL *string         `json:"action_url,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
}

type Preferences struct {
	UserID       int64           `json:"user_id"`
	EmailEnabled bool            `json:"email_enabled"`
	SMSEnabled   bool            `json:"sms_enabled"`
	PushEnabled  bool            `json:"push_enabled"`
	Categories   json.RawMessage `json:"categories"`
}

type ListFilter struct {
	UnreadOnly bool
	Category   string
	Page       int
	Limit      int
}

type CreateInput struct {
	UserID    int64
	Title     string
	Message   string
	Type      string
	Category  string
	ActionURL *string
	Metadata  json.RawMessage
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const notificationColumns = `id, user_id, title, message, type, category, is_read, action_url, metadata, created_at, read_at`

func scanNotification(row interface{ Scan(...any) error }) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Category,
		&n.IsRead, &n.ActionURL, &n.Metadata, &n.CreatedAt, &n.ReadAt)
	return n, err
}

func (r *Repository) List(ctx context.Context, userID int64, filter ListFilter) ([]Notification, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	where := ` WHERE user_id = $1`
	args := []any{userID}
	if filter.UnreadOnly {
		where += ` AND is_read = FALSE`
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("notification: count: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications`+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("notification: list: %w", err)
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("notification: scan: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

func (r *Repository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notification: unread count: %w", err)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_read = FALSE`,
		id, userID)
	if err != nil {
		return fmt.Errorf("notification: mark read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either missing or already read. Distinguish for the 404 case.
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`,
			id, userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("notification: check exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// MarkAllRead is idempotent and reports how many rows flipped.
func (r *Repository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND is_read = FALSE`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("notification: mark all read: %w", err)
	}
	return res.RowsAffected()
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (Notification, error) {
	if in.Type == "" {
		in.Type = "info"
	}
	if in.Category == "" {
		in.Category = "general"
	}
	return scanNotification(r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, category, action_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+notificationColumns,
		in.UserID, in.Title, in.Message, in.Type, in.Category, in.ActionURL, in.Metadata))
}

// GetPreferences creates the default row on first read.
func (r *Repository) GetPreferences(ctx context.Context, userID int64) (Preferences, error) {
	var p Preferences
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notification_preferences (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, email_enabled, sms_enabled, push_enabled, categories`,
		userID).Scan(&p.UserID, &p.EmailEnabled, &p.SMSEnabled, &p.PushEnabled, &p.Categories)
	if err != nil {
		return Preferences{}, fmt.Errorf("notification: get preferences: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdatePreferences(ctx context.Context, p Preferences) (Preferences, error) {
	var out Preferences
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notification_preferences (user_id, email_enabled, sms_enabled, push_enabled, categories)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET email_enabled = EXCLUDED.email_enabled,
		    sms_enabled = EXCLUDED.sms_enabled,
		    push_enabled = EXCLUDED.push_enabled,
		    categories = EXCLUDED.categories
		RETURNING user_id, email_enabled, sms_enabled, push_enabled, categories`,
		p.UserID, p.EmailEnabled, p.SMSEnabled, p.PushEnabled, p.Categories).
		Scan(&out.UserID, &out.EmailEnabled, &out.SMSEnabled, &out.PushEnabled, &out.Categories)
	if err != nil {
		return Preferences{}, fmt.Errorf("notification: update preferences: %w", err)
	}
	return out, nil
}
