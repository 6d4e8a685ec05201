package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// Every notification ends up here with its final delivery status; the retry
// job later picks failed rows back up through ListFailedForRetry.
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Save inserts a notification or updates its delivery status.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (
			id, type, recipient_id, priority, status, title, message,
			retry_count, max_retries, last_error, created_at, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			retry_count = EXCLUDED.retry_count,
			last_error = EXCLUDED.last_error,
			sent_at = EXCLUDED.sent_at
	`

	_, err := r.conn.Exec(ctx, query,
		string(n.ID),
		string(n.Type),
		string(n.RecipientID),
		int(n.Priority),
		string(n.Status),
		n.Title,
		n.Message,
		n.RetryCount,
		n.MaxRetries,
		n.LastError,
		n.CreatedAt,
		n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

const notificationColumns = `id, type, recipient_id, priority, status, title, message,
		   retry_count, max_retries, last_error, created_at, sent_at`

// GetByID returns a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)

	return scanNotification(r.conn.QueryRow(ctx, query, string(id)))
}

// ListByRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID shared.UserID, limit int) ([]*notification.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, notificationColumns)

	return r.queryNotifications(ctx, query, string(userID), limit)
}

// ListPending returns notifications waiting to be sent, oldest first.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`, notificationColumns)

	return r.queryNotifications(ctx, query, limit)
}

// ListFailedForRetry returns failed notifications with retries remaining.
func (r *NotificationRepository) ListFailedForRetry(ctx context.Context, limit int) ([]*notification.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE status = 'failed' AND retry_count < max_retries
		ORDER BY created_at
		LIMIT $1
	`, notificationColumns)

	return r.queryNotifications(ctx, query, limit)
}

// DeleteOlderThan removes notifications created before the given moment.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn.Exec(ctx, `DELETE FROM notifications WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *NotificationRepository) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]*notification.Notification, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n        notification.Notification
		id       string
		ntype    string
		uid      string
		priority int
		status   string
	)

	err := row.Scan(
		&id,
		&ntype,
		&uid,
		&priority,
		&status,
		&n.Title,
		&n.Message,
		&n.RetryCount,
		&n.MaxRetries,
		&n.LastError,
		&n.CreatedAt,
		&n.SentAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	n.ID = notification.NotificationID(id)
	n.Type = notification.NotificationType(ntype)
	n.RecipientID = shared.UserID(uid)
	n.Priority = notification.Priority(priority)
	n.Status = notification.Status(status)

	return &n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCES REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PreferencesRepository implements notification.PreferencesRepository for PostgreSQL.
type PreferencesRepository struct {
	conn *Connection
}

// NewPreferencesRepository creates a new PreferencesRepository.
func NewPreferencesRepository(conn *Connection) *PreferencesRepository {
	return &PreferencesRepository{conn: conn}
}

// Get returns the user's preferences; a missing row yields the defaults.
func (r *PreferencesRepository) Get(ctx context.Context, userID shared.UserID) (*notification.Preferences, error) {
	query := `
		SELECT user_id, email_enabled, progress_enabled, learning_enabled,
			   digest_enabled, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`

	var (
		p   notification.Preferences
		uid string
	)
	err := r.conn.QueryRow(ctx, query, string(userID)).Scan(
		&uid,
		&p.EmailEnabled,
		&p.ProgressEnabled,
		&p.LearningEnabled,
		&p.DigestEnabled,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return notification.DefaultPreferences(userID, time.Now().UTC()), nil
		}
		return nil, fmt.Errorf("failed to scan preferences: %w", err)
	}

	p.UserID = shared.UserID(uid)
	return &p, nil
}

// Save upserts the user's preferences.
func (r *PreferencesRepository) Save(ctx context.Context, p *notification.Preferences) error {
	query := `
		INSERT INTO notification_preferences (
			user_id, email_enabled, progress_enabled, learning_enabled,
			digest_enabled, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			progress_enabled = EXCLUDED.progress_enabled,
			learning_enabled = EXCLUDED.learning_enabled,
			digest_enabled = EXCLUDED.digest_enabled,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		string(p.UserID),
		p.EmailEnabled,
		p.ProgressEnabled,
		p.LearningEnabled,
		p.DigestEnabled,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	return nil
}
