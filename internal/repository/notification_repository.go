package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"manganime/pkg/models"
)

// NotificationRepository handles notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	// MarkRead moves is_read forward only; marking an already-read row is a
	// no-op, not an error.
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

// Create inserts a notification record
func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = newRowID()
	}

	query := `
		INSERT INTO notifications (id, user_id, type, sender_user_id, content_id, comment_id, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, CURRENT_TIMESTAMP)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		notification.ID,
		notification.UserID,
		string(notification.Type),
		notification.SenderUserID,
		notification.ContentID,
		notification.CommentID,
		notification.Message,
	).Scan(&notification.CreatedAt)
	if err != nil {
		return r.mapDBError(err, "create_notification")
	}
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, user_id, type, sender_user_id, content_id, comment_id, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, r.mapDBError(err, "list_notifications")
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var typeStr string
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&typeStr,
			&n.SenderUserID,
			&n.ContentID,
			&n.CommentID,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, r.mapDBError(err, "scan_notification")
		}
		n.Type = models.NotificationType(typeStr)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "list_notifications")
	}
	return out, nil
}

// MarkRead marks one notification read, scoped to its recipient
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return r.mapDBError(err, "mark_notification_read")
	}
	if result.RowsAffected() == 0 {
		return r.mapDBError(pgx.ErrNoRows, "mark_notification_read")
	}
	return nil
}

// MarkAllRead marks every unread notification for the user
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		return r.mapDBError(err, "mark_all_notifications_read")
	}
	return nil
}

// CountUnread counts unread notifications for the user
func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, r.mapDBError(err, "count_unread_notifications")
	}
	return count, nil
}

// mapDBError maps database errors to application errors
func (r *notificationRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("invalid recipient reference: %w", err)
		case "23514": // check_violation
			return fmt.Errorf("%s: %w", operation, models.ErrInvalidInput)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
