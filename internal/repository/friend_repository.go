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

// FriendRepository handles friend relation rows
type FriendRepository interface {
	// CreateRequest inserts a pending row from userID to friendID. A
	// concurrent duplicate reports models.ErrDuplicate.
	CreateRequest(ctx context.Context, userID, friendID string) (*models.Friend, error)
	// Accept flips the pending row addressed to userID. Scoped to the
	// recipient: a wrong caller matches zero rows and reads as not-found.
	Accept(ctx context.Context, userID, requesterID string) (*models.Friend, error)
	Get(ctx context.Context, userID, friendID string) (*models.Friend, error)
	ListByUser(ctx context.Context, userID string, status models.FriendStatus) ([]models.Friend, error)
}

type friendRepository struct {
	pool *pgxpool.Pool
}

// NewFriendRepository creates a new PostgreSQL friend repository
func NewFriendRepository(pool *pgxpool.Pool) FriendRepository {
	return &friendRepository{pool: pool}
}

// CreateRequest inserts a pending friend request
func (r *friendRepository) CreateRequest(ctx context.Context, userID, friendID string) (*models.Friend, error) {
	query := `
		INSERT INTO friends (user_id, friend_id, status, created_at, updated_at)
		VALUES ($1, $2, 'pending', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING user_id, friend_id, status, created_at, updated_at
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID, friendID), "create_friend_request")
}

// Accept confirms a pending request addressed to userID
func (r *friendRepository) Accept(ctx context.Context, userID, requesterID string) (*models.Friend, error) {
	query := `
		UPDATE friends
		SET status = 'accepted', updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND friend_id = $2 AND status = 'pending'
		RETURNING user_id, friend_id, status, created_at, updated_at
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, requesterID, userID), "accept_friend_request")
}

// Get retrieves one relation row in either direction
func (r *friendRepository) Get(ctx context.Context, userID, friendID string) (*models.Friend, error) {
	query := `
		SELECT user_id, friend_id, status, created_at, updated_at
		FROM friends
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID, friendID), "get_friend")
}

// ListByUser retrieves relations involving the user with the given status.
// Pending relations are returned only when addressed to the user.
func (r *friendRepository) ListByUser(ctx context.Context, userID string, status models.FriendStatus) ([]models.Friend, error) {
	var query string
	if status == models.FriendPending {
		query = `
			SELECT user_id, friend_id, status, created_at, updated_at
			FROM friends
			WHERE friend_id = $1 AND status = 'pending'
			ORDER BY created_at DESC
		`
	} else {
		query = `
			SELECT user_id, friend_id, status, created_at, updated_at
			FROM friends
			WHERE (user_id = $1 OR friend_id = $1) AND status = 'accepted'
			ORDER BY updated_at DESC
		`
	}

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapDBError(err, "list_friends")
	}
	defer rows.Close()

	var out []models.Friend
	for rows.Next() {
		var f models.Friend
		var statusStr string
		if err := rows.Scan(&f.UserID, &f.FriendID, &statusStr, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, r.mapDBError(err, "scan_friend")
		}
		f.Status = models.FriendStatus(statusStr)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "list_friends")
	}
	return out, nil
}

func (r *friendRepository) scanOne(row pgx.Row, operation string) (*models.Friend, error) {
	var f models.Friend
	var statusStr string
	err := row.Scan(&f.UserID, &f.FriendID, &statusStr, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, r.mapDBError(err, operation)
	}
	f.Status = models.FriendStatus(statusStr)
	return &f, nil
}

// mapDBError maps database errors to application errors
func (r *friendRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", operation, models.ErrDuplicate)
		case "23503": // foreign_key_violation
			return fmt.Errorf("invalid user reference: %w", err)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
