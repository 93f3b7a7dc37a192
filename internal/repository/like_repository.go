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

// LikeRepository handles the comment_likes join rows. A row's existence is
// the like; rows are inserted and deleted, never updated in place.
type LikeRepository interface {
	Exists(ctx context.Context, commentID, userID string) (bool, error)
	// Insert returns models.ErrDuplicate on a concurrent duplicate insert so
	// the caller can treat the race as "already liked".
	Insert(ctx context.Context, commentID, userID string) error
	Delete(ctx context.Context, commentID, userID string) error
	Count(ctx context.Context, commentID string) (int, error)

	// Batched aggregation for the threaded listing join.
	CountByComments(ctx context.Context, commentIDs []string) (map[string]int, error)
	LikedByUser(ctx context.Context, commentIDs []string, userID string) (map[string]bool, error)
}

type likeRepository struct {
	pool *pgxpool.Pool
}

// NewLikeRepository creates a new PostgreSQL like repository
func NewLikeRepository(pool *pgxpool.Pool) LikeRepository {
	return &likeRepository{pool: pool}
}

// Exists checks for an active like row
func (r *likeRepository) Exists(ctx context.Context, commentID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM comment_likes WHERE comment_id = $1 AND user_id = $2)`,
		commentID, userID,
	).Scan(&exists)
	if err != nil {
		return false, r.mapDBError(err, "check_like_exists")
	}
	return exists, nil
}

// Insert adds a like row
func (r *likeRepository) Insert(ctx context.Context, commentID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)`,
		commentID, userID,
	)
	if err != nil {
		return r.mapDBError(err, "insert_like")
	}
	return nil
}

// Delete removes a like row; removing an absent row is not an error
func (r *likeRepository) Delete(ctx context.Context, commentID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`,
		commentID, userID,
	)
	if err != nil {
		return r.mapDBError(err, "delete_like")
	}
	return nil
}

// Count recounts the like rows for one comment
func (r *likeRepository) Count(ctx context.Context, commentID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comment_likes WHERE comment_id = $1`,
		commentID,
	).Scan(&count)
	if err != nil {
		return 0, r.mapDBError(err, "count_likes")
	}
	return count, nil
}

// CountByComments returns like counts for a comment ID set in one query.
// Comments with no likes are absent from the map.
func (r *likeRepository) CountByComments(ctx context.Context, commentIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(commentIDs))
	if len(commentIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT comment_id, COUNT(*)
		FROM comment_likes
		WHERE comment_id = ANY($1)
		GROUP BY comment_id
	`, commentIDs)
	if err != nil {
		return nil, r.mapDBError(err, "count_likes_batch")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, r.mapDBError(err, "scan_like_count")
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "count_likes_batch")
	}
	return counts, nil
}

// LikedByUser returns which of the given comments the user has liked.
func (r *likeRepository) LikedByUser(ctx context.Context, commentIDs []string, userID string) (map[string]bool, error) {
	liked := make(map[string]bool, len(commentIDs))
	if len(commentIDs) == 0 || userID == "" {
		return liked, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT comment_id
		FROM comment_likes
		WHERE comment_id = ANY($1) AND user_id = $2
	`, commentIDs, userID)
	if err != nil {
		return nil, r.mapDBError(err, "list_user_likes")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapDBError(err, "scan_user_like")
		}
		liked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "list_user_likes")
	}
	return liked, nil
}

// mapDBError maps database errors to application errors
func (r *likeRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", operation, models.ErrDuplicate)
		case "23503": // foreign_key_violation
			return fmt.Errorf("invalid comment reference: %w", err)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
