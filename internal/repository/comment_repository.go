package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"manganime/pkg/database"
	"manganime/pkg/models"
)

// CommentRepository handles comment row persistence. Ownership checks are
// expressed as mutation filters: an update or delete scoped to the wrong
// user matches zero rows and reports ErrNotFound, never a distinct
// authorization error.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Update(ctx context.Context, id, userID, text string, media models.NullableString) (*models.Comment, error)
	Delete(ctx context.Context, id, userID string) error

	// Read paths for the threaded join: top-level rows newest first, reply
	// rows for a parent set oldest first, and the flat fallback.
	ListTopLevel(ctx context.Context, contentID, contentType string) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentIDs []string) ([]*models.Comment, error)
	ListFlat(ctx context.Context, contentID, contentType string) ([]*models.Comment, error)

	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type commentRepository struct {
	pool *pgxpool.Pool
	caps database.Capabilities
}

// NewCommentRepository creates a new PostgreSQL comment repository. caps is
// the startup capability probe result: against a store whose comments table
// has no parent_comment_id column, no query may name that column.
func NewCommentRepository(pool *pgxpool.Pool, caps database.Capabilities) CommentRepository {
	return &commentRepository{pool: pool, caps: caps}
}

const commentColumns = `id, user_id, content_id, content_type, text, media_url, parent_comment_id, created_at, updated_at`

// commentColumnsFlat substitutes NULL for the threading column so scanComment
// stays uniform against a drifted schema.
const commentColumnsFlat = `id, user_id, content_id, content_type, text, media_url, NULL, created_at, updated_at`

func (r *commentRepository) columns() string {
	if r.caps.ThreadedComments {
		return commentColumns
	}
	return commentColumnsFlat
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ContentID,
		&c.ContentType,
		&c.Text,
		&c.MediaURL,
		&c.ParentCommentID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new comment row
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = newRowID()
	}

	var createdAt interface{}
	if !comment.CreatedAt.IsZero() {
		createdAt = comment.CreatedAt
	}

	var err error
	if r.caps.ThreadedComments {
		query := `
			INSERT INTO comments (id, user_id, content_id, content_type, text, media_url, parent_comment_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, CURRENT_TIMESTAMP), COALESCE($8, CURRENT_TIMESTAMP))
			RETURNING created_at, updated_at
		`
		err = r.pool.QueryRow(ctx, query,
			comment.ID,
			comment.UserID,
			comment.ContentID,
			comment.ContentType,
			comment.Text,
			comment.MediaURL,
			comment.ParentCommentID,
			createdAt,
		).Scan(&comment.CreatedAt, &comment.UpdatedAt)
	} else {
		query := `
			INSERT INTO comments (id, user_id, content_id, content_type, text, media_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, CURRENT_TIMESTAMP), COALESCE($7, CURRENT_TIMESTAMP))
			RETURNING created_at, updated_at
		`
		comment.ParentCommentID = nil
		err = r.pool.QueryRow(ctx, query,
			comment.ID,
			comment.UserID,
			comment.ContentID,
			comment.ContentType,
			comment.Text,
			comment.MediaURL,
			createdAt,
		).Scan(&comment.CreatedAt, &comment.UpdatedAt)
	}
	if err != nil {
		return r.mapDBError(err, "create_comment")
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + r.columns() + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.mapDBError(err, "get_comment_by_id")
	}
	return comment, nil
}

// Update edits a comment's text and media, filtered by the owning user.
// media.Set=false leaves the stored media_url unchanged; media.Set=true with
// a nil value clears it.
func (r *commentRepository) Update(ctx context.Context, id, userID, text string, media models.NullableString) (*models.Comment, error) {
	var row pgx.Row
	if media.Set {
		query := `
			UPDATE comments
			SET text = $3, media_url = $4, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND user_id = $2
			RETURNING ` + r.columns()
		row = r.pool.QueryRow(ctx, query, id, userID, text, media.Value)
	} else {
		query := `
			UPDATE comments
			SET text = $3, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND user_id = $2
			RETURNING ` + r.columns()
		row = r.pool.QueryRow(ctx, query, id, userID, text)
	}

	comment, err := scanComment(row)
	if err != nil {
		return nil, r.mapDBError(err, "update_comment")
	}
	return comment, nil
}

// Delete removes a comment, filtered by the owning user. Replies are left in
// place: deleting a top-level comment orphans its replies rather than
// cascading. Like rows cascade at the schema level.
func (r *commentRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return r.mapDBError(err, "delete_comment")
	}
	if result.RowsAffected() == 0 {
		return r.mapDBError(pgx.ErrNoRows, "delete_comment")
	}
	return nil
}

// ListTopLevel retrieves top-level comments for a subject, newest first
func (r *commentRepository) ListTopLevel(ctx context.Context, contentID, contentType string) ([]*models.Comment, error) {
	if !r.caps.ThreadedComments {
		return nil, fmt.Errorf("list_top_level_comments: threading unsupported by store")
	}
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE content_id = $1 AND content_type = $2 AND parent_comment_id IS NULL
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list_top_level_comments", query, contentID, contentType)
}

// ListReplies retrieves all replies whose parent is in the given set, oldest first
func (r *commentRepository) ListReplies(ctx context.Context, parentIDs []string) ([]*models.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	if !r.caps.ThreadedComments {
		return nil, fmt.Errorf("list_replies: threading unsupported by store")
	}
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE parent_comment_id = ANY($1)
		ORDER BY created_at ASC
	`
	return r.list(ctx, "list_replies", query, parentIDs)
}

// ListFlat retrieves all comments for a subject, newest first, no threading
func (r *commentRepository) ListFlat(ctx context.Context, contentID, contentType string) ([]*models.Comment, error) {
	query := `
		SELECT ` + r.columns() + `
		FROM comments
		WHERE content_id = $1 AND content_type = $2
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list_flat_comments", query, contentID, contentType)
}

func (r *commentRepository) list(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapDBError(err, operation)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, r.mapDBError(err, "scan_comment")
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, operation)
	}
	return comments, nil
}

// WithTransaction executes a function within a database transaction
func (r *commentRepository) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return r.mapDBError(err, "begin_transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// mapDBError maps database errors to application errors
func (r *commentRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("invalid user or parent comment reference: %w", err)
		case "22001": // string_data_right_truncation
			return fmt.Errorf("comment content too long: %w", err)
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", operation, models.ErrDuplicate)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
