package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"manganime/pkg/models"
)

// ContentRepository handles catalog entry persistence
type ContentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	GetByID(ctx context.Context, id string) (*models.Content, error)
	Search(ctx context.Context, req models.ContentSearchRequest) ([]models.Content, int, error)
	// SetTotalItems records the latest known episode/chapter count.
	SetTotalItems(ctx context.Context, id string, total int) error
	// WatcherIDs returns the users whose watchlist references the content;
	// they are the recipients of new-episode announcements.
	WatcherIDs(ctx context.Context, contentID, contentType string) ([]string, error)
}

type contentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository creates a new PostgreSQL content repository
func NewContentRepository(pool *pgxpool.Pool) ContentRepository {
	return &contentRepository{pool: pool}
}

const contentColumns = `id, type, title, description, cover_url, total_items, created_at, updated_at`

func scanContent(row pgx.Row) (*models.Content, error) {
	c := &models.Content{}
	err := row.Scan(
		&c.ID,
		&c.Type,
		&c.Title,
		&c.Description,
		&c.CoverURL,
		&c.TotalItems,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a catalog entry
func (r *contentRepository) Create(ctx context.Context, content *models.Content) error {
	if content.ID == "" {
		content.ID = newRowID()
	}

	query := `
		INSERT INTO content (id, type, title, description, cover_url, total_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		content.ID,
		content.Type,
		content.Title,
		content.Description,
		content.CoverURL,
		content.TotalItems,
	).Scan(&content.CreatedAt, &content.UpdatedAt)
	if err != nil {
		return r.mapDBError(err, "create_content")
	}
	return nil
}

// GetByID retrieves a catalog entry
func (r *contentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`

	content, err := scanContent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.mapDBError(err, "get_content_by_id")
	}
	return content, nil
}

// Search lists catalog entries with optional title match and type filter
func (r *contentRepository) Search(ctx context.Context, req models.ContentSearchRequest) ([]models.Content, int, error) {
	req.Normalize()

	where := []string{"TRUE"}
	args := []interface{}{}
	argn := 1

	if q := strings.TrimSpace(req.Query); q != "" {
		where = append(where, fmt.Sprintf("title ILIKE $%d", argn))
		args = append(args, "%"+q+"%")
		argn++
	}
	if req.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", argn))
		args = append(args, req.Type)
		argn++
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM content WHERE ` + cond
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, r.mapDBError(err, "count_content")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM content
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d
	`, contentColumns, cond, argn, argn+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, r.mapDBError(err, "search_content")
	}
	defer rows.Close()

	var out []models.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, 0, r.mapDBError(err, "scan_content")
		}
		out = append(out, *content)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.mapDBError(err, "search_content")
	}
	return out, total, nil
}

// SetTotalItems updates the episode/chapter count
func (r *contentRepository) SetTotalItems(ctx context.Context, id string, total int) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE content SET total_items = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, total,
	)
	if err != nil {
		return r.mapDBError(err, "set_total_items")
	}
	if result.RowsAffected() == 0 {
		return r.mapDBError(pgx.ErrNoRows, "set_total_items")
	}
	return nil
}

// WatcherIDs lists users tracking the content in their library
func (r *contentRepository) WatcherIDs(ctx context.Context, contentID, contentType string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM watchlist WHERE content_id = $1 AND content_type = $2`,
		contentID, contentType,
	)
	if err != nil {
		return nil, r.mapDBError(err, "list_watchers")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapDBError(err, "scan_watcher")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "list_watchers")
	}
	return ids, nil
}

// mapDBError maps database errors to application errors
func (r *contentRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrContentNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514": // check_violation
			return fmt.Errorf("%s: %w", operation, models.ErrInvalidInput)
		case "22001": // string_data_right_truncation
			return fmt.Errorf("content title too long: %w", err)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
