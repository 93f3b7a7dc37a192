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

// LibraryRepository is the remote, authoritative side of the user library.
// The device cache reconciles against what this store returns.
type LibraryRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.LibraryItem, error)
	// Upsert writes one item. start_date and finish_date keep their first
	// non-null value: the stamps are write-once at the store level too.
	Upsert(ctx context.Context, userID string, item *models.LibraryItem) error
	Delete(ctx context.Context, userID, contentID, contentType string) error
}

type libraryRepository struct {
	pool *pgxpool.Pool
}

// NewLibraryRepository creates a new PostgreSQL library repository
func NewLibraryRepository(pool *pgxpool.Pool) LibraryRepository {
	return &libraryRepository{pool: pool}
}

// ListByUser retrieves the user's whole library
func (r *libraryRepository) ListByUser(ctx context.Context, userID string) ([]models.LibraryItem, error) {
	query := `
		SELECT content_id, content_type, status, progress, total_items, score,
		       start_date, finish_date, last_updated
		FROM watchlist
		WHERE user_id = $1
		ORDER BY last_updated DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapDBError(err, "list_library")
	}
	defer rows.Close()

	var items []models.LibraryItem
	for rows.Next() {
		var item models.LibraryItem
		var status string
		err := rows.Scan(
			&item.ID,
			&item.Type,
			&status,
			&item.Progress,
			&item.TotalItems,
			&item.Score,
			&item.StartDate,
			&item.FinishDate,
			&item.LastUpdated,
		)
		if err != nil {
			return nil, r.mapDBError(err, "scan_library_item")
		}
		item.Status = models.LibraryStatus(status)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "list_library")
	}
	return items, nil
}

// Upsert inserts or updates one library item
func (r *libraryRepository) Upsert(ctx context.Context, userID string, item *models.LibraryItem) error {
	query := `
		INSERT INTO watchlist (user_id, content_id, content_type, status, progress,
		                       total_items, score, start_date, finish_date, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, CURRENT_TIMESTAMP))
		ON CONFLICT (user_id, content_id, content_type) DO UPDATE
		SET status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			total_items = EXCLUDED.total_items,
			score = EXCLUDED.score,
			start_date = COALESCE(watchlist.start_date, EXCLUDED.start_date),
			finish_date = COALESCE(watchlist.finish_date, EXCLUDED.finish_date),
			last_updated = EXCLUDED.last_updated
		RETURNING start_date, finish_date, last_updated
	`

	var lastUpdated interface{}
	if !item.LastUpdated.IsZero() {
		lastUpdated = item.LastUpdated
	}

	err := r.pool.QueryRow(ctx, query,
		userID,
		item.ID,
		item.Type,
		string(item.Status),
		item.Progress,
		item.TotalItems,
		item.Score,
		item.StartDate,
		item.FinishDate,
		lastUpdated,
	).Scan(&item.StartDate, &item.FinishDate, &item.LastUpdated)
	if err != nil {
		return r.mapDBError(err, "upsert_library_item")
	}
	return nil
}

// Delete removes one library item
func (r *libraryRepository) Delete(ctx context.Context, userID, contentID, contentType string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND content_id = $2 AND content_type = $3`,
		userID, contentID, contentType,
	)
	if err != nil {
		return r.mapDBError(err, "delete_library_item")
	}
	if result.RowsAffected() == 0 {
		return r.mapDBError(pgx.ErrNoRows, "delete_library_item")
	}
	return nil
}

// mapDBError maps database errors to application errors
func (r *libraryRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("invalid user reference: %w", err)
		case "23514": // check_violation
			return fmt.Errorf("%s: %w", operation, models.ErrInvalidInput)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
