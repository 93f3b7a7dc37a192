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

// ProfileRepository handles the canonical user records
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	// GetByIDs fetches display snapshots for an ID set in one batched call.
	// Missing IDs are simply absent from the map, never an error.
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, profile *models.Profile) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, username, display_name, avatar_url, is_vip, role, password_hash, created_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	p := &models.Profile{}
	var roleStr string
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.DisplayName,
		&p.AvatarURL,
		&p.IsVIP,
		&roleStr,
		&p.PasswordHash,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = models.UserRole(roleStr)
	return p, nil
}

// Create inserts a new profile
func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = newRowID()
	}

	query := `
		INSERT INTO profiles (id, username, display_name, avatar_url, is_vip, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, CURRENT_TIMESTAMP))
		RETURNING created_at
	`

	var createdAt interface{}
	if !profile.CreatedAt.IsZero() {
		createdAt = profile.CreatedAt
	}

	err := r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.Username,
		profile.DisplayName,
		profile.AvatarURL,
		profile.IsVIP,
		string(profile.Role),
		profile.PasswordHash,
		createdAt,
	).Scan(&profile.CreatedAt)
	if err != nil {
		return r.mapDBError(err, "create_profile")
	}
	return nil
}

// GetByID retrieves a profile by canonical ID
func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.mapDBError(err, "get_profile_by_id")
	}
	return profile, nil
}

// GetByUsername retrieves a profile by username
func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, r.mapDBError(err, "get_profile_by_username")
	}
	return profile, nil
}

// GetByIDs batch-fetches profiles for the given ID set
func (r *profileRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	profiles := make(map[string]models.Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, r.mapDBError(err, "get_profiles_by_ids")
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, r.mapDBError(err, "scan_profile")
		}
		profiles[profile.ID] = *profile
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "get_profiles_by_ids")
	}
	return profiles, nil
}

// UsernameExists checks if a username is already taken
func (r *profileRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, r.mapDBError(err, "check_username_exists")
	}
	return exists, nil
}

// Update updates profile display fields and role
func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET username = $2, display_name = $3, avatar_url = $4, is_vip = $5, role = $6
		WHERE id = $1
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.Username,
		profile.DisplayName,
		profile.AvatarURL,
		profile.IsVIP,
		string(profile.Role),
	).Scan(&profile.CreatedAt)
	if err != nil {
		return r.mapDBError(err, "update_profile")
	}
	return nil
}

// mapDBError maps database errors to application errors
func (r *profileRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrUserNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if operation == "create_profile" {
				return fmt.Errorf("%s: %w", operation, models.ErrUsernameExists)
			}
			return fmt.Errorf("%s: %w", operation, models.ErrDuplicate)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("%s: %w", operation, models.ErrInvalidInput)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}
