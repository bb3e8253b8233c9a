package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/plannerd/taskplanner/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure creates the user row if it does not exist yet. Existing preferences
// are left untouched. Users are created lazily on first interaction.
func (r *UserRepository) Ensure(ctx context.Context, userID int64, defaultTZ string, defaultRemindMin int) error {
	query := `
		INSERT INTO users (id, timezone, default_remind_min)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, defaultTZ, defaultRemindMin); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, timezone, default_remind_min, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Timezone,
		&user.DefaultRemindMin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// SetTimezone updates the user's preferred IANA timezone
func (r *UserRepository) SetTimezone(ctx context.Context, userID int64, tz string) error {
	query := `UPDATE users SET timezone = $1, updated_at = now() WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, tz, userID); err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}

	return nil
}

// SetDefaultRemind updates the user's default reminder lead time in minutes
func (r *UserRepository) SetDefaultRemind(ctx context.Context, userID int64, minutes int) error {
	query := `UPDATE users SET default_remind_min = $1, updated_at = now() WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, minutes, userID); err != nil {
		return fmt.Errorf("failed to set default reminder: %w", err)
	}

	return nil
}
