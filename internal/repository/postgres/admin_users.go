package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type adminUserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdminUserRepository creates a new admin user repository
func NewAdminUserRepository(db *sql.DB, logger *zap.Logger) *adminUserRepository {
	return &adminUserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *adminUserRepository) GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	query := `
		SELECT id, username, password_hash, is_active, created_at, updated_at
		FROM admin_users
		WHERE username = $1
	`

	var user domain.AdminUser
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "admin user", ID: username}
	}
	if err != nil {
		r.logger.Error("Failed to get admin user", zap.Error(err))
		return nil, err
	}

	return &user, nil
}

func (r *adminUserRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	query := `
		INSERT INTO admin_users (id, username, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create admin user", zap.Error(err))
		return err
	}

	return nil
}
