package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

type retailerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRetailerRepository creates a new retailer repository
func NewRetailerRepository(db *sql.DB, logger *zap.Logger) *retailerRepository {
	return &retailerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *retailerRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Retailer, error) {
	// bcrypt hashes are salted, so there is no direct hash lookup. Iterate
	// active retailers and verify the key against each stored hash.
	// For production, consider adding a lookup_hash column (SHA256) for efficient lookup.

	query := `
		SELECT id, name, phone, api_key_hash, webhook_url, is_active, created_at, updated_at
		FROM retailers
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query retailers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var retailer domain.Retailer
		var webhookURL sql.NullString

		err := rows.Scan(
			&retailer.ID,
			&retailer.Name,
			&retailer.Phone,
			&retailer.APIKeyHash,
			&webhookURL,
			&retailer.IsActive,
			&retailer.CreatedAt,
			&retailer.UpdatedAt,
		)

		if err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(retailer.APIKeyHash), []byte(apiKey)); err == nil {
			if webhookURL.Valid {
				retailer.WebhookURL = &webhookURL.String
			}
			return &retailer, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *retailerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Retailer, error) {
	query := `
		SELECT id, name, phone, api_key_hash, webhook_url, is_active, created_at, updated_at
		FROM retailers
		WHERE id = $1
	`

	var retailer domain.Retailer
	var webhookURL sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&retailer.ID,
		&retailer.Name,
		&retailer.Phone,
		&retailer.APIKeyHash,
		&webhookURL,
		&retailer.IsActive,
		&retailer.CreatedAt,
		&retailer.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "retailer", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get retailer by ID", zap.Error(err))
		return nil, err
	}

	if webhookURL.Valid {
		retailer.WebhookURL = &webhookURL.String
	}

	return &retailer, nil
}

func (r *retailerRepository) Create(ctx context.Context, retailer *domain.Retailer) error {
	query := `
		INSERT INTO retailers (id, name, phone, api_key_hash, webhook_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	if retailer.ID == uuid.Nil {
		retailer.ID = uuid.New()
	}
	if retailer.CreatedAt.IsZero() {
		retailer.CreatedAt = now
	}
	if retailer.UpdatedAt.IsZero() {
		retailer.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		retailer.ID,
		retailer.Name,
		retailer.Phone,
		retailer.APIKeyHash,
		retailer.WebhookURL,
		retailer.IsActive,
		retailer.CreatedAt,
		retailer.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create retailer", zap.Error(err))
		return err
	}

	return nil
}

func (r *retailerRepository) Update(ctx context.Context, retailer *domain.Retailer) error {
	query := `
		UPDATE retailers
		SET name = $2, phone = $3, api_key_hash = $4, webhook_url = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`

	retailer.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		retailer.ID,
		retailer.Name,
		retailer.Phone,
		retailer.APIKeyHash,
		retailer.WebhookURL,
		retailer.IsActive,
		retailer.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update retailer", zap.Error(err))
		return err
	}

	return nil
}
