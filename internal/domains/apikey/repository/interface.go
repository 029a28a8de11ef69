package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sizechart-backend/internal/domains/apikey/model"
)

// =====================================================
// API KEY REPOSITORY INTERFACE
// =====================================================

type Repository interface {
	Create(ctx context.Context, key *model.APIKey) error

	// GetByHash looks a key up by its SHA-256 digest.
	GetByHash(ctx context.Context, hash string) (*model.APIKey, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.APIKey, error)

	List(ctx context.Context) ([]*model.APIKey, error)

	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.APIKey, error)

	Delete(ctx context.Context, id uuid.UUID) error

	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// DeactivateExpired disables active keys whose expiry has passed and
	// returns how many were changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
