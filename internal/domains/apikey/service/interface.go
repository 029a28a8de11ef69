package service

import (
	"context"

	"github.com/google/uuid"

	"sizechart-backend/internal/domains/apikey/model"
)

// Authenticator is what the request pipeline needs from the key service.
type Authenticator interface {
	// Validate resolves a raw key. Failures are *shared.AppError values
	// with 401 status and an AUTH_KEY_* code.
	Validate(ctx context.Context, raw string) (*model.APIKey, error)

	// Authorize fails with 403 AUTH_SCOPE_DENIED when key lacks scope.
	Authorize(key *model.APIKey, scope model.Scope) error

	// RecordUsage notes that key was used. It never blocks the caller on
	// storage and never fails.
	RecordUsage(ctx context.Context, key *model.APIKey)
}

// Manager backs the admin API.
type Manager interface {
	Create(ctx context.Context, req model.CreateAPIKeyRequest) (*model.CreateAPIKeyResponse, error)
	List(ctx context.Context) ([]model.APIKeyResponse, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.APIKeyResponse, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}
