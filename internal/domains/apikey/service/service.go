package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"sizechart-backend/internal/domains/apikey/model"
	"sizechart-backend/internal/domains/apikey/repository"
	"sizechart-backend/internal/shared"
)

type Service struct {
	repo     repository.Repository
	recorder UsageRecorder
	now      func() time.Time
}

func NewService(repo repository.Repository, recorder UsageRecorder) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{repo: repo, recorder: recorder, now: time.Now}
}

// WithClock replaces time.Now, mainly for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// =====================================================
// AUTHENTICATION
// =====================================================

func (s *Service) Validate(ctx context.Context, raw string) (*model.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, model.NewKeyMissingError()
	}
	if !model.WellFormed(raw) {
		return nil, model.NewKeyMalformedError()
	}

	key, err := s.repo.GetByHash(ctx, model.HashKey(raw))
	if err != nil {
		if errors.Is(err, model.ErrKeyNotFound) {
			return nil, model.NewKeyInvalidError()
		}
		return nil, shared.NewInternalError(err)
	}

	if !key.IsActive {
		return nil, model.NewKeyInactiveError()
	}
	if key.IsExpired(s.now()) {
		return nil, model.NewKeyExpiredError()
	}
	return key, nil
}

func (s *Service) Authorize(key *model.APIKey, scope model.Scope) error {
	if key == nil || !key.HasScope(scope) {
		return model.NewScopeDeniedError(scope)
	}
	return nil
}

func (s *Service) RecordUsage(ctx context.Context, key *model.APIKey) {
	if key == nil {
		return
	}
	s.recorder.Record(ctx, key.ID, s.now())
}

// =====================================================
// ADMIN
// =====================================================

func (s *Service) Create(ctx context.Context, req model.CreateAPIKeyRequest) (*model.CreateAPIKeyResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.FromValidation("Invalid API key request", err)
	}

	raw, err := model.GenerateKey()
	if err != nil {
		return nil, shared.NewInternalError(err)
	}

	key := &model.APIKey{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		KeyHash:   model.HashKey(raw),
		KeyPrefix: model.DisplayPrefix(raw),
		Scopes:    dedupeScopes(req.Scopes),
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, shared.NewInternalError(err)
	}

	return &model.CreateAPIKeyResponse{APIKey: model.ToResponse(key), Key: raw}, nil
}

func (s *Service) List(ctx context.Context) ([]model.APIKeyResponse, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	out := make([]model.APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.ToResponse(k))
	}
	return out, nil
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.APIKeyResponse, error) {
	key, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, mapRepoError(err)
	}
	resp := model.ToResponse(key)
	return &resp, nil
}

func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// =====================================================
// MAINTENANCE
// =====================================================

// DeactivateExpired switches off every key whose expiry has passed.
func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, s.now())
}

// TouchLastUsed persists a usage timestamp.
func (s *Service) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.repo.TouchLastUsed(ctx, id, at)
}

// =====================================================
// HELPERS
// =====================================================

func mapRepoError(err error) error {
	if errors.Is(err, model.ErrKeyNotFound) {
		return model.NewKeyNotFoundError()
	}
	return shared.NewInternalError(err)
}

func dedupeScopes(in []model.Scope) []model.Scope {
	seen := make(map[model.Scope]bool, len(in))
	out := make([]model.Scope, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
