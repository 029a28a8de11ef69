package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"sizechart-backend/internal/domains/apikey/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectColumns = `
	id, name, key_hash, key_prefix, scopes,
	is_active, expires_at, last_used_at, created_at
`

func scanKey(row pgx.Row) (*model.APIKey, error) {
	var (
		k      model.APIKey
		scopes []string
	)
	err := row.Scan(
		&k.ID,
		&k.Name,
		&k.KeyHash,
		&k.KeyPrefix,
		pq.Array(&scopes),
		&k.IsActive,
		&k.ExpiresAt,
		&k.LastUsedAt,
		&k.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	k.Scopes = make([]model.Scope, len(scopes))
	for i, s := range scopes {
		k.Scopes[i] = model.Scope(s)
	}
	return &k, nil
}

// =====================================================
// CREATE
// =====================================================

func (r *postgresRepository) Create(ctx context.Context, key *model.APIKey) error {
	query := `
		INSERT INTO api_keys (
			id, name, key_hash, key_prefix, scopes,
			is_active, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		key.ID,
		key.Name,
		key.KeyHash,
		key.KeyPrefix,
		pq.Array(key.ScopeStrings()),
		key.IsActive,
		key.ExpiresAt,
		key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// =====================================================
// READ
// =====================================================

func (r *postgresRepository) GetByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	query := `SELECT ` + selectColumns + ` FROM api_keys WHERE key_hash = $1`

	k, err := scanKey(r.pool.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key by hash: %w", err)
	}
	return k, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.APIKey, error) {
	query := `SELECT ` + selectColumns + ` FROM api_keys WHERE id = $1`

	k, err := scanKey(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return k, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]*model.APIKey, error) {
	query := `SELECT ` + selectColumns + ` FROM api_keys ORDER BY created_at DESC, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*model.APIKey, 0)
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}
	return keys, nil
}

// =====================================================
// UPDATE / DELETE
// =====================================================

func (r *postgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.APIKey, error) {
	query := `UPDATE api_keys SET is_active = $2 WHERE id = $1 RETURNING ` + selectColumns

	k, err := scanKey(r.pool.QueryRow(ctx, query, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to update api key: %w", err)
	}
	return k, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrKeyNotFound
	}
	return nil
}

func (r *postgresRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE api_keys
		SET last_used_at = $2
		WHERE id = $1 AND (last_used_at IS NULL OR last_used_at < $2)
	`
	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE api_keys
		SET is_active = FALSE
		WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1
	`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired api keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
