//go:build integration

package fixture_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	apikeyModel "sizechart-backend/internal/domains/apikey/model"
	apikeyRepo "sizechart-backend/internal/domains/apikey/repository"
	"sizechart-backend/internal/domains/catalog/fixture"
	"sizechart-backend/internal/domains/catalog/model"
	catalogRepo "sizechart-backend/internal/domains/catalog/repository"
	"sizechart-backend/internal/infrastructure/database"
)

// testContext returns a context cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sizecharts"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.ApplySchema(ctx, pool))
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool) fixture.Stats {
	t.Helper()
	f, err := os.Open("testdata/catalog.yaml")
	require.NoError(t, err)
	defer f.Close()

	c, err := fixture.Load(f)
	require.NoError(t, err)
	stats, err := fixture.NewSeeder(pool).Seed(testContext(t), c)
	require.NoError(t, err)
	return stats
}

func TestSeedAndReadCatalog(t *testing.T) {
	pool := startPostgres(t)
	ctx := testContext(t)

	stats := seed(t, pool)
	assert.Equal(t, 2, stats.Charts)
	assert.Equal(t, 3, stats.Subcategories)

	// Re-seeding replaces chart contents instead of duplicating them.
	again := seed(t, pool)
	assert.Equal(t, stats, again)

	repo := catalogRepo.NewPostgresRepository(pool)

	tree, err := repo.ListCategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "tops", tree[0].Slug)
	assert.Equal(t, 1, tree[0].Subcategories[0].PublishedChartCount)
	assert.Equal(t, 0, tree[1].Subcategories[0].PublishedChartCount, "draft charts are not counted")

	chart, err := repo.FindPublishedChartInSubcategory(ctx, "tops", "t-shirts", "classic-tee")
	require.NoError(t, err)
	require.Len(t, chart.Columns, 4)
	require.Len(t, chart.Rows, 3)
	assert.Equal(t, "Size", chart.Columns[0].Name)
	assert.Equal(t, model.LabelCell{Key: "s", Value: "S", Type: model.LabelSize}, chart.Rows[0].Cells[0].Value)
	assert.Equal(t, model.RangeCell{MinInches: 34, MaxInches: 36}, chart.Rows[0].Cells[1].Value)
	assert.Equal(t, model.SingleCell{Inches: 28}, chart.Rows[1].Cells[2].Value)
	assert.Equal(t, model.EmptyCell{}, chart.Rows[1].Cells[3].Value)
	require.Len(t, chart.Subcategories, 2)
	assert.Equal(t, "t-shirts", chart.Subcategories[0].Slug)

	_, err = repo.FindPublishedChartInSubcategory(ctx, "bottoms", "t-shirts", "classic-tee")
	assert.ErrorIs(t, err, model.ErrChartNotFound)

	_, err = repo.FindPublishedChartBySlug(ctx, "slim-jean")
	assert.ErrorIs(t, err, model.ErrChartNotFound, "unpublished charts are invisible")

	size := model.LabelSize
	labels, err := repo.ListLabels(ctx, &size)
	require.NoError(t, err)
	assert.Len(t, labels, 3)

	instr, err := repo.ListChartInstructions(ctx, chart.ID)
	require.NoError(t, err)
	require.Len(t, instr, 1)
	assert.Equal(t, "chest", instr[0].Key)
}

func TestAPIKeyRepository(t *testing.T) {
	pool := startPostgres(t)
	ctx := testContext(t)
	repo := apikeyRepo.NewPostgresRepository(pool)

	raw, err := apikeyModel.GenerateKey()
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour).UTC()
	key := &apikeyModel.APIKey{
		ID:        uuid.New(),
		Name:      "shop",
		KeyHash:   apikeyModel.HashKey(raw),
		KeyPrefix: apikeyModel.DisplayPrefix(raw),
		Scopes:    []apikeyModel.Scope{apikeyModel.ScopeReadSizeCharts, apikeyModel.ScopeReadLabels},
		IsActive:  true,
		ExpiresAt: &past,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, key))

	got, err := repo.GetByHash(ctx, key.KeyHash)
	require.NoError(t, err)
	assert.Equal(t, key.Scopes, got.Scopes)

	now := time.Now().UTC()
	require.NoError(t, repo.TouchLastUsed(ctx, key.ID, now))

	n, err := repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = repo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.LastUsedAt)

	require.NoError(t, repo.Delete(ctx, key.ID))
	_, err = repo.GetByID(ctx, key.ID)
	assert.ErrorIs(t, err, apikeyModel.ErrKeyNotFound)
}
