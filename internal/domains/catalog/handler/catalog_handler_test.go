package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/internal/domains/catalog/service"
	infracache "sizechart-backend/internal/infrastructure/cache"
	"sizechart-backend/internal/infrastructure/ratelimit"
	"sizechart-backend/internal/shared/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRepo struct {
	charts map[string]*model.SizeChart
}

func (s *stubRepo) ListCategoryTree(ctx context.Context) ([]model.Category, error) {
	return []model.Category{{Slug: "tops", Name: "Tops", Subcategories: []model.Subcategory{
		{Slug: "t-shirts", Name: "T-Shirts", PublishedChartCount: 1},
		{Slug: "tanks", Name: "Tanks"},
	}}}, nil
}

func (s *stubRepo) FindPublishedChartBySlug(ctx context.Context, slug string) (*model.SizeChart, error) {
	c, ok := s.charts[slug]
	if !ok || !c.IsPublished {
		return nil, model.ErrChartNotFound
	}
	return c, nil
}

func (s *stubRepo) FindPublishedChartInSubcategory(ctx context.Context, cat, sub, slug string) (*model.SizeChart, error) {
	return s.FindPublishedChartBySlug(ctx, slug)
}

func (s *stubRepo) ListLabels(ctx context.Context, lt *model.LabelType) ([]model.Label, error) {
	return []model.Label{{Type: model.LabelSize, Key: "m", Value: "M", SortOrder: 1}}, nil
}

func (s *stubRepo) ListChartInstructions(ctx context.Context, id uuid.UUID) ([]model.MeasurementInstruction, error) {
	return []model.MeasurementInstruction{{Key: "chest", Title: "Chest", Body: "Measure"}}, nil
}

func sampleRepo() *stubRepo {
	chest := uuid.New()
	return &stubRepo{charts: map[string]*model.SizeChart{
		"classic-tee": {
			ID:          uuid.New(),
			Slug:        "classic-tee",
			Name:        "Classic Tee",
			IsPublished: true,
			Columns:     []model.Column{{ID: chest, Name: "Chest", Type: model.ColumnMeasurement}},
			Rows: []model.Row{{ID: uuid.New(), Cells: []model.Cell{
				{ColumnID: chest, Value: model.RangeCell{MinInches: 34, MaxInches: 36}},
			}}},
			Subcategories: []model.SubcategoryRef{{Slug: "t-shirts", Name: "T-Shirts", CategorySlug: "tops", CategoryName: "Tops"}},
		},
		"hidden": {Slug: "hidden", IsPublished: false},
	}}
}

func newRouter(limiter *ratelimit.Limiter) *gin.Engine {
	return routes(service.NewService(sampleRepo(), nil, 0), limiter)
}

func routes(svc *service.Service, limiter *ratelimit.Limiter) *gin.Engine {
	h := NewCatalogHandler(svc, svc, limiter, ratelimit.ReadPolicy)

	r := gin.New()
	r.Use(middleware.ClientIP())
	r.GET("/v1/categories", h.ListCategories)
	r.GET("/v1/labels", h.ListLabels)
	r.GET("/v1/usage", h.Usage)
	r.GET("/v1/size-charts/:slug", h.GetChartBySlug)
	r.GET("/v1/size-charts/:slug/instructions", h.GetChartInstructions)
	r.GET("/public/size-charts", h.GetChart)
	r.GET("/admin/tree", h.AdminCategoryTree)
	r.POST("/admin/cache/invalidate", h.InvalidateCache)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	r.ServeHTTP(w, req)
	return w
}

func TestListCategories(t *testing.T) {
	w := get(newRouter(nil), "/v1/categories")
	require.Equal(t, http.StatusOK, w.Code)

	var body []model.CategoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Len(t, body[0].Subcategories, 1)
}

func TestAdminCategoryTree_Envelope(t *testing.T) {
	w := get(newRouter(nil), "/admin/tree")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                     `json:"success"`
		Data    []model.CategoryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data[0].Subcategories, 2)
}

func TestListLabels(t *testing.T) {
	r := newRouter(nil)

	w := get(r, "/v1/labels?type=size")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"size":[{"key":"m","value":"M","sortOrder":1,"description":null}]}`, w.Body.String())

	w = get(r, "/v1/labels?type=colour")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"VALIDATION_ERROR"`)
}

func TestGetChart(t *testing.T) {
	r := newRouter(nil)

	w := get(r, "/public/size-charts?category=tops&subcategory=t-shirts&chart=classic-tee")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "classic-tee", body["slug"])
	assert.Equal(t, map[string]any{"slug": "tops", "name": "Tops"}, body["category"])

	rows := body["rows"].([]any)
	cell := rows[0].(map[string]any)["cells"].([]any)[0].(map[string]any)
	assert.Equal(t, "range", cell["kind"])
	assert.Equal(t, 34.0, cell["minInches"])
}

func TestGetChart_Failures(t *testing.T) {
	r := newRouter(nil)

	w := get(r, "/public/size-charts?category=tops&chart=classic-tee")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(r, "/public/size-charts?category=tops&subcategory=t-shirts&chart=hidden")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "CHART_NOT_FOUND", body["code"])
	assert.Equal(t, "Size chart not found", body["error"])
}

func TestGetChartBySlug(t *testing.T) {
	r := newRouter(nil)

	w := get(r, "/v1/size-charts/classic-tee")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/v1/size-charts/classic-tee?subcategory=jeans")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, "/v1/size-charts/hidden")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, "/v1/size-charts/classic-tee/instructions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"chest"`)
}

func TestUsage(t *testing.T) {
	w := get(newRouter(nil), "/v1/usage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"policy":"read","enabled":false,"limit":100,"remaining":100,"resetAt":null}`, w.Body.String())

	store := ratelimit.NewMemoryStore(time.Hour)
	t.Cleanup(store.Stop)
	limiter := ratelimit.NewLimiter(store)

	r := newRouter(limiter)
	_, err := limiter.Allow(context.Background(), ratelimit.ReadPolicy, "ip:203.0.113.9")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w = get(r, "/v1/usage")
		require.Equal(t, http.StatusOK, w.Code)

		var usage UsageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &usage))
		assert.True(t, usage.Enabled)
		assert.Equal(t, int64(99), usage.Remaining)
		assert.NotNil(t, usage.ResetAt)
	}
}

func TestInvalidateCache_HidesUnpublishedChart(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := sampleRepo()
	r := routes(service.NewService(repo, infracache.NewRedisCache(client, "sc:"), time.Minute), nil)

	w := get(r, "/v1/size-charts/classic-tee")
	require.Equal(t, http.StatusOK, w.Code)

	repo.charts["classic-tee"].IsPublished = false
	w = get(r, "/v1/size-charts/classic-tee")
	assert.Equal(t, http.StatusOK, w.Code, "served from cache until invalidated")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/cache/invalidate", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"invalidated":true`)

	w = get(r, "/v1/size-charts/classic-tee")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
