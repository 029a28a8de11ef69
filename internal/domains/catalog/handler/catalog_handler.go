package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/internal/domains/catalog/service"
	"sizechart-backend/internal/infrastructure/ratelimit"
	"sizechart-backend/internal/shared/middleware"
	"sizechart-backend/internal/shared/response"
)

// ============================================================
// HANDLER STRUCT
// ============================================================
type CatalogHandler struct {
	reader     service.Reader
	admin      service.Admin
	limiter    *ratelimit.Limiter
	readPolicy ratelimit.Policy
}

// NewCatalogHandler wires the public and admin catalog endpoints. limiter
// may be nil when rate limiting is disabled.
func NewCatalogHandler(reader service.Reader, admin service.Admin, limiter *ratelimit.Limiter, readPolicy ratelimit.Policy) *CatalogHandler {
	return &CatalogHandler{
		reader:     reader,
		admin:      admin,
		limiter:    limiter,
		readPolicy: readPolicy,
	}
}

// ========== GET /v1/categories ==========
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	tree, err := h.reader.PublicCategories(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree)
}

// ========== GET /v1/labels?type= ==========
func (h *CatalogHandler) ListLabels(c *gin.Context) {
	labels, err := h.reader.Labels(c.Request.Context(), c.Query("type"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labels)
}

// ========== GET /public/size-charts?category=&subcategory=&chart= ==========
func (h *CatalogHandler) GetChart(c *gin.Context) {
	var q model.ChartQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	chart, err := h.reader.ResolveChart(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart)
}

// ========== GET /v1/size-charts/:slug ==========
func (h *CatalogHandler) GetChartBySlug(c *gin.Context) {
	var q model.ChartLookup
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	q.Slug = c.Param("slug")

	chart, err := h.reader.LookupChart(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart)
}

// ========== GET /v1/size-charts/:slug/instructions ==========
func (h *CatalogHandler) GetChartInstructions(c *gin.Context) {
	list, err := h.reader.ChartInstructions(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// UsageResponse reports the caller's read quota.
type UsageResponse struct {
	Policy    string     `json:"policy"`
	Enabled   bool       `json:"enabled"`
	Limit     int64      `json:"limit"`
	Remaining int64      `json:"remaining"`
	ResetAt   *time.Time `json:"resetAt"`
}

// ========== GET /v1/usage ==========
// Reads the quota without counting the request.
func (h *CatalogHandler) Usage(c *gin.Context) {
	usage := UsageResponse{
		Policy:    h.readPolicy.Name,
		Limit:     h.readPolicy.Limit,
		Remaining: h.readPolicy.Limit,
	}
	if h.limiter == nil {
		response.JSON(c, http.StatusOK, usage)
		return
	}

	res, err := h.limiter.Peek(c.Request.Context(), h.readPolicy, middleware.RateLimitIdentifier(c))
	if err != nil {
		log.Warn().Err(err).Msg("Usage lookup failed")
		response.InternalServerError(c)
		return
	}
	reset := res.ResetAt.UTC()
	usage.Enabled = true
	usage.Limit = res.Limit
	usage.Remaining = res.Remaining
	usage.ResetAt = &reset
	response.JSON(c, http.StatusOK, usage)
}

// ========== GET /api/v1/admin/categories/tree ==========
func (h *CatalogHandler) AdminCategoryTree(c *gin.Context) {
	tree, err := h.admin.AdminCategoryTree(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tree)
}

// ========== POST /api/v1/admin/cache/invalidate ==========
// Drops cached public reads after charts are published, unpublished or edited.
func (h *CatalogHandler) InvalidateCache(c *gin.Context) {
	if err := h.admin.Invalidate(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to invalidate catalog cache")
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"invalidated": true})
}
