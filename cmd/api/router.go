package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sizechart-backend/internal/config"
	"sizechart-backend/internal/domains/apikey/model"
	apikeyHandler "sizechart-backend/internal/domains/apikey/handler"
	catalogHandler "sizechart-backend/internal/domains/catalog/handler"
	"sizechart-backend/internal/infrastructure/ratelimit"
	"sizechart-backend/internal/shared/middleware"
	"sizechart-backend/internal/widget"
	"sizechart-backend/pkg/container"
	"sizechart-backend/pkg/jwt"
)

// routeDeps is the subset of the container the router needs.
type routeDeps struct {
	Config  *config.Config
	KeyAuth *middleware.KeyAuth
	Limiter *ratelimit.Limiter
	JWT     *jwt.Manager
	Catalog *catalogHandler.CatalogHandler
	APIKeys *apikeyHandler.APIKeyHandler
	Widget  *widget.Handler
	Health  func(ctx context.Context) map[string]string
}

func SetupRouter(c *container.Container) *gin.Engine {
	return newRouter(routeDeps{
		Config:  c.Config,
		KeyAuth: c.KeyAuth,
		Limiter: c.RateLimiter,
		JWT:     c.JWTManager,
		Catalog: c.CatalogHandler,
		APIKeys: c.APIKeyHandler,
		Widget:  c.WidgetHandler,
		Health:  c.HealthCheck,
	})
}

func newRouter(d routeDeps) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(d.Config.CORS.AllowedOrigins),
		middleware.ClientIP(),
	)

	router.GET("/health", healthCheckHandler(d))
	router.GET("/api/v1/health", healthCheckHandler(d))

	setupPublicRoutes(router, d)
	setupWidgetRoutes(router, d)
	setupAdminRoutes(router, d)

	return router
}

// ========================================
// PUBLIC READ API
// ========================================
func setupPublicRoutes(router *gin.Engine, d routeDeps) {
	read := middleware.RateLimit(d.Limiter, d.Config.RateLimit.Read)
	auth := d.KeyAuth

	v1 := router.Group("/v1", auth.Authenticate())
	{
		// Usage reports the read quota without spending it.
		v1.GET("/usage", d.Catalog.Usage)

		limited := v1.Group("", read)
		limited.GET("/categories", auth.RequireScope(model.ScopeReadCategories), d.Catalog.ListCategories)
		limited.GET("/labels", auth.RequireScope(model.ScopeReadLabels), d.Catalog.ListLabels)
		limited.GET("/size-charts/:slug", auth.RequireScope(model.ScopeReadSizeCharts), d.Catalog.GetChartBySlug)
		limited.GET("/size-charts/:slug/instructions", auth.RequireScope(model.ScopeReadInstructions), d.Catalog.GetChartInstructions)
	}

	public := router.Group("/public", auth.Authenticate(), read)
	{
		public.GET("/size-charts", auth.RequireScope(model.ScopeReadSizeCharts), d.Catalog.GetChart)
	}
}

// ========================================
// WIDGET
// ========================================
func setupWidgetRoutes(router *gin.Engine, d routeDeps) {
	router.GET("/widget.js", middleware.PublicAsset(), d.Widget.Script)

	// Keys are checked per mount by the runtime itself.
	w := router.Group("/widget/v1", middleware.RateLimit(d.Limiter, d.Config.RateLimit.Read))
	{
		w.GET("/fragment", d.Widget.Fragment)
		w.POST("/prerender", d.Widget.Prerender)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(router *gin.Engine, d routeDeps) {
	admin := router.Group("/api/v1/admin",
		middleware.AdminAuth(d.JWT),
		middleware.RateLimitWrites(d.Limiter, d.Config.RateLimit.Write),
	)
	{
		keys := admin.Group("/api-keys")
		keys.POST("", d.APIKeys.Create)
		keys.GET("", d.APIKeys.List)
		keys.PATCH("/:id", d.APIKeys.Update)
		keys.DELETE("/:id", d.APIKeys.Delete)

		admin.GET("/categories/tree", d.Catalog.AdminCategoryTree)
		admin.POST("/cache/invalidate", d.Catalog.InvalidateCache)
	}
}

// ========================================
// HEALTH
// ========================================
func healthCheckHandler(d routeDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   d.Config.App.Version,
			"widget":    widget.Version,
		}
		if d.Health != nil {
			services := d.Health(ctx)
			// Redis failures degrade caching only, the API keeps serving.
			if services["database"] != "ok" {
				health["status"] = "degraded"
			}
			health["services"] = services
		}

		status := http.StatusOK
		if health["status"] != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	}
}
