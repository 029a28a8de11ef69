package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/config"
	apikeyHandler "sizechart-backend/internal/domains/apikey/handler"
	apikeyRepo "sizechart-backend/internal/domains/apikey/repository"
	apikeyService "sizechart-backend/internal/domains/apikey/service"
	catalogHandler "sizechart-backend/internal/domains/catalog/handler"
	catalogRepo "sizechart-backend/internal/domains/catalog/repository"
	catalogService "sizechart-backend/internal/domains/catalog/service"
	infraCache "sizechart-backend/internal/infrastructure/cache"
	"sizechart-backend/internal/infrastructure/database"
	"sizechart-backend/internal/infrastructure/ratelimit"
	"sizechart-backend/internal/shared/middleware"
	"sizechart-backend/internal/widget"
	"sizechart-backend/pkg/cache"
	"sizechart-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every long-lived dependency of the API process.
// Build order: config, infrastructure, repositories, services, handlers.
type Container struct {
	// Infrastructure
	Config       *config.Config
	DB           *database.PostgresDB
	Redis        *infraCache.RedisClient
	Cache        cache.Cache
	Queue        *asynq.Client
	RateStore    ratelimit.Store
	RateLimiter  *ratelimit.Limiter // nil when rate limiting is disabled
	JWTManager   *jwt.Manager
	usageAsync   *apikeyService.AsyncRecorder
	memoryLimits *ratelimit.MemoryStore

	// Repositories
	CatalogRepo catalogRepo.Repository
	APIKeyRepo  apikeyRepo.Repository

	// Services
	CatalogService *catalogService.Service
	APIKeyService  *apikeyService.Service

	// Middleware
	KeyAuth *middleware.KeyAuth

	// Handlers
	CatalogHandler *catalogHandler.CatalogHandler
	APIKeyHandler  *apikeyHandler.APIKeyHandler
	WidgetHandler  *widget.Handler
}

// ========================================
// CONSTRUCTOR
// ========================================

func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing container")
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("env", cfg.App.Environment).Msg("Config loaded")

	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Msg("Container initialized")
	return c, nil
}

// ========================================
// STEP 1: INFRASTRUCTURE
// ========================================

func (c *Container) initInfrastructure() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbConfig, err := c.Config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}
	c.DB = database.NewPostgresDB(dbConfig)
	if err := c.DB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis only backs the cache and the optional shared rate-limit store,
	// both of which bypass it on failure.
	c.Redis = infraCache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cache and shared rate limits will fail open")
	}
	if c.Config.Cache.Enabled {
		c.Cache = infraCache.NewRedisCache(c.Redis.Client, c.Config.Cache.Prefix)
	}

	if c.Config.Auth.UsageQueue {
		c.Queue = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
	}

	if !c.Config.RateLimit.Disabled {
		switch c.Config.RateLimit.Store {
		case "redis":
			c.RateStore = ratelimit.NewRedisStore(c.Redis.Client, c.Config.RateLimit.Prefix)
		default:
			c.memoryLimits = ratelimit.NewMemoryStore(time.Minute)
			c.RateStore = c.memoryLimits
		}
		c.RateLimiter = ratelimit.NewLimiter(c.RateStore)
		log.Info().Str("store", c.Config.RateLimit.Store).Msg("Rate limiting enabled")
	} else {
		log.Warn().Msg("Rate limiting disabled")
	}

	c.JWTManager = jwt.NewManager(c.Config.JWT.Secret, time.Duration(c.Config.JWT.AccessTokenExpiry)*time.Minute)
	return nil
}

// ========================================
// STEP 2: REPOSITORIES
// ========================================

func (c *Container) initRepositories() {
	c.CatalogRepo = catalogRepo.NewPostgresRepository(c.DB.Pool)
	c.APIKeyRepo = apikeyRepo.NewPostgresRepository(c.DB.Pool)
}

// ========================================
// STEP 3: SERVICES
// ========================================

func (c *Container) initServices() {
	c.CatalogService = catalogService.NewService(c.CatalogRepo, c.Cache, c.Config.Cache.TTL)

	var recorder apikeyService.UsageRecorder
	if c.Queue != nil {
		recorder = apikeyService.NewQueueRecorder(c.Queue)
	} else {
		c.usageAsync = apikeyService.NewAsyncRecorder(c.APIKeyRepo, c.Config.Auth.UsageTimeout)
		recorder = c.usageAsync
	}
	c.APIKeyService = apikeyService.NewService(c.APIKeyRepo, recorder)
}

// ========================================
// STEP 4: HANDLERS
// ========================================

func (c *Container) initHandlers() {
	c.KeyAuth = middleware.NewKeyAuth(c.APIKeyService, c.Config.Auth.Required, c.RateLimiter, c.Config.RateLimit.Auth)

	c.CatalogHandler = catalogHandler.NewCatalogHandler(c.CatalogService, c.CatalogService, c.RateLimiter, c.Config.RateLimit.Read)
	c.APIKeyHandler = apikeyHandler.NewAPIKeyHandler(c.APIKeyService)

	var fetcher widget.ChartFetcher
	if base := c.Config.Widget.APIBaseURL; base != "" {
		fetcher = widget.NewHTTPFetcher(base, &http.Client{Timeout: c.Config.Widget.FetchTimeout})
	} else {
		fetcher = widget.NewServiceFetcher(c.CatalogService, c.APIKeyService, c.Config.Auth.Required)
	}
	renderer := widget.NewRenderer()
	c.WidgetHandler = widget.NewHandler(widget.NewRuntime(fetcher, renderer, c.Config.Widget.FetchTimeout), renderer)
}

// ========================================
// HEALTH & CLEANUP
// ========================================

// HealthCheck reports the state of each backing service.
func (c *Container) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{"database": "ok", "redis": "ok"}
	if err := c.DB.HealthCheck(ctx); err != nil {
		status["database"] = err.Error()
	}
	if err := c.Redis.HealthCheck(ctx); err != nil {
		status["redis"] = err.Error()
	}
	return status
}

// Cleanup releases resources in reverse build order.
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources")

	if c.usageAsync != nil {
		c.usageAsync.Wait()
	}
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}
	if c.memoryLimits != nil {
		c.memoryLimits.Stop()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}

	log.Info().Msg("Container cleanup completed")
}
