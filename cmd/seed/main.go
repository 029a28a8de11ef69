// Command seed loads a catalog fixture into Postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/config"
	"sizechart-backend/internal/domains/catalog/fixture"
	catalogRepo "sizechart-backend/internal/domains/catalog/repository"
	catalogService "sizechart-backend/internal/domains/catalog/service"
	infraCache "sizechart-backend/internal/infrastructure/cache"
	"sizechart-backend/internal/infrastructure/database"
	"sizechart-backend/internal/shared/middleware"
	"sizechart-backend/pkg/jwt"
	"sizechart-backend/pkg/logger"
)

func main() {
	file := flag.String("file", "", "catalog fixture (YAML)")
	applySchema := flag.Bool("schema", false, "apply the embedded schema first")
	adminToken := flag.Bool("admin-token", false, "print an admin access token")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	if err := run(*file, *applySchema, *adminToken); err != nil {
		log.Fatal().Err(err).Msg("Seed failed")
	}
}

func run(file string, applySchema, adminToken bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if adminToken {
		tokens := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
		token, err := tokens.GenerateAccessToken("seed", "admin@localhost", middleware.RoleAdmin)
		if err != nil {
			return fmt.Errorf("mint admin token: %w", err)
		}
		fmt.Println(token)
	}
	if file == "" && !applySchema {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbConfig, err := cfg.LoadDatabaseConfig()
	if err != nil {
		return err
	}
	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return err
	}
	defer db.Close()

	if applySchema {
		if err := database.ApplySchema(ctx, db.Pool); err != nil {
			return err
		}
		log.Info().Msg("Schema applied")
	}
	if file == "" {
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	catalog, err := fixture.Load(f)
	if err != nil {
		return err
	}
	stats, err := fixture.NewSeeder(db.Pool).Seed(ctx, catalog)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d categories, %d subcategories, %d labels, %d instructions, %d charts, %d cells\n",
		stats.Categories, stats.Subcategories, stats.Labels, stats.Instructions, stats.Charts, stats.Cells)

	invalidateCache(ctx, cfg, catalogRepo.NewPostgresRepository(db.Pool))
	return nil
}

// invalidateCache drops cached catalog reads so the API serves the new data.
func invalidateCache(ctx context.Context, cfg *config.Config, repo catalogRepo.Repository) {
	if !cfg.Cache.Enabled {
		return
	}
	redis := infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	defer redis.Close()
	if err := redis.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cached catalog entries expire on their own")
		return
	}

	svc := catalogService.NewService(repo, infraCache.NewRedisCache(redis.Client, cfg.Cache.Prefix), cfg.Cache.TTL)
	if err := svc.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate catalog cache")
	}
}
