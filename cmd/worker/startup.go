package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sizechart-backend/pkg/container"
)

// startServices checks backing services and starts the probe server.
func startServices(c *container.Container, cfg *Config) (*http.Server, error) {
	log.Info().Msg("Size chart worker starting")

	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Redis", c.Redis.HealthCheck},
		{"Postgres", c.DB.HealthCheck},
	}

	for _, check := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := check.fn(ctx)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("check", check.name).Msg("Health check failed")
			return nil, fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Info().Str("check", check.name).Msg("Health check OK")
	}

	srv := &http.Server{Addr: cfg.HealthAddr, Handler: probeRouter(c)}
	go func() {
		log.Info().Str("addr", cfg.HealthAddr).Msg("Health check server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health check server failed")
		}
	}()
	return srv, nil
}

func probeRouter(c *container.Container) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "UP", "service": "sizechart-worker"})
	})
	r.GET("/ready", func(ctx *gin.Context) {
		services := c.HealthCheck(ctx.Request.Context())
		for _, s := range services {
			if s != "ok" {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY", "services": services})
				return
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "READY"})
	})
	return r
}
