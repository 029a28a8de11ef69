package main

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/config"
)

// Config holds the worker's view of the shared configuration.
type Config struct {
	Redis       asynq.RedisClientOpt
	Concurrency int
	SweepCron   string
	HealthAddr  string
}

func loadConfig(app *config.Config) *Config {
	cfg := &Config{
		Redis: asynq.RedisClientOpt{
			Addr:     app.Redis.Host,
			Password: app.Redis.Password,
			DB:       app.Redis.DB,
		},
		Concurrency: app.Queue.Concurrency,
		SweepCron:   app.Queue.ExpirySweepCron,
		HealthAddr:  ":9999",
	}

	log.Info().
		Str("redis", cfg.Redis.Addr).
		Int("concurrency", cfg.Concurrency).
		Str("sweep", cfg.SweepCron).
		Msg("Worker config loaded")
	return cfg
}
