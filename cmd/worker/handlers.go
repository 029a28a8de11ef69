package main

import (
	"github.com/hibiken/asynq"

	"sizechart-backend/internal/domains/apikey/job"
	"sizechart-backend/internal/domains/apikey/model"
	"sizechart-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	touchLastUsed     *job.TouchLastUsedHandler
	deactivateExpired *job.DeactivateExpiredHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		touchLastUsed:     job.NewTouchLastUsedHandler(c.APIKeyRepo),
		deactivateExpired: job.NewDeactivateExpiredHandler(c.APIKeyService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(model.TypeTouchLastUsed, h.touchLastUsed.ProcessTask)
	mux.HandleFunc(model.TypeDeactivateExpired, h.deactivateExpired.ProcessTask)
}
