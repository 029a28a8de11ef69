package job

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Deactivator switches off expired keys.
type Deactivator interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

type DeactivateExpiredHandler struct {
	svc Deactivator
}

func NewDeactivateExpiredHandler(svc Deactivator) *DeactivateExpiredHandler {
	return &DeactivateExpiredHandler{svc: svc}
}

func (h *DeactivateExpiredHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	n, err := h.svc.DeactivateExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to deactivate expired api keys")
		return err
	}
	log.Info().Int64("deactivated", n).Msg("Expired api keys deactivated")
	return nil
}
