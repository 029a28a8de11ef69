package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/domains/apikey/model"
	"sizechart-backend/internal/domains/apikey/service"
)

// TouchLastUsedHandler persists usage timestamps enqueued by the API.
type TouchLastUsedHandler struct {
	toucher service.Toucher
}

func NewTouchLastUsedHandler(toucher service.Toucher) *TouchLastUsedHandler {
	return &TouchLastUsedHandler{toucher: toucher}
}

func (h *TouchLastUsedHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload model.TouchLastUsedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// a bad payload will never succeed
		return fmt.Errorf("unmarshal touch payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.KeyID == uuid.Nil || payload.UsedAt.IsZero() {
		return fmt.Errorf("incomplete touch payload: %w", asynq.SkipRetry)
	}

	if err := h.toucher.TouchLastUsed(ctx, payload.KeyID, payload.UsedAt); err != nil {
		log.Error().Err(err).Str("key_id", payload.KeyID.String()).Msg("Failed to touch api key")
		return err
	}
	return nil
}
