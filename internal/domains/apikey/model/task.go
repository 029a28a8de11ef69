package model

import (
	"time"

	"github.com/google/uuid"
)

// Task types handled by the worker.
const (
	TypeTouchLastUsed     = "apikey:touch_last_used"
	TypeDeactivateExpired = "apikey:deactivate_expired"

	QueueName = "apikey"
)

type TouchLastUsedPayload struct {
	KeyID  uuid.UUID `json:"keyId"`
	UsedAt time.Time `json:"usedAt"`
}
