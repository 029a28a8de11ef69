package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sizechart-backend/internal/domains/apikey/model"
)

type recordingToucher struct {
	id  uuid.UUID
	at  time.Time
	err error
}

func (r *recordingToucher) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.id, r.at = id, at
	return r.err
}

func TestTouchLastUsedHandler(t *testing.T) {
	rt := &recordingToucher{}
	h := NewTouchLastUsedHandler(rt)

	id := uuid.New()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	data, _ := json.Marshal(model.TouchLastUsedPayload{KeyID: id, UsedAt: at})

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(model.TypeTouchLastUsed, data)))
	assert.Equal(t, id, rt.id)
	assert.True(t, at.Equal(rt.at))
}

func TestTouchLastUsedHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := NewTouchLastUsedHandler(&recordingToucher{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(model.TypeTouchLastUsed, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), asynq.NewTask(model.TypeTouchLastUsed, []byte("{}")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTouchLastUsedHandler_StoreErrorRetries(t *testing.T) {
	h := NewTouchLastUsedHandler(&recordingToucher{err: errors.New("db down")})
	data, _ := json.Marshal(model.TouchLastUsedPayload{KeyID: uuid.New(), UsedAt: time.Now()})

	err := h.ProcessTask(context.Background(), asynq.NewTask(model.TypeTouchLastUsed, data))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

type countingDeactivator struct {
	n   int64
	err error
}

func (c countingDeactivator) DeactivateExpired(context.Context) (int64, error) { return c.n, c.err }

func TestDeactivateExpiredHandler(t *testing.T) {
	h := NewDeactivateExpiredHandler(countingDeactivator{n: 3})
	assert.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(model.TypeDeactivateExpired, nil)))

	h = NewDeactivateExpiredHandler(countingDeactivator{err: errors.New("boom")})
	assert.Error(t, h.ProcessTask(context.Background(), asynq.NewTask(model.TypeDeactivateExpired, nil)))
}
