package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/domains/apikey/model"
)

// UsageRecorder dispatches last-used bookkeeping off the request path.
type UsageRecorder interface {
	Record(ctx context.Context, keyID uuid.UUID, at time.Time)
}

// Toucher persists a usage timestamp.
type Toucher interface {
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type NopRecorder struct{}

func (NopRecorder) Record(context.Context, uuid.UUID, time.Time) {}

// =====================================================
// GOROUTINE RECORDER
// =====================================================

// AsyncRecorder writes in a goroutine with its own deadline.
type AsyncRecorder struct {
	toucher Toucher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncRecorder(toucher Toucher, timeout time.Duration) *AsyncRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncRecorder{toucher: toucher, timeout: timeout}
}

func (r *AsyncRecorder) Record(_ context.Context, keyID uuid.UUID, at time.Time) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.toucher.TouchLastUsed(ctx, keyID, at); err != nil {
			log.Warn().Err(err).Str("key_id", keyID.String()).Msg("Failed to record api key usage")
		}
	}()
}

// Wait blocks until in-flight writes finish.
func (r *AsyncRecorder) Wait() {
	r.wg.Wait()
}

// =====================================================
// QUEUE RECORDER
// =====================================================

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueRecorder hands usage to the worker as an asynq task.
type QueueRecorder struct {
	client Enqueuer
}

func NewQueueRecorder(client Enqueuer) *QueueRecorder {
	return &QueueRecorder{client: client}
}

func (r *QueueRecorder) Record(ctx context.Context, keyID uuid.UUID, at time.Time) {
	data, err := json.Marshal(model.TouchLastUsedPayload{KeyID: keyID, UsedAt: at})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal api key usage payload")
		return
	}
	task := asynq.NewTask(model.TypeTouchLastUsed, data)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	_, err = r.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(model.QueueName),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Second),
	)
	if err != nil {
		log.Warn().Err(err).Str("key_id", keyID.String()).Msg("Failed to enqueue api key usage")
	}
}
