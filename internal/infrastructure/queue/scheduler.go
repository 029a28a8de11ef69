package queue

import (
	"time"

	"github.com/hibiken/asynq"

	"sizechart-backend/internal/domains/apikey/model"
	"sizechart-backend/pkg/logger"
)

// Scheduler enqueues periodic maintenance tasks.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redis asynq.RedisClientOpt) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)
	return &Scheduler{scheduler: scheduler}
}

// RegisterAPIKeyJobs schedules the expired-key sweep on cronSpec.
func (s *Scheduler) RegisterAPIKeyJobs(cronSpec string) error {
	task := asynq.NewTask(model.TypeDeactivateExpired, nil)

	_, err := s.scheduler.Register(
		cronSpec,
		task,
		asynq.Queue(model.QueueName),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
		// a sweep that is still queued makes the next one redundant
		asynq.Unique(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register DeactivateExpired job", err)
		return err
	}

	logger.Info("Registered DeactivateExpired", map[string]interface{}{"cron": cronSpec})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
