// Package worker implements background task handling for rate ingestion.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"ratefeed/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NewChunkIngestHandler returns a function to handle chunk ingestion tasks.
func NewChunkIngestHandler(svc service.IngestServiceInterface, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload service.ChunkPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return nil
		}

		rows, err := svc.ProcessChunk(ctx, payload)
		if err != nil {
			logger.Errorw("Task processing failed", "start", payload.Start, "end", payload.End, "error", err)
			return err
		}

		logger.Infow("Task completed", "start", payload.Start, "end", payload.End, "rows", rows)
		return nil
	}
}

// AsynqEnqueuer is responsible for enqueuing chunk tasks to an Asynq queue with
// specific configurations for retries and timeouts.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

var _ service.ChunkEnqueuer = (*AsynqEnqueuer)(nil)

// EnqueueChunk enqueues a chunk ingestion task with the specified payload using Asynq.
func (e *AsynqEnqueuer) EnqueueChunk(ctx context.Context, payload service.ChunkPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(service.TaskTypeIngestChunk, data,
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(e.timeout),
	)

	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

// NewRefreshScheduler creates an Asynq scheduler that periodically enqueues a
// refresh task on the given cron spec. The task carries an empty window, so
// the worker resolves the trailing lookback days at processing time.
func NewRefreshScheduler(redisOpt asynq.RedisClientOpt, cronSpec string, maxRetry int, timeout time.Duration) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	task := asynq.NewTask(service.TaskTypeIngestChunk, []byte("{}"),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
	)
	if _, err := scheduler.Register(cronSpec, task); err != nil {
		return nil, err
	}

	return scheduler, nil
}
