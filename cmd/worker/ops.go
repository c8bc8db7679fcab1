package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-b2b/jobs"
)

// opsCLI wraps manual management helpers for the job queue.
type opsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func newOpsCLI(redisOpts asynq.RedisClientOpt) *opsCLI {
	return &opsCLI{client: asynq.NewClient(redisOpts), inspector: asynq.NewInspector(redisOpts)}
}

// Close releases underlying resources.
func (c *opsCLI) Close() error {
	var err error
	if closeErr := c.inspector.Close(); closeErr != nil {
		err = closeErr
	}
	if closeErr := c.client.Close(); closeErr != nil {
		err = closeErr
	}
	return err
}

// Trigger enqueues a sweep by task name.
func (c *opsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	switch name {
	case jobs.TaskExpireQuotations, jobs.TaskMarkInvoicesOverdue:
	default:
		return nil, fmt.Errorf("unsupported task %s", name)
	}
	task, err := jobs.NewSweepTask(name)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// queueStats summarises the current queue state.
type queueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the metrics of the default queue.
func (c *opsCLI) InspectQueue() (queueStats, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return queueStats{}, err
	}
	return queueStats{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
	}, nil
}
