package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string) *Client {
	return &Client{
		client: asynq.NewClient(redisOpt),
		queue:  queueName,
	}
}

// EnqueueRenderVideo hands a render job to the worker pool. Renders are
// slow; the generous timeout covers script, voice, stock footage and the
// encode itself.
func (c *Client) EnqueueRenderVideo(ctx context.Context, payload RenderVideoPayload) (*asynq.TaskInfo, error) {
	task, err := NewRenderVideoTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(15*time.Minute),
	)
}

func (c *Client) Close() error {
	return c.client.Close()
}
