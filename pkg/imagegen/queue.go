package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const promptQueueKey = "images:prompts"

// PromptJob is one queued synthesis request.
type PromptJob struct {
	Prompt   string    `json:"prompt"`
	QueuedAt time.Time `json:"queued_at"`
}

// Queue pushes prompts onto a Redis list consumed by an external image
// worker. Display is fire-and-forget: enqueue failures are logged and
// dropped, never surfaced to the session.
type Queue struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Renderer = (*Queue)(nil)

// NewQueue wraps an existing Redis client.
func NewQueue(client *redis.Client, logger *slog.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

func (q *Queue) Display(promptText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	job := PromptJob{Prompt: promptText, QueuedAt: time.Now().UTC()}
	data, err := json.Marshal(job)
	if err != nil {
		q.logger.Error("Failed to marshal image prompt", "error", err)
		return
	}
	if err := q.client.LPush(ctx, promptQueueKey, string(data)).Err(); err != nil {
		q.logger.Warn("Failed to enqueue image prompt", "error", err)
	}
}

// Dequeue pops the oldest pending prompt, blocking up to timeout.
// Returns nil when the queue stays empty. Used by the image worker.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*PromptJob, error) {
	res, err := q.client.BRPop(ctx, timeout, promptQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue image prompt: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length %d", len(res))
	}
	var job PromptJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image prompt: %w", err)
	}
	return &job, nil
}

// Depth reports the number of pending prompts.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, promptQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read image queue depth: %w", err)
	}
	return n, nil
}
