package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoTask is returned when a claim times out without yielding a task.
var ErrNoTask = errors.New("no task available")

// RedisTaskQueue is the dispatch transport between the submit front door and
// the grading worker. Envelopes sit on a pending list and move to a
// processing list while claimed, so a crashed dispatcher never loses them.
type RedisTaskQueue struct {
	client        redis.UniversalClient
	queueKey      string
	processingKey string
}

// NewRedisTaskQueue creates a task queue over the given redis client.
func NewRedisTaskQueue(client redis.UniversalClient, queueKey, processingKey string) *RedisTaskQueue {
	return &RedisTaskQueue{
		client:        client,
		queueKey:      queueKey,
		processingKey: processingKey,
	}
}

// Enqueue pushes a task envelope onto the pending list.
func (q *RedisTaskQueue) Enqueue(ctx context.Context, envelope []byte) error {
	if err := q.client.LPush(ctx, q.queueKey, envelope).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Claim blocks up to timeout for the next envelope, moving it atomically onto
// the processing list. Returns ErrNoTask when the wait times out.
func (q *RedisTaskQueue) Claim(ctx context.Context, timeout time.Duration) ([]byte, error) {
	envelope, err := q.client.BRPopLPush(ctx, q.queueKey, q.processingKey, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoTask
	}
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return []byte(envelope), nil
}

// Ack removes a claimed envelope from the processing list.
func (q *RedisTaskQueue) Ack(ctx context.Context, envelope []byte) error {
	if err := q.client.LRem(ctx, q.processingKey, 1, envelope).Err(); err != nil {
		return fmt.Errorf("ack task: %w", err)
	}
	return nil
}

// Requeue moves a claimed envelope back onto the pending list for redelivery.
// The replacement may differ from the claimed bytes (attempt counters).
func (q *RedisTaskQueue) Requeue(ctx context.Context, claimed, replacement []byte) error {
	if err := q.client.LRem(ctx, q.processingKey, 1, claimed).Err(); err != nil {
		return fmt.Errorf("remove claimed task: %w", err)
	}
	if err := q.client.LPush(ctx, q.queueKey, replacement).Err(); err != nil {
		return fmt.Errorf("requeue task: %w", err)
	}
	return nil
}

// RequeueStale drains up to max envelopes from the processing list back onto
// the pending list. Called on an interval so envelopes claimed by a crashed
// dispatcher are eventually redelivered.
func (q *RedisTaskQueue) RequeueStale(ctx context.Context, max int) (int, error) {
	moved := 0
	for moved < max {
		err := q.client.RPopLPush(ctx, q.processingKey, q.queueKey).Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, fmt.Errorf("requeue stale task: %w", err)
		}
		moved++
	}
	return moved, nil
}
