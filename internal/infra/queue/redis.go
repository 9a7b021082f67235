package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

// RedisUpdateQueue реализует очередь апдейтов на базе Redis lists.
type RedisUpdateQueue struct {
	client *redis.Client
	key    string
}

// NewRedisUpdateQueue создаёт очередь по указанному ключу.
func NewRedisUpdateQueue(client *redis.Client, key string) *RedisUpdateQueue {
	return &RedisUpdateQueue{client: client, key: key}
}

// Enqueue публикует апдейт в очередь.
func (q *RedisUpdateQueue) Enqueue(ctx context.Context, job domain.UpdateJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает апдейт из очереди.
func (q *RedisUpdateQueue) Pop(ctx context.Context) (domain.UpdateJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.UpdateJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.UpdateJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.UpdateJob{}, err
		}
		if len(res) != 2 {
			return domain.UpdateJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.UpdateJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.UpdateJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
