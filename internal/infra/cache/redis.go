package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"nukem-bot/internal/infra/metrics"
)

// RedisCache реализует domain.RateLimiter и domain.Cooldowns через Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedis создаёт кэш. Все ключи получают префикс prefix.
func NewRedis(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Acquire занимает ключ на ttl через SETNX. Если ключ занят, возвращает остаток TTL.
func (c *RedisCache) Acquire(ctx context.Context, key string, ttl time.Duration) (time.Duration, error) {
	key = c.prefix + "cooldown:" + key
	start := time.Now()
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	metrics.ObserveNetworkRequest("redis", "setnx", "cooldown", start, err)
	if err != nil {
		return 0, fmt.Errorf("cooldown setnx: %w", err)
	}
	if ok {
		return 0, nil
	}
	left, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown ttl: %w", err)
	}
	if left <= 0 {
		// ключ без TTL или уже истёк между вызовами
		return time.Millisecond, nil
	}
	return left, nil
}

// allowScript атомарно чистит окно, сравнивает с лимитом и записывает запрос.
// Оценки в миллисекундах: наносекунды не влезают в double Lua без потерь.
var allowScript = redis.NewScript(`
local floor = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', floor)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// Allow реализует скользящее окно на отсортированном множестве одним Lua-скриптом,
// поэтому несколько воркеров не превысят лимит.
func (c *RedisCache) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = c.prefix + "rate:" + key
	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1
	}

	start := time.Now()
	ok, err := allowScript.Run(ctx, c.client, []string{key},
		start.UnixMilli(), windowMs, limit, uuid.NewString()).Int()
	metrics.ObserveNetworkRequest("redis", "eval", "rate_limit", start, err)
	if err != nil {
		return false, fmt.Errorf("rate window: %w", err)
	}
	return ok == 1, nil
}
