package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/obs"
)

const keyPrefix = "lock:v1:"

// releaseScript deletes the key only if it still carries our token, so an
// expired lock re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a compare-and-delete
// release.
type RedisLocker struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *obs.Metrics
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *obs.Metrics) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return &ledger.ServiceError{Op: "acquire lock " + key, Err: err, Retryable: true}
	}
	if !ok {
		l.metrics.ObserveContention()
		l.logger.Info("lock contention", slog.String("key", key))
		return ErrLockHeld
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn("release lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return fn(lockCtx)
}
