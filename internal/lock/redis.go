package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "habitu:lock:"
	retryInterval = 50 * time.Millisecond
)

// unlockScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker built on SET NX PX. When Redis is unreachable it fails
// open: the caller proceeds as if the lock was granted.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis Locker. ttl bounds how long a crashed holder
// can block others.
func NewRedis(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, logger: logger}
}

// Lock implements Locker.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := keyPrefix + key
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("redis lock unavailable, proceeding unlocked",
				slog.String("key", key),
				slog.String("error", err.Error()))
			return func() {}, nil
		}
		if ok {
			return func() {
				// release even if the caller's ctx is already done
				if err := unlockScript.Run(context.Background(), r.rdb, []string{k}, token).Err(); err != nil {
					r.logger.Warn("redis unlock failed", slog.String("key", key), slog.String("error", err.Error()))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}
