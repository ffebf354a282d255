package lock

import (
	"context"
	"errors"
	"time"

	"training_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds a SET NX PX lease per key. The lease expires after TTL so
// a crashed holder cannot block the key forever.
type RedisLocker struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		Client: client,
		Prefix: "lock:",
		TTL:    ttl,
		Retry:  25 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.Prefix + key
	token := uuid.New().String()

	ticker := time.NewTicker(l.Retry)
	defer ticker.Stop()
	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(ErrNotAcquired, ctxErr)
			}
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	return l.unlocker(redisKey, token), nil
}

// unlocker 释放失败只记录日志，租约到期后锁会自动失效
func (l *RedisLocker) unlocker(redisKey, token string) func() {
	return func() {
		// 使用独立的 context，请求取消后仍需释放锁
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		deleted, err := releaseScript.Run(releaseCtx, l.Client, []string{redisKey}, token).Int64()
		switch {
		case err != nil:
			logger.Log.Warn("Failed to release redis lock",
				zap.String("key", redisKey),
				zap.Duration("ttl", l.TTL),
				zap.Error(err))
		case deleted == 0:
			logger.Log.Warn("Redis lock lease expired before release", zap.String("key", redisKey))
		}
	}
}
