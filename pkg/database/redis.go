package database

import (
	"context"
	"fmt"
	"time"

	"training_backend/internal/config"

	"github.com/go-redis/redis/v8"
)

// redisPingTimeout 启动时探测 Redis 的上限，超时后由调用方降级为进程内锁
const redisPingTimeout = 3 * time.Second

func RedisAddr(cfg *config.RedisConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// InitRedis 连接失败时关闭客户端并返回带地址的错误
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	addr := RedisAddr(cfg)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  redisPingTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}
