package cache

import (
	"context"
	"fmt"
	"time"

	"rentsystem/internal/config"
	"rentsystem/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// InitRedis 初始化 Redis 连接
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Fatalf("连接 Redis 失败: %v", err)
	}

	logger.Log.Info("Redis 连接成功")
	return client
}
