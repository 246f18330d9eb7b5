package cache

import (
	"context"
	"fmt"
	"time"

	"recipe-categorizer/internal/infrastructure/config"
	"recipe-categorizer/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// redis 後端的鍵前綴，Clear 時只掃描自己的鍵
const redisKeyPrefix = "categorizer:"

// Redis 以 Redis 為後端的快取
type Redis struct {
	client *redis.Client
	stats  counters
}

// NewRedis 創建 Redis 快取後端
func NewRedis(cfg *config.CacheConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("backend", "redis"),
		zap.String("addr", cfg.RedisAddr),
	)

	return &Redis{client: client}, nil
}

// Get 讀取快取值
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			r.stats.error()
			common.LogWarn("Redis 讀取失敗", zap.Error(err))
		}
		r.stats.miss()
		return "", false
	}
	r.stats.hit()
	return val, true
}

// Set 寫入快取值
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		r.stats.error()
		common.LogWarn("Redis 寫入失敗", zap.Error(err))
		return false
	}
	r.stats.set()
	return true
}

// Delete 刪除快取值
func (r *Redis) Delete(ctx context.Context, key string) bool {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		r.stats.error()
		return false
	}
	r.stats.delete()
	return true
}

// Clear 清空本服務擁有的所有鍵
func (r *Redis) Clear(ctx context.Context) bool {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.stats.error()
			return false
		}
	}
	if err := iter.Err(); err != nil {
		r.stats.error()
		common.LogWarn("Redis 清空失敗", zap.Error(err))
		return false
	}
	return true
}

// Metrics 獲取快取統計信息
func (r *Redis) Metrics() Metrics {
	size, err := r.client.DBSize(context.Background()).Result()
	if err != nil {
		size = 0
	}
	return r.stats.snapshot(int(size))
}

// Close 關閉 Redis 連線
func (r *Redis) Close() error {
	return r.client.Close()
}
