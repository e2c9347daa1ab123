package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"routinetest/config"
	pkgerrors "routinetest/pkg/errors"
)

// Client Redis 客户端封装
// 用于 Token 黑名单、登录限流与课程目录缓存
type Client struct {
	rdb    goredis.UniversalClient
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromUniversal 基于已有连接构造（测试与 CLI 使用）
func NewFromUniversal(rdb goredis.UniversalClient, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── Token 黑名单 ──

const blacklistPrefix = "routinetest:token:blacklist:"

// BlacklistKey 黑名单键
func BlacklistKey(jti string) string {
	return blacklistPrefix + jti
}

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 滑动窗口限流 ──

// CheckRateLimit 基于 ZSET 的滑动窗口计数
// 返回 true 表示本次请求允许通过
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	// 同一纳秒内的并发请求也须各占一个成员
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(limit), nil
}

// ── 通用缓存 ──

const cachePrefix = "routinetest:cache:"

// CacheKey 缓存键
func CacheKey(name string) string {
	return cachePrefix + name
}

// GetCache 读取缓存，未命中返回 ErrCacheMiss
func (c *Client) GetCache(ctx context.Context, name string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, CacheKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, pkgerrors.ErrCacheMiss
		}
		return nil, err
	}
	return b, nil
}

// SetCache 写入缓存
func (c *Client) SetCache(ctx context.Context, name string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, CacheKey(name), value, ttl).Err()
}

// DeleteCache 删除缓存
func (c *Client) DeleteCache(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = CacheKey(n)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
