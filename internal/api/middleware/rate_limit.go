package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"routinetest/pkg/redis"
	"routinetest/pkg/response"
)

// RateLimitKey 提取限流维度
type RateLimitKey func(c *gin.Context) string

// ByClientIP 按来源 IP 限流，用于登录等匿名接口
func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByUser 按登录用户限流（导入导出），须挂在 JWTAuth 之后；未登录时退回来源 IP
func ByUser(c *gin.Context) string {
	if uid := c.GetString("user_id"); uid != "" {
		return "user:" + uid
	}
	return ByClientIP(c)
}

// rateLimitKey 同一维度在不同路由上分别计数
func rateLimitKey(c *gin.Context, keyFn RateLimitKey) string {
	return fmt.Sprintf("routinetest:rate_limit:%s:%s", keyFn(c), c.FullPath())
}

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// limit <= 0 或 rdb 为 nil 时不限流；Redis 出错时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration, keyFn RateLimitKey) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int((window + time.Second - 1) / time.Second))

	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), rateLimitKey(c, keyFn), limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", retryAfter)
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
