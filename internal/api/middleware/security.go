package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// routinePathPrefix 业务接口前缀，/health 与 /metrics 不在其内
const routinePathPrefix = "/RoutineTest/"

// SecurityHeaders 安全响应头
// 业务接口只返回 JSON 与 xlsx/ics 下载：CSP 全部禁止，且名册、答案等数据不允许缓存
// hsts 为 true（HTTPS 部署）时附带 Strict-Transport-Security
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if strings.HasPrefix(c.Request.URL.Path, routinePathPrefix) {
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}

		c.Next()
	}
}
