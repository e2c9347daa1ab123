package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsAllowHeaders 前端会携带的请求头：JWT、旧版页面的 CSRF Token、追踪 ID
const corsAllowHeaders = "Content-Type, Authorization, X-Requested-With, X-CSRFToken, X-Request-ID"

// corsExposeHeaders 导出下载需要读取文件名
const corsExposeHeaders = "Content-Disposition, X-Request-ID, Retry-After"

// CORS 跨域中间件，仅回显白名单内的 Origin（忽略末尾斜杠）
// 只有带 Access-Control-Request-Method 的 OPTIONS 视为预检并直接返回 204
func CORS(allowOrigins []string) gin.HandlerFunc {
	originsMap := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		originsMap[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		allowed := origin != "" && originsMap[origin]
		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			if allowed {
				c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				c.Header("Access-Control-Max-Age", "86400")
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
