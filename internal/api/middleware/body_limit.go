package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"routinetest/pkg/response"
)

// BodyLimit 请求体大小限制
// multipart 上传（学生名册 Excel）按 uploadBytes 限制，其余请求按 maxBytes；uploadBytes <= 0 时统一用 maxBytes
// 声明的 Content-Length 已超限时直接拒绝，未声明长度的请求在读取时截断
func BodyLimit(maxBytes, uploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		limit := maxBytes
		if uploadBytes > 0 && strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = uploadBytes
		}
		if c.Request.ContentLength > limit {
			bodyTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		c.Next()

		// Handler 通过 c.Error 上报读取失败且未写响应时补写 413
		if c.IsAborted() || c.Writer.Written() {
			return
		}
		var tooLarge *http.MaxBytesError
		for _, err := range c.Errors {
			if errors.As(err.Err, &tooLarge) {
				bodyTooLarge(c)
				return
			}
		}
	}
}

func bodyTooLarge(c *gin.Context) {
	response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
	c.Abort()
}
