package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"routinetest/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// GetTeacherID 提取教师账号关联的 teacher_id，管理员账号返回空串
func GetTeacherID(c *gin.Context) string {
	return c.GetString("teacher_id")
}

// tokenMeta 当前 Access Token 的 jti 与过期时间（登出时写入黑名单）
func tokenMeta(c *gin.Context) (string, time.Time) {
	return c.GetString("jti"), c.GetTime("token_exp")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}
