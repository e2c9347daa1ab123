package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routinetest/config"
	"routinetest/internal/dto"
	"routinetest/internal/service"
	"routinetest/pkg/jwt"
	"routinetest/pkg/response"
)

const refreshCookieName = "refresh_token"

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc   service.AuthService
	cookieCfg *config.CookieConfig
}

// NewAuthHandler 创建 AuthHandler，cookieCfg 为 nil 时使用非安全 Cookie（开发环境）
func NewAuthHandler(authSvc service.AuthService, cookieCfg *config.CookieConfig) *AuthHandler {
	if cookieCfg == nil {
		cookieCfg = &config.CookieConfig{SameSite: "Lax"}
	}
	return &AuthHandler{authSvc: authSvc, cookieCfg: cookieCfg}
}

// Login 教职工登录
// POST /RoutineTest/api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result)
	response.OK(c, result)
}

// RefreshToken 刷新 Token（Cookie 优先，其次请求体）
// POST /RoutineTest/api/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshCookieName)
	if token == "" {
		var req dto.RefreshTokenRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	if token == "" {
		response.BadRequest(c, 10001, "缺少 refresh_token")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result)
	response.OK(c, result)
}

// Logout 登出：当前 Access Token 加入黑名单
// POST /RoutineTest/api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenMeta(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}
	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// GetCurrentUser 当前登录账号
// GET /RoutineTest/api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.OK(c, user)
}

// ChangePassword 修改密码
// PUT /RoutineTest/api/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.OK(c, nil)
}

// CreateUser 创建教职工账号（管理员）
// POST /RoutineTest/api/admin/users/
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.CreateUser(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.Created(c, user)
}

// ── Cookie ──

func (h *AuthHandler) setRefreshCookie(c *gin.Context, result *dto.TokenResponse) {
	if result == nil || result.RefreshToken == "" {
		return
	}
	maxAge := 0 // 会话 Cookie
	if result.RememberMe {
		maxAge = 7 * 24 * 3600
	}
	c.SetSameSite(sameSiteMode(h.cookieCfg.SameSite))
	c.SetCookie(refreshCookieName, result.RefreshToken, maxAge, "/RoutineTest/api/auth", h.cookieCfg.Domain, h.cookieCfg.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(sameSiteMode(h.cookieCfg.SameSite))
	c.SetCookie(refreshCookieName, "", -1, "/RoutineTest/api/auth", h.cookieCfg.Domain, h.cookieCfg.Secure, true)
}

func sameSiteMode(s string) http.SameSite {
	switch s {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "用户名或密码错误")
	case errors.Is(err, service.ErrUserDisabled):
		response.Forbidden(c, 11002, "账号已停用")
	case errors.Is(err, jwt.ErrTokenExpired):
		response.Unauthorized(c, 11003, "Token 已过期")
	case errors.Is(err, jwt.ErrTokenInvalid), errors.Is(err, service.ErrTokenRevoked):
		response.Unauthorized(c, 11004, "Token 无效或已失效")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, "用户不存在")
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11006, "原密码错误")
	case errors.Is(err, service.ErrSamePassword):
		response.BadRequest(c, 11007, "新密码不能与原密码相同")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 11008, "用户名已存在")
	case errors.Is(err, service.ErrTeacherLinkInvalid):
		response.BadRequest(c, 11009, "教师账号必须关联有效的教师档案")
	default:
		response.InternalError(c)
	}
}
