package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"routinetest/config"
	"routinetest/pkg/response"
)

const (
	csrfCookieName = "csrftoken"
	csrfFieldName  = "csrfmiddlewaretoken"
	csrfHeaderName = "X-CSRFToken"
)

// CSRF 基于 gorilla/csrf 的跨站请求伪造防护
// 安全方法（GET/HEAD/OPTIONS/TRACE）只下发 Token，其余方法校验 Header 或表单字段
func CSRF(cfg *config.CSRFConfig) gin.HandlerFunc {
	protect := csrf.Protect(
		[]byte(cfg.AuthKey),
		csrf.CookieName(csrfCookieName),
		csrf.FieldName(csrfFieldName),
		csrf.RequestHeader(csrfHeaderName),
		csrf.Secure(cfg.Secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(c *gin.Context) {
		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			// gorilla/csrf 把 Token 放在新的 request context 中
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
		}
	}
}

// CSRFToken GET /RoutineTest/api/csrf/
// 返回当前会话的 CSRF Token，同时通过 Cookie 下发
func CSRFToken(c *gin.Context) {
	response.OK(c, gin.H{
		"csrf_token":  csrf.Token(c.Request),
		"header_name": csrfHeaderName,
		"field_name":  csrfFieldName,
	})
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	resp := response.Response{Code: 10006, Message: "CSRF 校验失败"}
	if reason := csrf.FailureReason(r); reason != nil {
		resp.Details = reason.Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(resp)
}
