package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"routinetest/config"
	"routinetest/pkg/jwt"
	"routinetest/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "middleware-secret-0123456789",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 168 * time.Hour,
	})
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %s", w.Body.String())
	}
	return resp
}

// ── JWTAuth / RoleAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	identity := jwt.Identity{UserID: "u1", Role: "teacher", TeacherID: "t1"}
	access, _ := mgr.GenerateAccessToken(identity)
	refresh, _ := mgr.GenerateRefreshToken(identity, false)

	r := gin.New()
	r.GET("/me", JWTAuth(mgr, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetString("user_id"),
			"teacher_id": c.GetString("teacher_id"),
			"jti":        c.GetString("jti"),
			"has_exp":    !c.GetTime("token_exp").IsZero(),
		})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad scheme", "Token " + access, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + refresh, http.StatusUnauthorized},
		{"valid access token", "Bearer " + access, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var got map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &got)
	if got["user_id"] != "u1" || got["teacher_id"] != "t1" {
		t.Errorf("identity not injected: %v", got)
	}
	if got["jti"] == "" || got["has_exp"] != true {
		t.Errorf("token meta not injected: %v", got)
	}
}

func TestRoleAuth(t *testing.T) {
	handler := func(role string) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
			}
			c.Next()
		}, RoleAuth("admin"), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
		return w
	}

	if w := handler("admin"); w.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", w.Code)
	}
	if w := handler("teacher"); w.Code != http.StatusForbidden {
		t.Errorf("teacher: expected 403, got %d", w.Code)
	}
	if w := handler(""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"沿用合法 ID", "abc-123_x.y", true},
		{"缺失时生成", "", false},
		{"过长时重新生成", strings.Repeat("x", requestIDMaxLen+1), false},
		{"含换行时重新生成", "abc\nlevel=error", false},
		{"含空格时重新生成", "abc 123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ping", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got != w.Body.String() {
				t.Errorf("header %q and context %q differ", got, w.Body.String())
			}
			if tt.keep && got != tt.incoming {
				t.Errorf("expected %q to be kept, got %q", tt.incoming, got)
			}
			if !tt.keep && len(got) != 36 {
				t.Errorf("expected generated uuid, got %q", got)
			}
		})
	}
}

// ── CORS ──

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-CSRFToken") {
		t.Errorf("X-CSRFToken should be allowed")
	}

	// 非预检的 OPTIONS 交给路由处理
	req = httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("plain OPTIONS: expected 200 from handler, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Errorf("Content-Disposition should be exposed for downloads")
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Errorf("expected Vary: Origin, got %q", w.Header().Get("Vary"))
	}

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unknown origin must not be echoed")
	}
}

// ── BodyLimit ──

func newBodyLimitRouter(maxBytes, uploadBytes int64) (*gin.Engine, *bool) {
	called := false
	r := gin.New()
	r.Use(BodyLimit(maxBytes, uploadBytes))
	r.POST("/upload", func(c *gin.Context) {
		called = true
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})
	return r, &called
}

func TestBodyLimit_DeclaredLengthRejectedEarly(t *testing.T) {
	r, called := newBodyLimitRouter(16, 0)

	req := httptest.NewRequest("POST", "/upload", bytes.NewBufferString(`{"name":"`+strings.Repeat("a", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if resp := parseBody(t, w); resp.Code != 10005 {
		t.Errorf("expected code 10005, got %d", resp.Code)
	}
	if *called {
		t.Error("handler should not run when Content-Length exceeds the limit")
	}
}

func TestBodyLimit_UndeclaredLengthTruncated(t *testing.T) {
	r, called := newBodyLimitRouter(16, 0)

	req := httptest.NewRequest("POST", "/upload", bytes.NewBufferString(strings.Repeat("a", 64)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if !*called {
		t.Fatal("handler should run when length is unknown")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestBodyLimit_MultipartUsesUploadLimit(t *testing.T) {
	r, _ := newBodyLimitRouter(16, 1024)
	body := strings.Repeat("a", 200)

	req := httptest.NewRequest("POST", "/upload", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("multipart within upload limit: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/upload", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("json over body limit: expected 413, got %d", w.Code)
	}
}

// ── RateLimit ──

func TestRateLimit_NoRedisAllows(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(nil, 1, time.Minute, ByClientIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 without redis, got %d", i, w.Code)
		}
	}
}

func TestRateLimitKey(t *testing.T) {
	r := gin.New()
	var keys []string
	r.GET("/exams/export/", func(c *gin.Context) {
		keys = append(keys, rateLimitKey(c, ByUser))
	})
	r.GET("/students/export/", func(c *gin.Context) {
		c.Set("user_id", "u-1")
		keys = append(keys, rateLimitKey(c, ByUser), rateLimitKey(c, ByClientIP))
	})

	req := httptest.NewRequest("GET", "/exams/export/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)
	req = httptest.NewRequest("GET", "/students/export/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)

	want := []string{
		"routinetest:rate_limit:ip:10.0.0.7:/exams/export/",
		"routinetest:rate_limit:user:u-1:/students/export/",
		"routinetest:rate_limit:ip:10.0.0.7:/students/export/",
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %q, got %q", i, want[i], keys[i])
		}
	}
}

// ── Logger / Recovery ──

func TestRecovery_LogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("exam import exploded") })

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set(requestIDHeader, "rid-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if resp := parseBody(t, w); resp.Code != 50000 {
		t.Errorf("expected code 50000, got %d", resp.Code)
	}
	entries := logs.FilterField(zap.String("request_id", "rid-42")).All()
	if len(entries) != 1 {
		t.Fatalf("expected one panic log with request_id, got %d", len(entries))
	}
}

func TestLogger_RecordsRouteAndUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/exams/:id/", func(c *gin.Context) {
		c.Set("user_id", "u-9")
		c.Set("role", "teacher")
		c.Status(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/exams/e1/", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("4xx should log at warn, got %s", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/exams/:id/" || fields["user_id"] != "u-9" || fields["role"] != "teacher" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

// ── Metrics ──

func TestMetrics_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/exams/:id/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/exams/abc/", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("expected handler status, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unmatched route, got %d", w.Code)
	}
}

// ── CSRF ──

func newCSRFRouter() *gin.Engine {
	r := gin.New()
	r.Use(CSRF(&config.CSRFConfig{
		Enabled: true,
		AuthKey: "0123456789abcdef0123456789abcdef",
	}))
	r.GET("/csrf/", CSRFToken)
	r.POST("/exams/", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestCSRF_RejectsUnsafeWithoutToken(t *testing.T) {
	r := newCSRFRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/exams/", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if resp := parseBody(t, w); resp.Code != 10006 {
		t.Errorf("expected code 10006, got %d", resp.Code)
	}
}

func TestCSRF_TokenRoundTrip(t *testing.T) {
	r := newCSRFRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/csrf/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data struct {
			CSRFToken string `json:"csrf_token"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.CSRFToken == "" {
		t.Fatal("expected csrf_token in response")
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected csrftoken cookie")
	}

	req := httptest.NewRequest("POST", "/exams/", nil)
	req.AddCookie(cookie)
	req.Header.Set(csrfHeaderName, body.Data.CSRFToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201 with valid token, got %d (%s)", w.Code, w.Body.String())
	}
}

// ── SecurityHeaders ──

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(false))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/RoutineTest/api/sessions/calendar.ics", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options missing")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options missing")
	}
	if w.Header().Get("Cache-Control") != "" {
		t.Error("health check must not carry no-store")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must be off for plain HTTP deployments")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/RoutineTest/api/sessions/calendar.ics", nil))
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("business responses must not be cached, got %q", w.Header().Get("Cache-Control"))
	}
	if !strings.HasPrefix(w.Header().Get("Content-Security-Policy"), "default-src 'none'") {
		t.Errorf("unexpected CSP %q", w.Header().Get("Content-Security-Policy"))
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if !strings.HasPrefix(w.Header().Get("Strict-Transport-Security"), "max-age=") {
		t.Error("HSTS expected for secure deployments")
	}
}
