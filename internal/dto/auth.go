package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Username   string `json:"username" binding:"required,max=50"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"` // 非 Cookie 模式时使用
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// CreateUserRequest 创建教职工账号（CLI create-admin 与管理员接口共用）
type CreateUserRequest struct {
	Username  string  `json:"username"   binding:"required,min=3,max=50"`
	Name      string  `json:"name"       binding:"required,max=100"`
	Email     string  `json:"email"      binding:"required,email"`
	Password  string  `json:"password"   binding:"required,min=8,max=64"`
	Role      string  `json:"role"       binding:"required,oneof=admin teacher"`
	TeacherID *string `json:"teacher_id" binding:"omitempty,uuid"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"` // Cookie 模式下可不返回
	ExpiresIn    int          `json:"expires_in"`              // Access Token 有效期（秒）
	RememberMe   bool         `json:"-"`
	User         UserResponse `json:"user"`
}

// UserResponse 账号信息响应（脱敏）
type UserResponse struct {
	ID                 string  `json:"id"`
	Username           string  `json:"username"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Role               string  `json:"role"`
	TeacherID          *string `json:"teacher_id,omitempty"`
	MustChangePassword bool    `json:"must_change_password"`
	CreatedAt          string  `json:"created_at,omitempty"`
}
