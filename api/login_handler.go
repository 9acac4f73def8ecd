package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/auth"
	"github.com/anoixa/clone-gallery/internal/errs"

	"github.com/gin-gonic/gin"
)

// AuthHandler 注册、登录和当前用户
type AuthHandler struct {
	credentials *auth.CredentialService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(credentials *auth.CredentialService) *AuthHandler {
	return &AuthHandler{credentials: credentials}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	// Identifier 邮箱或用户名
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password" binding:"required"`
}

func (r loginRequest) login() string {
	for _, v := range []string{r.Identifier, r.Username, r.Email} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

type loginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register 注册账户
// @Summary      Register
// @Description  Create an account. Admin accounts can only be created by an admin.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      registerRequest  true  "Registration data"
// @Success      201      {object}  common.Response  "User created"
// @Failure      400      {object}  common.Response  "Validation failed"
// @Failure      403      {object}  common.Response  "Role not allowed"
// @Failure      409      {object}  common.Response  "Email or username already exists"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	role := models.RoleVisitor
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			common.RespondAppError(c, errs.Invalid("role", "unknown role"))
			return
		}
		role = parsed
	}
	if !access.CanAssignRole(middleware.GetRequester(c), role) {
		common.RespondAppError(c, errs.ErrForbidden)
		return
	}

	user, err := h.credentials.Register(c.Request.Context(), auth.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, user)
}

// Login 邮箱或用户名登录
// @Summary      Login
// @Description  Exchange credentials for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      loginRequest     true  "Credentials"
// @Success      200      {object}  common.Response  "Login successful"
// @Failure      400      {object}  common.Response  "Invalid request body"
// @Failure      401      {object}  common.Response  "Invalid credentials"
// @Failure      429      {object}  common.Response  "Too many requests"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	identifier := req.login()
	if identifier == "" {
		common.RespondAppError(c, errs.Invalid("identifier", "email or username is required"))
		return
	}

	result, err := h.credentials.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Login successful", loginResponse{
		Token:     result.Token,
		TokenType: "bearer",
		ExpiresAt: result.ExpiresAt.In(time.UTC).Unix(),
		User:      result.User,
	})
}

// Me 当前登录用户
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  common.Response  "Current user"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		common.RespondAppError(c, errs.ErrUnauthenticated)
		return
	}
	common.RespondSuccess(c, user)
}
