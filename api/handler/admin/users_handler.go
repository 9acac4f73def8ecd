package admin

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/auth"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/gin-gonic/gin"
)

type listUsersQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// ListUsers 分页列出用户
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        page   query     int  false  "Page, from 1"
// @Param        limit  query     int  false  "Page size, 1-100"
// @Success      200    {object}  common.Response  "User page"
// @Security     BearerAuth
// @Router       /v1/admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	page, limit, _ := utils.Paginate(q.Page, q.Limit)

	users, total, err := h.credentials.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{
		"items": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// CreateUser 管理员创建任意角色的用户
// @Summary      Create user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      createUserRequest  true  "User"
// @Success      201      {object}  common.Response    "User created"
// @Failure      400      {object}  common.Response    "Validation failed"
// @Failure      409      {object}  common.Response    "Email or username already exists"
// @Security     BearerAuth
// @Router       /v1/admin/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		common.RespondAppError(c, errs.Invalid("role", "unknown role"))
		return
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

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetUserActive 启用或停用账户，停用后该用户的令牌立即失效
// @Summary      Activate or deactivate user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "User ID"
// @Param        request  body      setActiveRequest  true  "Active flag"
// @Success      200      {object}  common.Response   "Updated user"
// @Failure      400      {object}  common.Response   "Invalid request"
// @Failure      404      {object}  common.Response   "User not found"
// @Security     BearerAuth
// @Router       /v1/admin/users/{id}/active [patch]
func (h *Handler) SetUserActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := c.Param("id")
	if requester := middleware.GetRequester(c); requester != nil && requester.ID == id && !*req.Active {
		common.RespondAppError(c, errs.Invalid("active", "cannot deactivate your own account"))
		return
	}

	user, err := h.credentials.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, user)
}
