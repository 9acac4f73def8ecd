package middleware

import (
	"context"
	"strings"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/auth"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey    = "user_id"
	ContextUserKey      = "user"
	ContextRoleKey      = "role"
	ContextRequesterKey = "requester"
)

// Authenticator 校验令牌并加载用户
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// bearerToken 解析 Authorization 头，present 表示请求携带了该头
func bearerToken(c *gin.Context) (token string, present bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func authenticate(c *gin.Context, a Authenticator, token string) error {
	if token == "" {
		return errs.ErrUnauthenticated
	}
	// 每次请求都重新加载用户，停用或删除的账户立即失效
	user, _, err := a.Authenticate(c.Request.Context(), token)
	if err != nil {
		return err
	}
	c.Set(ContextUserIDKey, user.ID)
	c.Set(ContextUserKey, user)
	c.Set(ContextRoleKey, user.Role)
	c.Set(ContextRequesterKey, &access.Requester{ID: user.ID, Role: user.Role})
	return nil
}

// Auth 要求 Bearer 令牌
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := bearerToken(c)
		if err := authenticate(c, a, token); err != nil {
			common.AbortWithAppError(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth 没有 Authorization 头时按匿名访问处理，携带了无效令牌仍然拒绝
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if err := authenticate(c, a, token); err != nil {
			common.AbortWithAppError(c, err)
			return
		}
		c.Next()
	}
}

// GetRequester 返回当前请求者，匿名访问返回 nil
func GetRequester(c *gin.Context) *access.Requester {
	v, ok := c.Get(ContextRequesterKey)
	if !ok {
		return nil
	}
	r, _ := v.(*access.Requester)
	return r
}

// GetUser 返回当前用户，匿名访问返回 nil
func GetUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
