package middleware

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/gin-gonic/gin"
)

// RequireRole 检查用户是否具有指定的角色，需放在 Auth 之后
func RequireRole(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester := GetRequester(c)
		if requester == nil {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "unauthenticated")
			return
		}

		for _, allowed := range allowedRoles {
			if requester.Role == allowed {
				c.Next()
				return
			}
		}

		common.RespondErrorAbort(c, http.StatusForbidden, "access denied")
	}
}
