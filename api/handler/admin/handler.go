package admin

import (
	"github.com/anoixa/clone-gallery/internal/auth"
	"github.com/anoixa/clone-gallery/internal/dashboard"
)

// Handler 管理后台处理器，路由层已限制为管理员
type Handler struct {
	stats       *dashboard.Service
	credentials *auth.CredentialService
}

// NewHandler 创建管理后台处理器
func NewHandler(stats *dashboard.Service, credentials *auth.CredentialService) *Handler {
	return &Handler{stats: stats, credentials: credentials}
}
