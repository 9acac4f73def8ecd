package admin

import (
	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/gin-gonic/gin"
)

// GetStats 获取统计数据
// @Summary      Admin statistics
// @Description  Users, images, views, storage usage and upload trend. Cached for five minutes.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  common.Response  "Statistics"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      403  {object}  common.Response  "Admin only"
// @Security     BearerAuth
// @Router       /v1/admin/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context(), middleware.GetRequester(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, stats)
}

// RefreshStats 刷新统计缓存
// @Summary      Refresh admin statistics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  common.Response  "Cache cleared"
// @Security     BearerAuth
// @Router       /v1/admin/stats/refresh [post]
func (h *Handler) RefreshStats(c *gin.Context) {
	h.stats.RefreshCache(c.Request.Context())
	common.RespondSuccessMessage(c, "Stats refreshed successfully", nil)
}
