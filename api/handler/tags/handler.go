package tags

import (
	"net/http"
	"strconv"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/internal/dashboard"
	"github.com/gin-gonic/gin"
)

// Handler 标签处理器
type Handler struct {
	svc *dashboard.Service
}

func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

// ListTags 列出全部标签
// @Summary      List tags
// @Description  Tag names with usage counts, most used first
// @Tags         tags
// @Produce      json
// @Success      200  {object}  common.Response  "Tags"
// @Router       /v1/tags [get]
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.svc.ListTags(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, tags)
}

// TrendingTags 热门标签
// @Summary      Trending tags
// @Tags         tags
// @Produce      json
// @Param        limit  query     int  false  "Number of tags, default 10, max 50"
// @Success      200    {object}  common.Response  "Tags"
// @Failure      400    {object}  common.Response  "Invalid limit"
// @Router       /v1/tags/trending [get]
func (h *Handler) TrendingTags(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			common.RespondError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	tags, err := h.svc.TrendingTags(c.Request.Context(), limit)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, tags)
}
