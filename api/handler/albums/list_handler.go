package albums

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/gin-gonic/gin"
)

// ListAlbumsRequest 相册列表请求，page / limit 缺省时使用默认分页
type ListAlbumsRequest struct {
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Owner string `form:"owner"`
}

// ListAlbumsHandler 获取相册列表
// @Summary      List albums
// @Description  Public albums plus the requester's own; admins see everything
// @Tags         albums
// @Produce      json
// @Param        page   query     int     false  "Page, from 1"
// @Param        limit  query     int     false  "Page size, 1-100"
// @Param        owner  query     string  false  "Owner user ID"
// @Success      200    {object}  common.Response  "Album page"
// @Failure      400    {object}  common.Response  "Invalid request parameters"
// @Router       /v1/albums [get]
func (h *Handler) ListAlbumsHandler(c *gin.Context) {
	var req ListAlbumsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request parameters")
		return
	}

	result, err := h.svc.List(c.Request.Context(), middleware.GetRequester(c), req.Owner, req.Page, req.Limit)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}
