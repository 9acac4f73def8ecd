package albums

import (
	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/gin-gonic/gin"
)

// GetAlbumDetailHandler 获取相册详情
// @Summary      Get album
// @Description  Album with the images the requester may see, in album order
// @Tags         albums
// @Produce      json
// @Param        id   path      int  true  "Album ID"
// @Success      200  {object}  common.Response  "Album"
// @Failure      400  {object}  common.Response  "Invalid album ID format"
// @Failure      403  {object}  common.Response  "Private album"
// @Failure      404  {object}  common.Response  "Album not found"
// @Router       /v1/albums/{id} [get]
func (h *Handler) GetAlbumDetailHandler(c *gin.Context) {
	id, err := albumID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), id, middleware.GetRequester(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, detail)
}
