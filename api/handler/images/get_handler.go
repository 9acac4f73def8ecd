package images

import (
	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/gin-gonic/gin"
)

// GetImage 获取图片详情并累加浏览次数
// @Summary      Get image
// @Tags         images
// @Produce      json
// @Param        id   path      string  true  "Image ID"
// @Success      200  {object}  common.Response  "Image"
// @Failure      403  {object}  common.Response  "Private image"
// @Failure      404  {object}  common.Response  "Image not found"
// @Router       /v1/images/{id} [get]
func (h *Handler) GetImage(c *gin.Context) {
	image, err := h.query.Get(c.Request.Context(), c.Param("id"), middleware.GetRequester(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, image)
}

// InspectImage 查看存储中的原图信息
// @Summary      Inspect stored file
// @Description  Size, content type and modification time of the stored original
// @Tags         images
// @Produce      json
// @Param        id   path      string  true  "Image ID"
// @Success      200  {object}  common.Response  "File info"
// @Failure      403  {object}  common.Response  "Private image"
// @Failure      404  {object}  common.Response  "Image not found"
// @Router       /v1/images/{id}/file [get]
func (h *Handler) InspectImage(c *gin.Context) {
	info, err := h.query.Inspect(c.Request.Context(), c.Param("id"), middleware.GetRequester(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, info)
}
