package albums

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/gin-gonic/gin"
)

// AddImageToAlbumRequest 添加图片到相册请求
type AddImageToAlbumRequest struct {
	ImageID string `json:"image_id" binding:"required"`
}

// AddImageToAlbumHandler 添加图片到相册末尾
// @Summary      Add image to album
// @Tags         albums
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "Album ID"
// @Param        request  body      AddImageToAlbumRequest  true  "Image"
// @Success      200      {object}  common.Response         "Image added"
// @Failure      400      {object}  common.Response         "Invalid request"
// @Failure      403      {object}  common.Response         "Permission denied"
// @Failure      404      {object}  common.Response         "Album or image not found"
// @Security     BearerAuth
// @Router       /v1/albums/{id}/images [post]
func (h *Handler) AddImageToAlbumHandler(c *gin.Context) {
	id, err := albumID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	var req AddImageToAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.svc.AddImage(c.Request.Context(), middleware.GetRequester(c), id, req.ImageID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Image added to album", nil)
}

// RemoveImageFromAlbumHandler 从相册移除图片，图片本身保留
// @Summary      Remove image from album
// @Tags         albums
// @Produce      json
// @Param        id        path      int     true  "Album ID"
// @Param        image_id  path      string  true  "Image ID"
// @Success      200       {object}  common.Response  "Image removed"
// @Failure      403       {object}  common.Response  "Permission denied"
// @Failure      404       {object}  common.Response  "Album not found"
// @Security     BearerAuth
// @Router       /v1/albums/{id}/images/{image_id} [delete]
func (h *Handler) RemoveImageFromAlbumHandler(c *gin.Context) {
	id, err := albumID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if err := h.svc.RemoveImage(c.Request.Context(), middleware.GetRequester(c), id, c.Param("image_id")); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Image removed from album", nil)
}
