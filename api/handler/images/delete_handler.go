package images

import (
	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/gin-gonic/gin"
)

// DeleteImage 删除单张图片
// @Summary      Delete image
// @Description  Removes the record and both stored objects. Owner or admin only.
// @Tags         images
// @Produce      json
// @Param        id   path      string  true  "Image ID"
// @Success      200  {object}  common.Response  "Image deleted"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      403  {object}  common.Response  "Permission denied"
// @Failure      404  {object}  common.Response  "Image not found"
// @Security     BearerAuth
// @Router       /v1/images/{id} [delete]
func (h *Handler) DeleteImage(c *gin.Context) {
	id := c.Param("id")
	if err := h.deleter.Delete(c.Request.Context(), id, middleware.GetRequester(c)); err != nil {
		common.RespondAppError(c, err)
		return
	}

	utils.Log.WithField("image_id", utils.SanitizeLogMessage(id)).Info("[Images] Deleted")
	common.RespondSuccessMessage(c, "Image deleted successfully", nil)
}
