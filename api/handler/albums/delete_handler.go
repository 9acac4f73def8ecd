package albums

import (
	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/gin-gonic/gin"
)

// DeleteAlbumHandler 删除相册
// @Summary      Delete album
// @Description  Delete an album by ID (images in the album will not be deleted)
// @Tags         albums
// @Produce      json
// @Param        id   path      int  true  "Album ID"
// @Success      200  {object}  common.Response  "Album deleted successfully"
// @Failure      400  {object}  common.Response  "Invalid album ID format"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      403  {object}  common.Response  "Permission denied"
// @Failure      404  {object}  common.Response  "Album not found"
// @Security     BearerAuth
// @Router       /v1/albums/{id} [delete]
func (h *Handler) DeleteAlbumHandler(c *gin.Context) {
	id, err := albumID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetRequester(c), id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Album deleted successfully", nil)
}
