package albums

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	svcAlbums "github.com/anoixa/clone-gallery/internal/albums"
	"github.com/gin-gonic/gin"
)

type createAlbumRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Privacy     string `json:"privacy"`
}

// CreateAlbumHandler 创建相册
// @Summary      Create album
// @Tags         albums
// @Accept       json
// @Produce      json
// @Param        request  body      createAlbumRequest  true  "Album"
// @Success      201      {object}  common.Response     "Album created"
// @Failure      400      {object}  common.Response     "Invalid request body"
// @Failure      401      {object}  common.Response     "Unauthorized"
// @Failure      403      {object}  common.Response     "Role may not create albums"
// @Security     BearerAuth
// @Router       /v1/albums [post]
func (h *Handler) CreateAlbumHandler(c *gin.Context) {
	var req createAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	privacy, err := models.ParsePrivacy(req.Privacy)
	if err != nil {
		common.RespondAppError(c, errs.Invalid("privacy", "privacy must be public or private"))
		return
	}

	album, err := h.svc.Create(c.Request.Context(), middleware.GetRequester(c), svcAlbums.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Privacy:     privacy,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, album)
}
