package images

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	imagesvc "github.com/anoixa/clone-gallery/internal/services/image"
	"github.com/gin-gonic/gin"
)

type listQuery struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Uploader string `form:"uploader"`
	Privacy  string `form:"privacy"`
	Tag      string `form:"tag"`
}

// ListImages 获取图片列表
// @Summary      List images
// @Description  Public images plus the requester's own; admins see everything
// @Tags         images
// @Produce      json
// @Param        page      query     int     false  "Page, from 1"
// @Param        limit     query     int     false  "Page size, 1-100"
// @Param        uploader  query     string  false  "Uploader ID"
// @Param        privacy   query     string  false  "public or private"
// @Param        tag       query     string  false  "Tag name"
// @Success      200  {object}  common.Response  "Image page"
// @Failure      400  {object}  common.Response  "Invalid query"
// @Router       /v1/images [get]
func (h *Handler) ListImages(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	var privacy models.Privacy
	if q.Privacy != "" {
		p, err := models.ParsePrivacy(q.Privacy)
		if err != nil {
			common.RespondAppError(c, errs.Invalid("privacy", "privacy must be public or private"))
			return
		}
		privacy = p
	}

	result, err := h.query.List(c.Request.Context(), middleware.GetRequester(c), imagesvc.ListParams{
		Page:       q.Page,
		Limit:      q.Limit,
		UploaderID: q.Uploader,
		Privacy:    privacy,
		Tag:        q.Tag,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}
