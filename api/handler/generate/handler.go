package generate

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/internal/generation"
	"github.com/gin-gonic/gin"
)

// Handler 文生图处理器
type Handler struct {
	svc *generation.Service
}

func NewHandler(svc *generation.Service) *Handler {
	return &Handler{svc: svc}
}

// Generate 根据提示词生成图片
// @Summary      Generate image
// @Description  Calls the configured diffusion provider. With save=true the result is stored as an AI image owned by the requester.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Param        request  body      generation.Request  true  "Generation parameters"
// @Success      200      {object}  common.Response     "Generation result"
// @Failure      400      {object}  common.Response     "Parameter out of range"
// @Failure      401      {object}  common.Response     "Unauthorized"
// @Failure      403      {object}  common.Response     "Role may not save images"
// @Failure      502      {object}  common.Response     "Provider failed"
// @Failure      503      {object}  common.Response     "Generation disabled"
// @Security     BearerAuth
// @Router       /v1/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req generation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), middleware.GetRequester(c), req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

// Status 提供者状态
// @Summary      Generation status
// @Tags         generate
// @Produce      json
// @Success      200  {object}  common.Response  "Provider status"
// @Router       /v1/generate/status [get]
func (h *Handler) Status(c *gin.Context) {
	common.RespondSuccess(c, h.svc.Status(c.Request.Context()))
}
