package albums

import (
	"strconv"

	"github.com/anoixa/clone-gallery/internal/errs"
	svcAlbums "github.com/anoixa/clone-gallery/internal/albums"
	"github.com/gin-gonic/gin"
)

// Handler 相册处理器
type Handler struct {
	svc *svcAlbums.Service
}

// NewHandler 创建新的相册处理器
func NewHandler(svc *svcAlbums.Service) *Handler {
	return &Handler{svc: svc}
}

func albumID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errs.Invalid("id", "invalid album ID format")
	}
	return uint(id), nil
}
