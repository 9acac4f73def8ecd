package files

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/anoixa/clone-gallery/utils/pool"
	"github.com/gin-gonic/gin"
)

// Handler 代理读取 local / webdav 存储中的对象，挂载在 /uploads 下
// 对象 key 含随机 UUID，不做访问控制
type Handler struct {
	backend *storage.Backend
}

func NewHandler(backend *storage.Backend) *Handler {
	return &Handler{backend: backend}
}

// ServeFile 按 key 输出对象内容，仅用于 local 和 webdav 存储
func (h *Handler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !storage.IsValidStoragePath(key) {
		common.RespondError(c, http.StatusNotFound, errs.ErrNotFound.Error())
		return
	}

	rc, info, err := h.backend.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, errs.ErrNotFound.Error())
			return
		}
		common.RespondAppError(c, err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if info.Size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	if c.Request.Method == http.MethodHead {
		return
	}

	if _, err := pool.Copy(c.Writer, rc); err != nil && !utils.IsClientDisconnect(err) {
		utils.Log.WithField("key", utils.SanitizeLogMessage(key)).Warnf("[Files] Copy interrupted: %v", err)
	}
}
