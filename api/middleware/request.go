package middleware

import (
	"net/http"
	"time"

	"github.com/anoixa/clone-gallery/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader     = "X-Request-ID"
	ContextRequestIDKey = "request_id"
)

// RequestID 透传或生成请求 ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// MaxBytesReader 限制请求体大小
func MaxBytesReader(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// Logger 使用 logrus 输出访问日志
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := utils.Log.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       utils.SanitizeLogMessage(c.Request.URL.Path),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(ContextRequestIDKey),
		})
		if uid := c.GetString(ContextUserIDKey); uid != "" {
			entry = entry.WithField("user_id", uid)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("[HTTP] request")
		case status >= http.StatusBadRequest:
			entry.Warn("[HTTP] request")
		default:
			entry.Info("[HTTP] request")
		}
	}
}
