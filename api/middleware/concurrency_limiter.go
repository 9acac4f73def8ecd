package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

type ConcurrencyLimiter struct {
	sem *semaphore.Weighted
}

// NewConcurrencyLimiter 并发限制器
func NewConcurrencyLimiter(maxConcurrency int64) *ConcurrencyLimiter {
	if maxConcurrency <= 0 {
		maxConcurrency = 100
	}
	return &ConcurrencyLimiter{
		sem: semaphore.NewWeighted(maxConcurrency),
	}
}

// Middleware 超出并发上限立即返回 503
func (cl *ConcurrencyLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.sem.TryAcquire(1) {
			common.RespondErrorAbort(c, http.StatusServiceUnavailable, "server is busy, please try again later")
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

// MiddlewareWithBlock 等待最多 timeout，适合上传和生成这类慢请求
func (cl *ConcurrencyLimiter) MiddlewareWithBlock(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := cl.sem.Acquire(ctx, 1); err != nil {
			common.RespondErrorAbort(c, http.StatusServiceUnavailable, "request timed out waiting for server resources")
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}
