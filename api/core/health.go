package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/clone-gallery/cache"
	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const healthTimeout = 3 * time.Second

// HealthHandler 检查数据库、缓存和存储，任一失败返回 503
type HealthHandler struct {
	db      database.Provider
	cache   cache.Provider
	backend *storage.Backend
}

func NewHealthHandler(db database.Provider, cacheProvider cache.Provider, backend *storage.Backend) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheProvider, backend: backend}
}

func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{
		"database": checkDatabaseHealth(ctx, h.db),
		"cache":    checkCacheHealth(ctx, h.cache),
		"storage":  checkStorageHealth(ctx, h.backend),
	}

	status, httpStatus := "ok", http.StatusOK
	for _, result := range checks {
		if result != "ok" {
			status, httpStatus = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func checkDatabaseHealth(ctx context.Context, provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}

func checkCacheHealth(ctx context.Context, provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, backend *storage.Backend) string {
	if backend == nil {
		return "not initialized"
	}
	if err := backend.Health(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
