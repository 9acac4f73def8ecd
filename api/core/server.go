package core

import (
	"net/http"
	"time"

	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// 单个请求体上限为 上传上限 * 批量数量 + 1MB 表单开销
func requestBodyLimit(cfg *config.Config) int64 {
	batch := cfg.UploadBatchLimit
	if batch <= 0 {
		batch = 1
	}
	return int64(cfg.UploadMaxSizeMB)<<20*int64(batch) + 1<<20
}

// setupRouter 创建 gin 引擎并注册中间件和路由，返回的清理函数停止限流器的后台任务
func setupRouter(deps *RouterDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	_ = router.SetTrustedProxies(nil)

	router.MaxMultipartMemory = int64(cfg.UploadMaxSizeMB) << 20
	router.Use(middleware.MaxBytesReader(requestBodyLimit(cfg)))

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 100
	}
	router.Use(middleware.NewConcurrencyLimiter(maxConcurrency).Middleware())

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	if deps.Registry != nil {
		reg = deps.Registry
	}
	router.Use(middleware.NewMetrics(reg).Middleware())

	if deps.AuthRateLimiter == nil {
		deps.AuthRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	}
	if deps.APIRateLimiter == nil {
		deps.APIRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	}
	cleanup := func() {
		deps.AuthRateLimiter.StopCleanup()
		deps.APIRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, deps)
	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *RouterDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}
	return srv, clean
}
