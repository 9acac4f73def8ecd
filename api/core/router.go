package core

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api"
	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/handler/admin"
	handlerAlbums "github.com/anoixa/clone-gallery/api/handler/albums"
	"github.com/anoixa/clone-gallery/api/handler/files"
	"github.com/anoixa/clone-gallery/api/handler/generate"
	handlerImages "github.com/anoixa/clone-gallery/api/handler/images"
	"github.com/anoixa/clone-gallery/api/handler/tags"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/cache"
	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/app"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/anoixa/clone-gallery/docs"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config          *config.Config
	DB              database.Provider
	Cache           cache.Provider
	Backend         *storage.Backend
	Services        *app.Services
	AuthRateLimiter *middleware.IPRateLimiter
	APIRateLimiter  *middleware.IPRateLimiter
	// Registry 为 nil 时使用 prometheus 默认注册表
	Registry *prometheus.Registry
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerPublicRoutes(router, deps)
	registerAPIRoutes(router, deps)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.Cache, deps.Backend)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	metricsHandler := promhttp.Handler()
	if deps.Registry != nil {
		metricsHandler = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// registerPublicRoutes local / webdav 存储的对象通过 /uploads 代理访问
func registerPublicRoutes(router *gin.Engine, deps *RouterDependencies) {
	switch deps.Config.StorageType {
	case "local", "webdav":
		fileHandler := files.NewHandler(deps.Backend)
		router.GET("/uploads/*key", fileHandler.ServeFile)
		router.HEAD("/uploads/*key", fileHandler.ServeFile)
	}
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	svc := deps.Services
	authenticator := svc.Credentials

	authHandler := api.NewAuthHandler(svc.Credentials)
	imageHandler := handlerImages.NewHandler(svc.Upload, svc.Query, svc.Delete)
	albumHandler := handlerAlbums.NewHandler(svc.Albums)
	tagHandler := tags.NewHandler(svc.Dashboard)
	generateHandler := generate.NewHandler(svc.Generation)
	adminHandler := admin.NewHandler(svc.Dashboard, svc.Credentials)

	requireAuth := middleware.Auth(authenticator)
	optionalAuth := middleware.OptionalAuth(authenticator)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.Use(deps.AuthRateLimiter.Middleware())
		{
			authGroup.POST("/register", optionalAuth, authHandler.Register) // POST /api/auth/register
			authGroup.POST("/login", authHandler.Login)                     // POST /api/auth/login
			authGroup.GET("/me", requireAuth, authHandler.Me)               // GET /api/auth/me
		}

		v1 := apiGroup.Group("/v1")
		v1.Use(deps.APIRateLimiter.Middleware())
		{
			imagesGroup := v1.Group("/images")
			{
				imagesGroup.GET("", optionalAuth, imageHandler.ListImages)             // GET /api/v1/images
				imagesGroup.GET("/:id", optionalAuth, imageHandler.GetImage)           // GET /api/v1/images/{id}
				imagesGroup.GET("/:id/file", optionalAuth, imageHandler.InspectImage)  // GET /api/v1/images/{id}/file
				imagesGroup.POST("", requireAuth, imageHandler.UploadImage)            // POST /api/v1/images
				imagesGroup.POST("/batch", requireAuth, imageHandler.UploadImages)     // POST /api/v1/images/batch
				imagesGroup.DELETE("/:id", requireAuth, imageHandler.DeleteImage)      // DELETE /api/v1/images/{id}
			}

			tagsGroup := v1.Group("/tags")
			{
				tagsGroup.GET("", tagHandler.ListTags)              // GET /api/v1/tags
				tagsGroup.GET("/trending", tagHandler.TrendingTags) // GET /api/v1/tags/trending
			}

			albumsGroup := v1.Group("/albums")
			{
				albumsGroup.GET("", optionalAuth, albumHandler.ListAlbumsHandler)                                // GET /api/v1/albums
				albumsGroup.GET("/:id", optionalAuth, albumHandler.GetAlbumDetailHandler)                        // GET /api/v1/albums/{id}
				albumsGroup.POST("", requireAuth, albumHandler.CreateAlbumHandler)                               // POST /api/v1/albums
				albumsGroup.DELETE("/:id", requireAuth, albumHandler.DeleteAlbumHandler)                         // DELETE /api/v1/albums/{id}
				albumsGroup.POST("/:id/images", requireAuth, albumHandler.AddImageToAlbumHandler)                // POST /api/v1/albums/{id}/images
				albumsGroup.DELETE("/:id/images/:image_id", requireAuth, albumHandler.RemoveImageFromAlbumHandler) // DELETE /api/v1/albums/{id}/images/{image_id}
			}

			generateGroup := v1.Group("/generate")
			{
				generateGroup.POST("", requireAuth, generateHandler.Generate) // POST /api/v1/generate
				generateGroup.GET("/status", generateHandler.Status)         // GET /api/v1/generate/status
			}

			adminGroup := v1.Group("/admin")
			adminGroup.Use(requireAuth, middleware.RequireRole(models.RoleAdmin))
			{
				adminGroup.GET("/stats", adminHandler.GetStats)                    // GET /api/v1/admin/stats
				adminGroup.POST("/stats/refresh", adminHandler.RefreshStats)       // POST /api/v1/admin/stats/refresh
				adminGroup.GET("/users", adminHandler.ListUsers)                   // GET /api/v1/admin/users
				adminGroup.POST("/users", adminHandler.CreateUser)                 // POST /api/v1/admin/users
				adminGroup.PATCH("/users/:id/active", adminHandler.SetUserActive)  // PATCH /api/v1/admin/users/{id}/active
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		common.RespondError(c, http.StatusNotFound, "route not found")
	})
}
