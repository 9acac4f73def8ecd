package app

import (
	"context"
	"fmt"

	"github.com/anoixa/clone-gallery/cache"
	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/internal/albums"
	"github.com/anoixa/clone-gallery/internal/auth"
	"github.com/anoixa/clone-gallery/internal/dashboard"
	"github.com/anoixa/clone-gallery/internal/generation"
	imaging "github.com/anoixa/clone-gallery/internal/image"
	"github.com/anoixa/clone-gallery/internal/repositories"
	imagesvc "github.com/anoixa/clone-gallery/internal/services/image"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/anoixa/clone-gallery/utils"
	cryptopackage "github.com/anoixa/clone-gallery/utils/crypto"
)

// Services 业务服务
type Services struct {
	Credentials *auth.CredentialService
	Upload      *imagesvc.UploadService
	Query       *imagesvc.QueryService
	Delete      *imagesvc.DeleteService
	Albums      *albums.Service
	Dashboard   *dashboard.Service
	Generation  *generation.Service
}

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	cache           cache.Provider
	backend         *storage.Backend

	Repositories *repositories.Repositories
	Services     *Services
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// NewContainerWith 使用已创建的基础设施，测试和命令行工具使用
func NewContainerWith(cfg *config.Config, db database.Provider, cacheProvider cache.Provider, backend *storage.Backend) (*Container, error) {
	c := &Container{
		config:          cfg,
		databaseFactory: database.NewFactoryWithProvider(db),
		cache:           cacheProvider,
		backend:         backend,
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init 初始化数据库、缓存、存储和所有服务
func (c *Container) Init(ctx context.Context) error {
	if err := c.InitDatabase(); err != nil {
		return err
	}

	cacheProvider, err := cache.NewFromConfig(ctx, c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.cache = cacheProvider

	backend, err := storage.NewBackendFromConfig(ctx, c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.backend = backend

	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	utils.Log.Info("[Container] Initialized")
	return nil
}

// InitDatabase 只初始化数据库和仓库，用于不需要存储的命令
func (c *Container) InitDatabase() error {
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory

	if err := factory.AutoMigrate(); err != nil {
		return err
	}
	c.initRepositories()
	return nil
}

// initRepositories 初始化所有仓库
func (c *Container) initRepositories() {
	c.Repositories = repositories.NewRepositories(c.databaseFactory.GetProvider())
}

// Credentials 只依赖数据库的凭据服务，reset-password 等命令使用
func (c *Container) Credentials() (*auth.CredentialService, error) {
	tokens, err := auth.NewJWTService(c.config.JWTSecret, auth.WithTTL(c.config.JWTTTL))
	if err != nil {
		return nil, err
	}
	return auth.NewCredentialService(c.Repositories.Accounts, cryptopackage.NewHasher(cryptopackage.DefaultParams), tokens), nil
}

func (c *Container) initServices() error {
	credentials, err := c.Credentials()
	if err != nil {
		return err
	}

	repos := c.Repositories
	upload := imagesvc.NewUploadService(repos.Images, c.backend, imagesvc.UploadOptions{
		MaxBytes:    int64(c.config.UploadMaxSizeMB) << 20,
		BatchLimit:  c.config.UploadBatchLimit,
		Concurrency: c.config.UploadConcurrency,
	})

	gen, err := generation.NewFromConfig(c.config)
	if err != nil {
		return err
	}

	c.Services = &Services{
		Credentials: credentials,
		Upload:      upload,
		Query:       imagesvc.NewQueryService(repos.Images, c.backend),
		Delete:      imagesvc.NewDeleteService(repos.Images, c.backend),
		Albums:      albums.NewService(repos.Albums, repos.Images),
		Dashboard:   dashboard.NewService(repos.Stats, repos.Images, repos.Albums, c.cache),
		Generation: generation.NewService(gen, upload, c.cache, generation.Options{
			Timeout:       c.config.AITimeout,
			MaxImageBytes: int64(c.config.UploadMaxSizeMB) << 20,
		}),
	}
	return nil
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// Cache 缓存提供者
func (c *Container) Cache() cache.Provider {
	return c.cache
}

// Backend 存储后端
func (c *Container) Backend() *storage.Backend {
	return c.backend
}

// Close 关闭所有服务
func (c *Container) Close() error {
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			utils.Log.Warnf("[Container] Error closing cache: %v", err)
		}
	}
	if c.config != nil && c.config.ThumbnailEngine == "vips" {
		imaging.ShutdownVips()
	}
	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			return fmt.Errorf("error closing database: %w", err)
		}
	}
	utils.Log.Info("[Container] Closed")
	return nil
}
