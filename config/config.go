package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	CORSOrigins        []string      `mapstructure:"cors_origins"`

	// 日志配置
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// JWT 配置
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`

	// 存储配置
	StorageType       string `mapstructure:"storage_type"`
	StorageLocalPath  string `mapstructure:"storage_local_path"`
	StoragePublicBase string `mapstructure:"storage_public_base"`

	StorageEndpoint        string `mapstructure:"storage_endpoint"`
	StorageRegion          string `mapstructure:"storage_region"`
	StorageAccessKeyID     string `mapstructure:"storage_access_key_id"`
	StorageSecretAccessKey string `mapstructure:"storage_secret_access_key"`
	StorageUseSSL          bool   `mapstructure:"storage_use_ssl"`
	StorageImageBucket     string `mapstructure:"storage_image_bucket"`
	StorageThumbBucket     string `mapstructure:"storage_thumb_bucket"`

	StorageWebDAVURL      string `mapstructure:"storage_webdav_url"`
	StorageWebDAVUsername string `mapstructure:"storage_webdav_username"`
	StorageWebDAVPassword string `mapstructure:"storage_webdav_password"`
	StorageWebDAVRoot     string `mapstructure:"storage_webdav_root"`

	// 缩略图配置
	ThumbnailEngine  string `mapstructure:"thumbnail_engine"`
	ThumbnailMaxEdge int    `mapstructure:"thumbnail_max_edge"`
	ThumbnailQuality int    `mapstructure:"thumbnail_quality"`
	// 原图像素上限（宽 x 高），超过则拒绝上传
	ImageMaxPixels int64 `mapstructure:"image_max_pixels"`

	// 缓存提供者配置
	CacheType          string `mapstructure:"cache_type"`
	CacheRedisAddr     string `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string `mapstructure:"cache_redis_password"`
	CacheRedisDB       int    `mapstructure:"cache_redis_db"`
	CacheMemoryMaxMB   int64  `mapstructure:"cache_memory_max_mb"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitAuthRPS    float64       `mapstructure:"rate_limit_auth_rps"`
	RateLimitAuthBurst  int           `mapstructure:"rate_limit_auth_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`
	MaxConcurrency      int64         `mapstructure:"max_concurrency"`

	// 上传配置
	UploadMaxSizeMB   int `mapstructure:"upload_max_size_mb"`
	UploadBatchLimit  int `mapstructure:"upload_batch_limit"`
	UploadConcurrency int `mapstructure:"upload_concurrency"`

	// AI 生成配置
	AIProvider       string        `mapstructure:"ai_provider"`
	AIReplicateToken string        `mapstructure:"ai_replicate_token"`
	AIReplicateURL   string        `mapstructure:"ai_replicate_url"`
	AIModelVersion   string        `mapstructure:"ai_model_version"`
	AITimeout        time.Duration `mapstructure:"ai_timeout"`
	AIPollInterval   time.Duration `mapstructure:"ai_poll_interval"`

	// 临时目录
	TempDir string `mapstructure:"temp_dir"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	// .env 只负责注入环境变量，已存在的环境变量优先
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	} else {
		fmt.Fprintln(os.Stderr, "Info: Loaded environment from .env file")
	}

	if path := viper.GetString("config_file_path"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: Unable to read config file %s, %v\n", path, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", path)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key, strings.ToUpper(key))
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}

	if globalConfig.UploadConcurrency <= 0 {
		globalConfig.UploadConcurrency = getCpus()
	}
}

// setDefaults 设置默认值
func setDefaults() {
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "60s")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "clone_gallery")
	viper.SetDefault("db_file_path", "./data/gallery.db")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("jwt_ttl", "24h")

	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_local_path", "./data/uploads")
	viper.SetDefault("storage_public_base", "/uploads")
	viper.SetDefault("storage_endpoint", "")
	viper.SetDefault("storage_region", "us-east-1")
	viper.SetDefault("storage_access_key_id", "")
	viper.SetDefault("storage_secret_access_key", "")
	viper.SetDefault("storage_use_ssl", false)
	viper.SetDefault("storage_image_bucket", "clonegallery-images")
	viper.SetDefault("storage_thumb_bucket", "clonegallery-thumbnails")
	viper.SetDefault("storage_webdav_url", "")
	viper.SetDefault("storage_webdav_username", "")
	viper.SetDefault("storage_webdav_password", "")
	viper.SetDefault("storage_webdav_root", "/gallery")

	viper.SetDefault("thumbnail_engine", "native")
	viper.SetDefault("thumbnail_max_edge", 300)
	viper.SetDefault("thumbnail_quality", 85)
	viper.SetDefault("image_max_pixels", 50_000_000)

	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_memory_max_mb", 64)

	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_auth_rps", 0.5)
	viper.SetDefault("rate_limit_auth_burst", 5)
	viper.SetDefault("rate_limit_expire_time", "10m")
	viper.SetDefault("max_concurrency", 100)

	viper.SetDefault("upload_max_size_mb", 20)
	viper.SetDefault("upload_batch_limit", 10)
	viper.SetDefault("upload_concurrency", 0) // 0 表示使用 CPU 数

	viper.SetDefault("ai_provider", "disabled")
	viper.SetDefault("ai_replicate_token", "")
	viper.SetDefault("ai_replicate_url", "https://api.replicate.com/v1")
	viper.SetDefault("ai_model_version", "ac732df83cea7fff18b8472768c88ad041fa750ff7682a21affe81863cbe77e4")
	viper.SetDefault("ai_timeout", "120s")
	viper.SetDefault("ai_poll_interval", "2s")

	viper.SetDefault("temp_dir", "./data/temp")
}

// Validate 校验启动前必须满足的配置
func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters long, got %d", len(c.JWTSecret))
	}
	switch c.StorageType {
	case "local", "minio", "s3", "webdav":
	default:
		return fmt.Errorf("unsupported storage_type: %s", c.StorageType)
	}
	switch c.ThumbnailEngine {
	case "native", "vips":
	default:
		return fmt.Errorf("unsupported thumbnail_engine: %s", c.ThumbnailEngine)
	}
	if c.ThumbnailMaxEdge <= 0 || c.ThumbnailQuality <= 0 || c.ThumbnailQuality > 100 {
		return fmt.Errorf("invalid thumbnail settings: edge=%d quality=%d", c.ThumbnailMaxEdge, c.ThumbnailQuality)
	}
	if c.ImageMaxPixels < 0 {
		return fmt.Errorf("image_max_pixels must not be negative, got %d", c.ImageMaxPixels)
	}
	return nil
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成图片链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// getCpus 获取默认线程数量
func getCpus() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		return 2
	}
	return n
}
