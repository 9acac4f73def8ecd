package cache

import (
	"context"
	"fmt"

	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/utils"
)

// NewFromConfig 根据配置创建缓存提供者
// redis 连接失败时回退到内存缓存，缓存不可用不应阻止服务启动
func NewFromConfig(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "", "memory":
		return NewMemory(DefaultMemoryConfig(cfg.CacheMemoryMaxMB))
	case "redis":
		p, err := NewRedisCache(ctx, RedisConfig{
			Address:      cfg.CacheRedisAddr,
			Password:     cfg.CacheRedisPassword,
			DB:           cfg.CacheRedisDB,
			PoolSize:     10,
			MinIdleConns: 2,
			KeyPrefix:    "clonegallery:",
		})
		if err != nil {
			utils.Log.Warnf("[Cache] Redis unavailable, falling back to memory cache: %v", err)
			return NewMemory(DefaultMemoryConfig(cfg.CacheMemoryMaxMB))
		}
		utils.Log.Infof("[Cache] Connected to redis at %s", cfg.CacheRedisAddr)
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}
