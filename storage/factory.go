package storage

import (
	"context"
	"fmt"

	"github.com/anoixa/clone-gallery/config"
	imaging "github.com/anoixa/clone-gallery/internal/image"
	"github.com/anoixa/clone-gallery/utils"
)

// NewProviderFromConfig 根据配置创建指定 bucket 的存储提供者
// local / webdav 不区分 bucket
func NewProviderFromConfig(ctx context.Context, cfg *config.Config, bucket string) (Provider, error) {
	switch cfg.StorageType {
	case "local":
		return NewLocalStorage(cfg.StorageLocalPath, cfg.StoragePublicBase)
	case "minio":
		return NewMinioStorage(MinioConfig{
			Endpoint:        cfg.StorageEndpoint,
			AccessKeyID:     cfg.StorageAccessKeyID,
			SecretAccessKey: cfg.StorageSecretAccessKey,
			UseSSL:          cfg.StorageUseSSL,
			BucketName:      bucket,
		})
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Region:          cfg.StorageRegion,
			AccessKeyID:     cfg.StorageAccessKeyID,
			SecretAccessKey: cfg.StorageSecretAccessKey,
			BucketName:      bucket,
			Endpoint:        cfg.StorageEndpoint,
		})
	case "webdav":
		return NewWebDAVStorage(WebDAVConfig{
			URL:        cfg.StorageWebDAVURL,
			Username:   cfg.StorageWebDAVUsername,
			Password:   cfg.StorageWebDAVPassword,
			RootPath:   cfg.StorageWebDAVRoot,
			PublicBase: cfg.StoragePublicBase,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// NewBackendFromConfig 启动时根据配置选定存储实现，运行期间不再切换
func NewBackendFromConfig(ctx context.Context, cfg *config.Config) (*Backend, error) {
	utils.Log.Infof("[Storage] Initializing storage, type: %s", cfg.StorageType)

	images, err := NewProviderFromConfig(ctx, cfg, cfg.StorageImageBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	thumbs := images
	if (cfg.StorageType == "minio" || cfg.StorageType == "s3") && cfg.StorageThumbBucket != cfg.StorageImageBucket {
		thumbs, err = NewProviderFromConfig(ctx, cfg, cfg.StorageThumbBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize thumbnail storage: %w", err)
		}
	}

	thumbnailer, err := imaging.NewThumbnailer(cfg.ThumbnailEngine, imaging.Options{
		MaxEdge:   cfg.ThumbnailMaxEdge,
		Quality:   cfg.ThumbnailQuality,
		MaxPixels: cfg.ImageMaxPixels,
	})
	if err != nil {
		return nil, err
	}

	utils.Log.Infof("[Storage] Storage ready: %s (thumbnails: %s, engine: %s)", images.Name(), thumbs.Name(), thumbnailer.Name())
	return NewBackend(images, thumbs, thumbnailer), nil
}
