package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anoixa/clone-gallery/internal/errs"
	imaging "github.com/anoixa/clone-gallery/internal/image"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/google/uuid"
)

// 对象 key 前缀
const (
	ImagePrefix     = "images/"
	ThumbnailPrefix = "thumbnails/"
)

// Thumbnailer 缩略图生成器，由 internal/image 实现
type Thumbnailer interface {
	Name() string
	Generate(data []byte) (*imaging.Thumbnail, error)
}

// StoredImage 上传结果
type StoredImage struct {
	URL          string
	ThumbnailURL string
	Key          string
	ThumbnailKey string
	ContentType  string
	Format       string
	SizeBytes    int64
	Width        int
	Height       int
}

// FileInfo 对象检查结果，Exists 为 false 时其余字段为零值
type FileInfo struct {
	Exists       bool      `json:"exists"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type"`
}

// Backend 图片存储后端：原图 + 缩略图
// images 和 thumbs 可以是同一个 Provider（local / webdav），也可以是两个 bucket
type Backend struct {
	images      Provider
	thumbs      Provider
	thumbnailer Thumbnailer
}

// NewBackend 创建存储后端
func NewBackend(images, thumbs Provider, thumbnailer Thumbnailer) *Backend {
	if thumbs == nil {
		thumbs = images
	}
	return &Backend{images: images, thumbs: thumbs, thumbnailer: thumbnailer}
}

// Name 返回存储名称
func (b *Backend) Name() string {
	return b.images.Name()
}

// Providers 返回原图和缩略图存储
func (b *Backend) Providers() (images, thumbs Provider) {
	return b.images, b.thumbs
}

// Store 保存原图和缩略图
// 缩略图生成或写入失败时删除已写入的原图，调用方不会看到半成品
func (b *Backend) Store(ctx context.Context, data []byte, originalFilename, contentType string) (*StoredImage, error) {
	if len(data) == 0 {
		return nil, errs.Invalid("file", "empty file")
	}
	// 客户端未声明或只给出通用二进制类型时交给内容嗅探判断
	if declared := utils.NormalizeMIME(contentType); !utils.IsGenericMIME(declared) && !utils.IsAllowedImageMIME(declared) {
		return nil, errs.Invalid("file", "unsupported content type: "+declared)
	}
	// 声明的类型不可信，以实际内容为准
	sniffed := utils.SniffContentType(data)
	if !utils.IsAllowedImageMIME(sniffed) {
		return nil, errs.Invalid("file", "file content is not a supported image")
	}

	thumb, err := b.thumbnailer.Generate(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedImage) {
			return nil, errs.Invalid("file", "unsupported or corrupt image")
		}
		if errors.Is(err, imaging.ErrImageTooLarge) {
			return nil, errs.Invalid("file", "image dimensions exceed limit")
		}
		return nil, fmt.Errorf("%w: thumbnail generation: %v", errs.ErrIO, err)
	}

	id := uuid.NewString()
	ext := utils.ExtensionFor(originalFilename, sniffed)
	key := ImagePrefix + id + ext
	thumbKey := ThumbnailPrefix + id + ".jpg"

	if err := b.images.SaveWithContext(ctx, key, bytes.NewReader(data), int64(len(data)), sniffed); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	if err := b.thumbs.SaveWithContext(ctx, thumbKey, bytes.NewReader(thumb.Data), int64(len(thumb.Data)), imaging.ThumbnailMIME); err != nil {
		// ctx 可能已取消，清理使用独立的 context
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if delErr := b.images.DeleteWithContext(cleanupCtx, key); delErr != nil {
			utils.Log.WithField("key", key).Errorf("[Storage] Failed to remove original after thumbnail failure: %v", delErr)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	return &StoredImage{
		URL:          b.images.URL(key),
		ThumbnailURL: b.thumbs.URL(thumbKey),
		Key:          key,
		ThumbnailKey: thumbKey,
		ContentType:  sniffed,
		Format:       strings.TrimPrefix(ext, "."),
		SizeBytes:    int64(len(data)),
		Width:        thumb.SourceWidth,
		Height:       thumb.SourceHeight,
	}, nil
}

// Delete 删除原图和缩略图，对象不存在视为成功
// 无法识别的 URL 不属于本存储，跳过
func (b *Backend) Delete(ctx context.Context, fileURL, thumbnailURL string) error {
	var errList []error
	if key, ok := KeyFromURL(b.images, fileURL); ok {
		if err := b.images.DeleteWithContext(ctx, key); err != nil {
			errList = append(errList, err)
		}
	} else if fileURL != "" {
		utils.Log.WithField("url", fileURL).Warn("[Storage] URL does not belong to this backend, skipped")
	}
	if key, ok := KeyFromURL(b.thumbs, thumbnailURL); ok {
		if err := b.thumbs.DeleteWithContext(ctx, key); err != nil {
			errList = append(errList, err)
		}
	}
	if len(errList) > 0 {
		return fmt.Errorf("%w: %v", errs.ErrIO, errors.Join(errList...))
	}
	return nil
}

// Inspect 查询原图对象信息
func (b *Backend) Inspect(ctx context.Context, fileURL string) (*FileInfo, error) {
	key, ok := KeyFromURL(b.images, fileURL)
	if !ok {
		return &FileInfo{Exists: false}, nil
	}
	info, err := b.images.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return &FileInfo{Exists: false}, nil
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return &FileInfo{
		Exists:       true,
		SizeBytes:    info.Size,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
	}, nil
}

// Open 按 key 读取对象，用于代理访问（local / webdav）
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	p := b.images
	if strings.HasPrefix(key, ThumbnailPrefix) {
		p = b.thumbs
	}
	info, err := p.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, errs.ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	rc, err := p.GetWithContext(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, errs.ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return rc, info, nil
}

// Health 检查原图和缩略图存储
func (b *Backend) Health(ctx context.Context) error {
	if err := b.images.Health(ctx); err != nil {
		return err
	}
	if b.thumbs != b.images {
		return b.thumbs.Health(ctx)
	}
	return nil
}

// Orphan 存储中存在但没有被任何图片记录引用的对象
type Orphan struct {
	Provider Provider
	Key      string
	URL      string
}

// FindOrphans 列出未被引用的对象，referenced 为数据库中记录的 URL 集合
func (b *Backend) FindOrphans(ctx context.Context, referenced map[string]struct{}) ([]Orphan, error) {
	var orphans []Orphan
	scan := func(p Provider, prefix string) error {
		keys, err := p.List(ctx, prefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			u := p.URL(key)
			if _, ok := referenced[u]; !ok {
				orphans = append(orphans, Orphan{Provider: p, Key: key, URL: u})
			}
		}
		return nil
	}
	if err := scan(b.images, ImagePrefix); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	if err := scan(b.thumbs, ThumbnailPrefix); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return orphans, nil
}
