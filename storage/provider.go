package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo 对象元信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Provider 存储提供者接口 - 对象级别的读写抽象
// 所有存储实现（local / minio / s3 / webdav）必须遵循此接口
type Provider interface {
	// SaveWithContext 保存对象，size 未知时传 -1
	SaveWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// GetWithContext 读取对象，不存在时返回 ErrObjectNotFound
	GetWithContext(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteWithContext 删除对象，对象不存在视为成功
	DeleteWithContext(ctx context.Context, key string) error

	// Stat 获取对象元信息，不存在时返回 ErrObjectNotFound
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// List 列出前缀下的所有对象 key
	List(ctx context.Context, prefix string) ([]string, error)

	// URL 返回对象的公开访问地址
	URL(key string) string

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}

// urlMapper 根据基础地址在 key 和公开 URL 之间转换
type urlMapper struct {
	base string
}

func newURLMapper(base string) urlMapper {
	return urlMapper{base: strings.TrimRight(base, "/")}
}

func (m urlMapper) URL(key string) string {
	return m.base + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL 从公开 URL 还原 key，非本存储的 URL 返回 false
func (m urlMapper) KeyFromURL(u string) (string, bool) {
	prefix := m.base + "/"
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

// KeyFromURL 从 Provider 生成的 URL 还原 key
func KeyFromURL(p Provider, u string) (string, bool) {
	return newURLMapper(strings.TrimSuffix(p.URL(""), "/")).KeyFromURL(u)
}
