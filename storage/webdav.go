package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
	// PublicBase 对外访问前缀，对象由本服务代理读取
	PublicBase string
}

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
	urls     urlMapper
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := newWebDAVStorage(client, cfg)

	// 验证连接：OPTIONS 探测服务端，再确保根目录存在
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, client.Connect()
	}); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	if err := s.ensureDir(ctx, s.rootPath); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	return s, nil
}

func newWebDAVStorage(client *gowebdav.Client, cfg WebDAVConfig) *WebDAVStorage {
	rootPath := strings.Trim(cfg.RootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}
	publicBase := cfg.PublicBase
	if publicBase == "" {
		publicBase = "/uploads"
	}
	return &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		rootPath: rootPath,
		urls:     newURLMapper(publicBase),
	}
}

// withContext 在 goroutine 中执行阻塞调用，ctx 取消时提前返回
// gowebdav 不支持 context
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-done:
		return res.v, res.err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + key
	}
	return "/" + key
}

// ensureDir 逐级创建目录，已存在时忽略
func (s *WebDAVStorage) ensureDir(ctx context.Context, dir string) error {
	if dir == "" || dir == "/" || dir == "." {
		return nil
	}
	_, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.MkdirAll(dir, 0755)
	})
	if err != nil && !isCollectionExistsError(err) {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// isCollectionExistsError 判断是否为目录已存在的错误
func isCollectionExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// 常见 WebDAV 服务器的 "目录已存在" 错误信息
	for _, s := range []string{"already exists", "Conflict", "409", "Method Not Allowed", "405"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !IsValidStoragePath(key) {
		return fmt.Errorf("invalid storage path: %s", key)
	}
	fullPath := s.fullPath(key)

	if err := s.ensureDir(ctx, path.Dir(fullPath)); err != nil {
		return fmt.Errorf("failed to ensure parent directory for %s: %w", key, err)
	}

	_, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.WriteStream(fullPath, r, 0644)
	})
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", key, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 读取文件
func (s *WebDAVStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := s.fullPath(key)
	rc, err := withContext(ctx, func() (io.ReadCloser, error) {
		return s.client.ReadStream(fullPath)
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", key, err)
	}
	return rc, nil
}

// DeleteWithContext 从 WebDAV 删除文件，文件不存在视为成功
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, key string) error {
	fullPath := s.fullPath(key)
	_, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, s.client.Remove(fullPath)
	})
	if err != nil && !gowebdav.IsErrNotFound(err) {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

// Stat 获取文件信息
func (s *WebDAVStorage) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	fullPath := s.fullPath(key)
	fi, err := withContext(ctx, func() (os.FileInfo, error) {
		return s.client.Stat(fullPath)
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", key, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	info := &ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		LastModified: fi.ModTime().UTC(),
	}
	if f, ok := fi.(*gowebdav.File); ok {
		info.ContentType = f.ContentType()
	}
	if info.ContentType == "" {
		info.ContentType = mime.TypeByExtension(path.Ext(key))
	}
	return info, nil
}

// List 递归列出前缀目录下的文件
func (s *WebDAVStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := withContext(ctx, func() ([]os.FileInfo, error) {
			return s.client.ReadDir(s.fullPath(dir))
		})
		if err != nil {
			if gowebdav.IsErrNotFound(err) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			key := strings.TrimLeft(path.Join(dir, e.Name()), "/")
			if e.IsDir() {
				if err := walk(key); err != nil {
					return err
				}
				continue
			}
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		return nil
	}

	// 从前缀所在目录开始遍历
	start := ""
	if i := strings.LastIndex(prefix, "/"); i > 0 {
		start = prefix[:i]
	}
	if err := walk(start); err != nil {
		return nil, fmt.Errorf("failed to list webdav files: %w", err)
	}
	return keys, nil
}

// URL 返回代理访问地址
func (s *WebDAVStorage) URL(key string) string {
	return s.urls.URL(key)
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	_, err := withContext(ctx, func() ([]os.FileInfo, error) {
		return s.client.ReadDir(s.rootPath + "/")
	})
	return err
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
