package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	absBasePath string
	urls        urlMapper
}

// NewLocalStorage 创建本地存储提供者
// publicBase 为对外访问前缀，如 /uploads
func NewLocalStorage(basePath, publicBase string) (*LocalStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	testFile := filepath.Join(absPath, ".write_test_"+strconv.FormatInt(time.Now().UnixNano(), 10))
	f, err := os.Create(testFile)
	if err != nil {
		return nil, fmt.Errorf("local storage directory '%s' is not writable: %w", absPath, err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	if publicBase == "" {
		publicBase = "/uploads"
	}

	return &LocalStorage{
		absBasePath: absPath + string(os.PathSeparator),
		urls:        newURLMapper(publicBase),
	}, nil
}

// resolve 校验 key 并返回绝对路径
func (s *LocalStorage) resolve(key string) (string, error) {
	if !IsValidStoragePath(key) {
		return "", fmt.Errorf("invalid storage path: %s", key)
	}
	full := filepath.Join(s.absBasePath, key)
	// 防止目录遍历攻击
	if !strings.HasPrefix(full, s.absBasePath) {
		return "", fmt.Errorf("invalid file path, potential directory traversal: %s", key)
	}
	return full, nil
}

// SaveWithContext 保存文件到本地存储
// 先写临时文件再重命名，读者不会看到写了一半的文件
func (s *LocalStorage) SaveWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dstPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for '%s': %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to copy file content to '%s': %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for '%s': %w", key, err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move file into place '%s': %w", key, err)
	}
	return nil
}

// GetWithContext 从本地存储获取文件
func (s *LocalStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file '%s': %w", key, err)
	}
	return file, nil
}

// OpenFile 打开本地文件，供 http.ServeContent 使用
func (s *LocalStorage) OpenFile(ctx context.Context, key string) (*os.File, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil && os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return f, err
}

// DeleteWithContext 从本地存储删除文件，文件不存在视为成功
func (s *LocalStorage) DeleteWithContext(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete local file '%s': %w", key, err)
	}
	return nil
}

// Stat 获取文件信息
func (s *LocalStorage) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat '%s': %w", key, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	return &ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		LastModified: fi.ModTime().UTC(),
		ContentType:  mime.TypeByExtension(filepath.Ext(key)),
	}, nil
}

// List 列出前缀下的文件，跳过临时文件
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	root := s.absBasePath
	var keys []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list local storage: %w", err)
	}
	return keys, nil
}

// URL 返回对外访问地址
func (s *LocalStorage) URL(key string) string {
	return s.urls.URL(key)
}

// Health 检查存储健康状态
func (s *LocalStorage) Health(ctx context.Context) error {
	_, err := os.ReadDir(s.absBasePath)
	return err
}

// Name 返回存储名称
func (s *LocalStorage) Name() string {
	return "local"
}

// BasePath 返回存储的基础路径
func (s *LocalStorage) BasePath() string {
	return s.absBasePath
}

// IsValidStoragePath 校验存储路径是否合法
func IsValidStoragePath(path string) bool {
	if path == "" {
		return false
	}

	// 不允许绝对路径
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}

	// 防止目录遍历
	if strings.Contains(path, "..") {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			return false
		}
	}

	// 只允许安全字符
	for _, r := range path {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' && r != '/' {
			return false
		}
	}

	return true
}
