package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/webdav"
)

// newTestWebDAV 启动内存 WebDAV 服务
func newTestWebDAV(t *testing.T, root string) *WebDAVStorage {
	t.Helper()
	srv := httptest.NewServer(&webdav.Handler{
		FileSystem: webdav.NewMemFS(),
		LockSystem: webdav.NewMemLS(),
	})
	t.Cleanup(srv.Close)

	s, err := NewWebDAVStorage(WebDAVConfig{
		URL:        srv.URL,
		RootPath:   root,
		Timeout:    5 * time.Second,
		PublicBase: "/uploads",
	})
	require.NoError(t, err)
	return s
}

func TestWebDAVStorageValidation(t *testing.T) {
	_, err := NewWebDAVStorage(WebDAVConfig{URL: ""})
	assert.Error(t, err)

	_, err = NewWebDAVStorage(WebDAVConfig{URL: "http://127.0.0.1:1", Timeout: time.Second})
	assert.Error(t, err)

	// 可达但不是 WebDAV 服务
	notDAV := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(notDAV.Close)
	_, err = NewWebDAVStorage(WebDAVConfig{URL: notDAV.URL, Timeout: time.Second})
	assert.Error(t, err)

	// 根目录为空时同样探测服务端
	s := newTestWebDAV(t, "")
	assert.True(t, strings.HasPrefix(s.Name(), "webdav:"))
}

// TestWebDAVStorageFullPath 测试路径生成逻辑
func TestWebDAVStorageFullPath(t *testing.T) {
	tests := []struct {
		name     string
		rootPath string
		key      string
		want     string
	}{
		{"empty root path", "", "images/a.jpg", "/images/a.jpg"},
		{"root with slashes", "/gallery/", "images/a.jpg", "/gallery/images/a.jpg"},
		{"leading slash key", "gallery", "/thumbnails/a.jpg", "/gallery/thumbnails/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newWebDAVStorage(nil, WebDAVConfig{URL: "http://dav", RootPath: tt.rootPath})
			assert.Equal(t, tt.want, s.fullPath(tt.key))
		})
	}
}

func TestWebDAVStorageRoundTrip(t *testing.T) {
	s := newTestWebDAV(t, "/gallery")
	ctx := context.Background()

	save(t, s, "images/a.jpg", "payload")

	info, err := s.Stat(ctx, "images/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), info.Size)

	rc, err := s.GetWithContext(ctx, "images/a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	save(t, s, "thumbnails/a.jpg", "thumb")
	keys, err := s.List(ctx, "images/")
	require.NoError(t, err)
	assert.Equal(t, []string{"images/a.jpg"}, keys)

	assert.Equal(t, "/uploads/images/a.jpg", s.URL("images/a.jpg"))
	assert.NoError(t, s.Health(ctx))

	require.NoError(t, s.DeleteWithContext(ctx, "images/a.jpg"))
	_, err = s.Stat(ctx, "images/a.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, s.DeleteWithContext(ctx, "images/a.jpg"))
}

func TestWebDAVStorageContextCanceled(t *testing.T) {
	s := newTestWebDAV(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Stat(ctx, "images/a.jpg")
	assert.Error(t, err)
}
