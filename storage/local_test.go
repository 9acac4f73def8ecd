package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return s
}

func save(t *testing.T, s Provider, key, content string) {
	t.Helper()
	require.NoError(t, s.SaveWithContext(context.Background(), key, strings.NewReader(content), int64(len(content)), "text/plain"))
}

// TestLocalStorage_PathTraversal_Prevention 测试路径遍历防护
func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	storage := newTestLocal(t)
	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"../../.env",
		"../config.yaml",
		"..",
		".",
		"",
		"folder/../../../etc/passwd",
		"test/../../test.txt",
		"/etc/passwd",
		"images//x.jpg",
	}

	for _, attempt := range traversalAttempts {
		t.Run("save_"+attempt, func(t *testing.T) {
			err := storage.SaveWithContext(ctx, attempt, strings.NewReader("x"), 1, "")
			assert.Error(t, err, "Path traversal attempt should be rejected: %s", attempt)
			assert.Contains(t, err.Error(), "invalid")
		})
	}

	_, err := storage.GetWithContext(ctx, "../../../etc/passwd")
	assert.ErrorContains(t, err, "invalid")
	assert.ErrorContains(t, storage.DeleteWithContext(ctx, "../../../etc/passwd"), "invalid")
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	storage := newTestLocal(t)
	ctx := context.Background()

	save(t, storage, "images/abc.jpg", "hello")

	rc, err := storage.GetWithContext(ctx, "images/abc.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := storage.Stat(ctx, "images/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.False(t, info.LastModified.IsZero())

	assert.Equal(t, "/uploads/images/abc.jpg", storage.URL("images/abc.jpg"))

	require.NoError(t, storage.DeleteWithContext(ctx, "images/abc.jpg"))
	_, err = storage.Stat(ctx, "images/abc.jpg")
	assert.True(t, errors.Is(err, ErrObjectNotFound))

	// 删除不存在的文件视为成功
	assert.NoError(t, storage.DeleteWithContext(ctx, "images/abc.jpg"))

	_, err = storage.GetWithContext(ctx, "images/missing.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_List(t *testing.T) {
	storage := newTestLocal(t)
	ctx := context.Background()

	save(t, storage, "images/a.jpg", "a")
	save(t, storage, "images/b.png", "b")
	save(t, storage, "thumbnails/a.jpg", "t")

	keys, err := storage.List(ctx, "images/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"images/a.jpg", "images/b.png"}, keys)

	keys, err = storage.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestLocalStorage_NoPartialFiles(t *testing.T) {
	storage := newTestLocal(t)
	ctx := context.Background()

	err := storage.SaveWithContext(ctx, "images/broken.jpg", &failingReader{}, -1, "")
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(storage.BasePath(), "images", "broken.jpg"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Join(storage.BasePath(), "images"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be cleaned up")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

// TestLocalStorage_ConcurrentAccess 测试并发写同一 key
func TestLocalStorage_ConcurrentAccess(t *testing.T) {
	storage := newTestLocal(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := storage.SaveWithContext(ctx, "concurrent.txt", strings.NewReader("concurrent content"), -1, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	info, err := storage.Stat(ctx, "concurrent.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len("concurrent content")), info.Size)
}

// TestIsValidStoragePath 测试路径验证函数
func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantValid bool
	}{
		{"simple", "file.txt", true},
		{"nested", "images/0b6a.jpg", true},
		{"empty", "", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"absolute_unix", "/etc/passwd", false},
		{"absolute_windows", "C:\\file.txt", false},
		{"traversal", "../file.txt", false},
		{"null_byte", "file\x00.txt", false},
		{"newline", "file\n.txt", false},
		{"shell", "file;rm -rf /.txt", false},
		{"empty_segment", "images//a.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantValid, IsValidStoragePath(tt.path), "path: %q", tt.path)
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	storage := newTestLocal(t)

	key, ok := KeyFromURL(storage, "/uploads/images/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "images/a.jpg", key)

	_, ok = KeyFromURL(storage, "https://cdn.example.com/images/a.jpg")
	assert.False(t, ok)
	_, ok = KeyFromURL(storage, "/uploads/")
	assert.False(t, ok)
}
