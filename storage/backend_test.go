package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/anoixa/clone-gallery/internal/errs"
	imaging "github.com/anoixa/clone-gallery/internal/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader 只含 IHDR 和 IEND 的 PNG：体积很小，但声明了任意尺寸
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(data)))
		buf.Write(n[:])
		buf.WriteString(typ)
		buf.Write(data)
		binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(append([]byte(typ), data...)))
		buf.Write(n[:])
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // 8 位灰度
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func newTestBackend(t *testing.T) (*Backend, *LocalStorage) {
	t.Helper()
	local := newTestLocal(t)
	return NewBackend(local, nil, imaging.NewNativeThumbnailer(imaging.Options{})), local
}

// brokenProvider 写入总是失败
type brokenProvider struct {
	Provider
}

func (brokenProvider) SaveWithContext(context.Context, string, io.Reader, int64, string) error {
	return errors.New("disk full")
}

func TestBackendStore(t *testing.T) {
	backend, local := newTestBackend(t)
	ctx := context.Background()

	stored, err := backend.Store(ctx, testPNG(t, 600, 400), "holiday.png", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Key, "images/"))
	assert.True(t, strings.HasSuffix(stored.Key, ".png"))
	assert.True(t, strings.HasPrefix(stored.ThumbnailKey, "thumbnails/"))
	assert.True(t, strings.HasSuffix(stored.ThumbnailKey, ".jpg"))
	assert.Equal(t, "/uploads/"+stored.Key, stored.URL)
	assert.Equal(t, "/uploads/"+stored.ThumbnailKey, stored.ThumbnailURL)
	assert.Equal(t, 600, stored.Width)
	assert.Equal(t, 400, stored.Height)
	assert.Equal(t, "png", stored.Format)
	assert.Equal(t, "image/png", stored.ContentType)

	// 文件名中的 uuid 与缩略图一致
	id := strings.TrimSuffix(strings.TrimPrefix(stored.Key, "images/"), ".png")
	assert.Equal(t, "thumbnails/"+id+".jpg", stored.ThumbnailKey)

	rc, err := local.GetWithContext(ctx, stored.ThumbnailKey)
	require.NoError(t, err)
	defer rc.Close()
	cfg, format, err := image.DecodeConfig(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestBackendStoreRejectsInvalidInput(t *testing.T) {
	backend, local := newTestBackend(t)
	ctx := context.Background()

	_, err := backend.Store(ctx, nil, "a.png", "image/png")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = backend.Store(ctx, []byte("%PDF-1.4"), "a.pdf", "application/pdf")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// 声明为图片但内容不是
	_, err = backend.Store(ctx, []byte("<html></html>"), "a.png", "image/png")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// PNG 头正确但数据损坏
	_, err = backend.Store(ctx, testPNG(t, 10, 10)[:40], "a.png", "image/png")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// 尺寸超限在解码像素前拒绝
	_, err = backend.Store(ctx, pngHeader(20000, 20000), "huge.png", "image/png")
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), "dimensions")

	keys, err := local.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestBackendStoreGenericContentType(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	for _, ct := range []string{"", "application/octet-stream"} {
		stored, err := backend.Store(ctx, testPNG(t, 20, 20), "a.png", ct)
		require.NoError(t, err, ct)
		assert.Equal(t, "image/png", stored.ContentType)
	}

	_, err := backend.Store(ctx, []byte("plain text"), "a.png", "application/octet-stream")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// 明确声明的非图片类型仍然拒绝
	_, err = backend.Store(ctx, testPNG(t, 20, 20), "a.png", "text/plain")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestBackendStoreThumbnailFailureRemovesOriginal(t *testing.T) {
	local := newTestLocal(t)
	backend := NewBackend(local, brokenProvider{Provider: local}, imaging.NewNativeThumbnailer(imaging.Options{}))
	ctx := context.Background()

	_, err := backend.Store(ctx, testPNG(t, 50, 50), "a.png", "image/png")
	assert.ErrorIs(t, err, errs.ErrIO)

	keys, err := local.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys, "original must be removed when the thumbnail cannot be written")
}

func TestBackendStoreOriginalFailure(t *testing.T) {
	local := newTestLocal(t)
	backend := NewBackend(brokenProvider{Provider: local}, local, imaging.NewNativeThumbnailer(imaging.Options{}))

	_, err := backend.Store(context.Background(), testPNG(t, 50, 50), "a.png", "image/png")
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestBackendDeleteAndInspect(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	stored, err := backend.Store(ctx, testPNG(t, 20, 20), "a.png", "image/png")
	require.NoError(t, err)

	info, err := backend.Inspect(ctx, stored.URL)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, stored.SizeBytes, info.SizeBytes)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, backend.Delete(ctx, stored.URL, stored.ThumbnailURL))

	info, err = backend.Inspect(ctx, stored.URL)
	require.NoError(t, err)
	assert.False(t, info.Exists)

	// 重复删除仍然成功
	assert.NoError(t, backend.Delete(ctx, stored.URL, stored.ThumbnailURL))

	info, err = backend.Inspect(ctx, "https://elsewhere.example.com/a.png")
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestBackendOpen(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	stored, err := backend.Store(ctx, testPNG(t, 20, 20), "a.png", "image/png")
	require.NoError(t, err)

	rc, info, err := backend.Open(ctx, stored.ThumbnailKey)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Greater(t, info.Size, int64(0))

	_, _, err = backend.Open(ctx, "images/missing.png")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestBackendFindOrphans(t *testing.T) {
	backend, local := newTestBackend(t)
	ctx := context.Background()

	kept, err := backend.Store(ctx, testPNG(t, 20, 20), "a.png", "image/png")
	require.NoError(t, err)
	save(t, local, "images/orphan.png", "x")

	refs := map[string]struct{}{kept.URL: {}, kept.ThumbnailURL: {}}
	orphans, err := backend.FindOrphans(ctx, refs)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "images/orphan.png", orphans[0].Key)
	assert.Equal(t, "/uploads/images/orphan.png", orphans[0].URL)
}
