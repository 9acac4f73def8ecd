// Package image 生成缩略图，提供纯 Go 和 libvips 两种实现
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// 默认缩略图参数
const (
	DefaultMaxEdge   = 300
	DefaultQuality   = 85
	DefaultMaxPixels = 50_000_000
)

// ThumbnailMIME 缩略图统一输出为 JPEG
const ThumbnailMIME = "image/jpeg"

// ErrUnsupportedImage 无法解码的图片数据
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// ErrImageTooLarge 像素数超过上限，解码前拒绝
var ErrImageTooLarge = errors.New("image dimensions exceed limit")

// Thumbnail 缩略图结果
type Thumbnail struct {
	Data         []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// Options 缩略图参数
type Options struct {
	MaxEdge   int
	Quality   int
	MaxPixels int64
}

func (o Options) normalized() Options {
	if o.MaxEdge <= 0 {
		o.MaxEdge = DefaultMaxEdge
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	return o
}

// checkPixels 文件很小也可能声明巨大的尺寸，解码像素前先按头部尺寸拦截
func (o Options) checkPixels(cfg image.Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrUnsupportedImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > o.MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// Fit 计算等比缩放到 maxEdge 见方以内的尺寸，不放大
func Fit(width, height, maxEdge int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	if width >= height {
		h := height * maxEdge / width
		if h < 1 {
			h = 1
		}
		return maxEdge, h
	}
	w := width * maxEdge / height
	if w < 1 {
		w = 1
	}
	return w, maxEdge
}

// DecodeConfig 读取图片尺寸和格式，不解码像素
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return cfg, format, nil
}

// NativeThumbnailer 纯 Go 实现，基于 x/image/draw
type NativeThumbnailer struct {
	opts Options
}

// NewNativeThumbnailer 创建纯 Go 缩略图生成器
func NewNativeThumbnailer(opts Options) *NativeThumbnailer {
	return &NativeThumbnailer{opts: opts.normalized()}
}

// Name 引擎名称
func (t *NativeThumbnailer) Name() string {
	return "native"
}

// Generate 生成 JPEG 缩略图，透明区域填充白色
func (t *NativeThumbnailer) Generate(data []byte) (*Thumbnail, error) {
	cfg, _, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if err := t.opts.checkPixels(cfg); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), t.opts.MaxEdge)
	if w == 0 || h == 0 {
		return nil, ErrUnsupportedImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: t.opts.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:         buf.Bytes(),
		Width:        w,
		Height:       h,
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
	}, nil
}
