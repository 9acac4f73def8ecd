package image

import (
	"fmt"
	"sync"

	"github.com/anoixa/clone-gallery/utils"
	"github.com/davidbyttow/govips/v2/vips"
)

var vipsOnce sync.Once

// startVips 进程内只初始化一次 libvips
func startVips() {
	vipsOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			utils.Log.Debugf("[Vips] %s: %s", domain, msg)
		}, vips.LogLevelWarning)
		vips.Startup(&vips.Config{ConcurrencyLevel: 1})
		utils.Log.Info("[Vips] libvips started")
	})
}

// ShutdownVips 关闭 libvips，serve 退出时调用
func ShutdownVips() {
	vips.Shutdown()
}

// VipsThumbnailer 基于 libvips 的实现，适合大图
type VipsThumbnailer struct {
	opts Options
}

// NewVipsThumbnailer 创建 libvips 缩略图生成器
func NewVipsThumbnailer(opts Options) *VipsThumbnailer {
	startVips()
	return &VipsThumbnailer{opts: opts.normalized()}
}

// Name 引擎名称
func (t *VipsThumbnailer) Name() string {
	return "vips"
}

// Generate 生成 JPEG 缩略图
func (t *VipsThumbnailer) Generate(data []byte) (*Thumbnail, error) {
	cfg, _, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if err := t.opts.checkPixels(cfg); err != nil {
		return nil, err
	}
	w, h := Fit(cfg.Width, cfg.Height, t.opts.MaxEdge)

	img, err := vips.NewThumbnailFromBuffer(data, w, h, vips.InterestingNone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	defer img.Close()

	if img.HasAlpha() {
		if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, fmt.Errorf("failed to flatten alpha: %w", err)
		}
	}

	out, _, err := img.ExportJpeg(&vips.JpegExportParams{
		Quality:       t.opts.Quality,
		StripMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:         out,
		Width:        img.Width(),
		Height:       img.Height(),
		SourceWidth:  cfg.Width,
		SourceHeight: cfg.Height,
	}, nil
}
