package image

import "fmt"

// Thumbnailer 缩略图生成器
type Thumbnailer interface {
	Name() string
	Generate(data []byte) (*Thumbnail, error)
}

// NewThumbnailer 按引擎名称创建缩略图生成器
func NewThumbnailer(engine string, opts Options) (Thumbnailer, error) {
	switch engine {
	case "", "native":
		return NewNativeThumbnailer(opts), nil
	case "vips":
		return NewVipsThumbnailer(opts), nil
	default:
		return nil, fmt.Errorf("unsupported thumbnail engine: %s", engine)
	}
}
