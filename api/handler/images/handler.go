package images

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	imagesvc "github.com/anoixa/clone-gallery/internal/services/image"
	"github.com/gin-gonic/gin"
)

// Handler 图片处理器
type Handler struct {
	uploader *imagesvc.UploadService
	query    *imagesvc.QueryService
	deleter  *imagesvc.DeleteService
}

// NewHandler 图片处理器
func NewHandler(uploader *imagesvc.UploadService, query *imagesvc.QueryService, deleter *imagesvc.DeleteService) *Handler {
	return &Handler{
		uploader: uploader,
		query:    query,
		deleter:  deleter,
	}
}

// metadata 从表单读取图片元数据，批量上传时所有文件共用
type metadata struct {
	Title   string
	Caption string
	AltText string
	Privacy models.Privacy
	Tags    []string
}

func readMetadata(c *gin.Context) (*metadata, error) {
	privacy, err := models.ParsePrivacy(c.PostForm("privacy"))
	if err != nil {
		return nil, errs.Invalid("privacy", "privacy must be public or private")
	}
	return &metadata{
		Title:   c.PostForm("title"),
		Caption: c.PostForm("caption"),
		AltText: c.PostForm("alt_text"),
		Privacy: privacy,
		Tags:    splitTags(c.PostFormArray("tags")),
	}, nil
}

// splitTags 支持多个 tags 字段，也支持逗号分隔
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// readFile 读取上传文件，超过 maxBytes 直接拒绝
func readFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, errs.Invalid("file", fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errs.Invalid("file", "unable to read uploaded file")
	}
	defer f.Close()

	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Invalid("file", "unable to read uploaded file")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, errs.Invalid("file", fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}
	return data, nil
}

func (m *metadata) input(fh *multipart.FileHeader, data []byte) imagesvc.UploadInput {
	return imagesvc.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		Title:       m.Title,
		Caption:     m.Caption,
		AltText:     m.AltText,
		Privacy:     m.Privacy,
		Tags:        m.Tags,
	}
}
