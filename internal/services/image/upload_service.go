package image

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// UploadInput 单个待上传文件及其元数据
type UploadInput struct {
	Filename      string
	ContentType   string
	Data          []byte
	Title         string
	Caption       string
	AltText       string
	Privacy       models.Privacy
	Tags          []string
	IsAIGenerated bool
}

// UploadResult 批量上传中单个文件的结果
type UploadResult struct {
	FileName string        `json:"file_name"`
	Image    *models.Image `json:"image,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// UploadOptions 上传限制
type UploadOptions struct {
	MaxBytes    int64
	BatchLimit  int
	Concurrency int
}

// UploadService 图片上传服务
type UploadService struct {
	repo    *images.Repository
	backend *storage.Backend
	opts    UploadOptions
}

// NewUploadService 创建上传服务
func NewUploadService(repo *images.Repository, backend *storage.Backend, opts UploadOptions) *UploadService {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	return &UploadService{repo: repo, backend: backend, opts: opts}
}

// Options 返回上传限制
func (s *UploadService) Options() UploadOptions {
	return s.opts
}

func (s *UploadService) validate(in *UploadInput) error {
	if len(in.Data) == 0 {
		return errs.Invalid("file", "empty file")
	}
	if s.opts.MaxBytes > 0 && int64(len(in.Data)) > s.opts.MaxBytes {
		return errs.Invalid("file", fmt.Sprintf("file exceeds %d bytes", s.opts.MaxBytes))
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		in.Title = strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename))
	}
	if in.Title == "" || in.Title == "." {
		in.Title = "untitled"
	}
	if utf8.RuneCountInString(in.Title) > 200 {
		return errs.Invalid("title", "title must be at most 200 characters")
	}
	if utf8.RuneCountInString(in.AltText) > 500 {
		return errs.Invalid("alt_text", "alt text must be at most 500 characters")
	}
	if in.Privacy == "" {
		in.Privacy = models.PrivacyPublic
	}
	if in.Privacy != models.PrivacyPublic && in.Privacy != models.PrivacyPrivate {
		return errs.Invalid("privacy", "privacy must be public or private")
	}
	// 写入存储前校验标签，避免留下孤立对象
	tags, err := images.NormalizeTags(in.Tags)
	if err != nil {
		return err
	}
	in.Tags = tags
	return nil
}

// AuthorizeUpload 未登录返回 ErrUnauthenticated，访客返回 ErrForbidden
func AuthorizeUpload(requester *access.Requester) error {
	if requester == nil || requester.ID == "" {
		return errs.ErrUnauthenticated
	}
	if !access.CanUpload(requester) {
		return errs.ErrForbidden
	}
	return nil
}

// Upload 保存文件并写入记录
// 记录写入失败时删除已保存的对象
func (s *UploadService) Upload(ctx context.Context, requester *access.Requester, in UploadInput) (*models.Image, error) {
	if err := AuthorizeUpload(requester); err != nil {
		return nil, err
	}
	return s.upload(ctx, requester, in)
}

func (s *UploadService) upload(ctx context.Context, requester *access.Requester, in UploadInput) (*models.Image, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	stored, err := s.backend.Store(ctx, in.Data, in.Filename, in.ContentType)
	if err != nil {
		return nil, err
	}

	image := &models.Image{
		Title:         in.Title,
		Caption:       in.Caption,
		AltText:       in.AltText,
		URL:           stored.URL,
		ThumbnailURL:  stored.ThumbnailURL,
		UploaderID:    requester.ID,
		Privacy:       in.Privacy,
		IsAIGenerated: in.IsAIGenerated,
		Width:         stored.Width,
		Height:        stored.Height,
		SizeBytes:     stored.SizeBytes,
		Format:        stored.Format,
	}

	if err := s.repo.CreateWithTags(ctx, image, in.Tags); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if delErr := s.backend.Delete(cleanupCtx, stored.URL, stored.ThumbnailURL); delErr != nil {
			utils.Log.WithField("key", stored.Key).Errorf("[Upload] Failed to remove objects after record failure: %v", delErr)
		}
		return nil, fmt.Errorf("failed to save image record: %w", err)
	}

	utils.Log.WithFields(logrus.Fields{
		"image_id": image.ID,
		"user_id":  requester.ID,
	}).Infof("[Upload] Stored %s (%d bytes)", stored.Key, stored.SizeBytes)
	return image, nil
}

// UploadBatch 并发上传多个文件，单个文件失败不影响其它文件
func (s *UploadService) UploadBatch(ctx context.Context, requester *access.Requester, inputs []UploadInput) ([]*UploadResult, error) {
	if err := AuthorizeUpload(requester); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errs.Invalid("files", "no files provided")
	}
	if len(inputs) > s.opts.BatchLimit {
		return nil, errs.Invalid("files", fmt.Sprintf("at most %d files per batch", s.opts.BatchLimit))
	}

	results := make([]*UploadResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			result := &UploadResult{FileName: in.Filename}
			results[i] = result

			if err := gctx.Err(); err != nil {
				return err
			}
			image, err := s.upload(gctx, requester, in)
			if err != nil {
				result.Error = PublicError(err)
				return nil
			}
			result.Image = image
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PublicError 返回可以展示给调用方的错误文本，内部错误不外泄
func PublicError(err error) string {
	var ve *errs.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, errs.ErrIO):
		return errs.ErrIO.Error()
	default:
		return "upload failed"
	}
}
