package image

import (
	"context"

	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/anoixa/clone-gallery/utils"
)

// DeleteService 图片删除服务
type DeleteService struct {
	repo    *images.Repository
	backend *storage.Backend
}

// NewDeleteService 创建删除服务
func NewDeleteService(repo *images.Repository, backend *storage.Backend) *DeleteService {
	return &DeleteService{repo: repo, backend: backend}
}

// Delete 删除图片记录和存储对象
// 存储删除在事务内执行，失败时记录不会被删除
func (s *DeleteService) Delete(ctx context.Context, id string, requester *access.Requester) error {
	if requester == nil || requester.ID == "" {
		return errs.ErrUnauthenticated
	}
	image, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanWrite(requester, access.ImageResource(image)) {
		return errs.ErrForbidden
	}

	err = s.repo.Delete(ctx, image, func() error {
		return s.backend.Delete(ctx, image.URL, image.ThumbnailURL)
	})
	if err != nil {
		return err
	}

	utils.Log.WithField("image_id", image.ID).Infof("[Delete] Image removed by %s", requester.ID)
	return nil
}
