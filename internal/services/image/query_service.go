package image

import (
	"context"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/anoixa/clone-gallery/utils"
)

// ListParams 列表查询参数
type ListParams struct {
	Page       int
	Limit      int
	UploaderID string
	Privacy    models.Privacy
	Tag        string
}

// ListResult 分页结果
type ListResult struct {
	Items []models.Image `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// QueryService 图片查询服务
type QueryService struct {
	repo    *images.Repository
	backend *storage.Backend
}

// NewQueryService 创建查询服务
func NewQueryService(repo *images.Repository, backend *storage.Backend) *QueryService {
	return &QueryService{repo: repo, backend: backend}
}

// load 读取图片并检查读权限，不计浏览数
func (s *QueryService) load(ctx context.Context, id string, requester *access.Requester) (*models.Image, error) {
	image, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(requester, access.ImageResource(image)) {
		return nil, errs.ErrForbidden
	}
	return image, nil
}

// Get 获取图片详情，浏览数加一并返回累加后的值
func (s *QueryService) Get(ctx context.Context, id string, requester *access.Requester) (*models.Image, error) {
	image, err := s.load(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	views, err := s.repo.IncrementViews(ctx, image)
	if err != nil {
		return nil, err
	}
	image.Views = views
	return image, nil
}

// List 按访问范围分页列出图片
func (s *QueryService) List(ctx context.Context, requester *access.Requester, p ListParams) (*ListResult, error) {
	page, limit, offset := utils.Paginate(p.Page, p.Limit)
	scope := access.ListScope(requester, access.Filter{UploaderID: p.UploaderID, Privacy: p.Privacy})

	items, total, err := s.repo.List(ctx, images.ListQuery{
		AllPrivate: scope.AllPrivate,
		ViewerID:   scope.ViewerID,
		UploaderID: scope.UploaderID,
		Privacy:    scope.Privacy,
		Tag:        p.Tag,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Image{}
	}
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Inspect 检查图片原文件在存储中的状态
func (s *QueryService) Inspect(ctx context.Context, id string, requester *access.Requester) (*storage.FileInfo, error) {
	image, err := s.load(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	return s.backend.Inspect(ctx, image.URL)
}
