package albums

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/database/repo/albums"
	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/utils"
)

// Service 相册服务层
type Service struct {
	repo   *albums.Repository
	images *images.Repository
}

// AlbumInfo 相册信息（从 repository 透传）
type AlbumInfo = albums.AlbumInfo

// CreateInput 创建相册参数
type CreateInput struct {
	Title       string
	Description string
	Privacy     models.Privacy
}

// Detail 相册及其中当前用户可见的图片
type Detail struct {
	models.Album
	Images []models.Image `json:"images"`
}

// ListResult 相册分页结果
type ListResult struct {
	Items []AlbumInfo `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// NewService 创建新的相册服务
func NewService(repo *albums.Repository, imageRepo *images.Repository) *Service {
	return &Service{repo: repo, images: imageRepo}
}

// Create 创建相册，访客只读
func (s *Service) Create(ctx context.Context, requester *access.Requester, in CreateInput) (*models.Album, error) {
	if requester == nil || requester.ID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if !access.CanUpload(requester) {
		return nil, errs.ErrForbidden
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || utf8.RuneCountInString(in.Title) > 200 {
		return nil, errs.Invalid("title", "title must be 1-200 characters")
	}
	if in.Privacy == "" {
		in.Privacy = models.PrivacyPublic
	}
	if in.Privacy != models.PrivacyPublic && in.Privacy != models.PrivacyPrivate {
		return nil, errs.Invalid("privacy", "privacy must be public or private")
	}

	album := &models.Album{
		Title:       in.Title,
		Description: in.Description,
		Privacy:     in.Privacy,
		CreatedBy:   requester.ID,
	}
	if err := s.repo.Create(ctx, album); err != nil {
		return nil, err
	}
	utils.Log.WithField("album_id", album.ID).Infof("[Albums] Created by %s", requester.ID)
	return album, nil
}

// Get 获取相册详情，相册内的图片同样按可见性过滤
func (s *Service) Get(ctx context.Context, id uint, requester *access.Requester) (*Detail, error) {
	album, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(requester, access.AlbumResource(album)) {
		return nil, errs.ErrForbidden
	}

	all, err := s.repo.Images(ctx, id)
	if err != nil {
		return nil, err
	}
	scope := access.ListScope(requester, access.Filter{})
	visible := make([]models.Image, 0, len(all))
	for _, img := range all {
		if scope.Allows(access.ImageResource(&img)) {
			visible = append(visible, img)
		}
	}
	return &Detail{Album: *album, Images: visible}, nil
}

// List 分页列出可见相册，ownerID 非空时只列出该用户的相册
func (s *Service) List(ctx context.Context, requester *access.Requester, ownerID string, page, limit int) (*ListResult, error) {
	page, limit, offset := utils.Paginate(page, limit)
	scope := access.ListScope(requester, access.Filter{UploaderID: ownerID})

	items, total, err := s.repo.List(ctx, albums.ListQuery{
		AllPrivate: scope.AllPrivate,
		ViewerID:   scope.ViewerID,
		OwnerID:    scope.UploaderID,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// writable 加载相册并检查写权限
func (s *Service) writable(ctx context.Context, id uint, requester *access.Requester) (*models.Album, error) {
	if requester == nil || requester.ID == "" {
		return nil, errs.ErrUnauthenticated
	}
	album, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanWrite(requester, access.AlbumResource(album)) {
		return nil, errs.ErrForbidden
	}
	return album, nil
}

// AddImage 添加图片到相册，不能添加自己无权查看的图片
func (s *Service) AddImage(ctx context.Context, requester *access.Requester, albumID uint, imageID string) error {
	if _, err := s.writable(ctx, albumID, requester); err != nil {
		return err
	}
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if !access.CanRead(requester, access.ImageResource(image)) {
		return errs.ErrForbidden
	}
	return s.repo.AddImage(ctx, albumID, imageID)
}

// RemoveImage 从相册移除图片
func (s *Service) RemoveImage(ctx context.Context, requester *access.Requester, albumID uint, imageID string) error {
	if _, err := s.writable(ctx, albumID, requester); err != nil {
		return err
	}
	return s.repo.RemoveImage(ctx, albumID, imageID)
}

// Delete 删除相册
func (s *Service) Delete(ctx context.Context, requester *access.Requester, albumID uint) error {
	if _, err := s.writable(ctx, albumID, requester); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, albumID); err != nil {
		return err
	}
	utils.Log.WithField("album_id", albumID).Infof("[Albums] Deleted by %s", requester.ID)
	return nil
}
