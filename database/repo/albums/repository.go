package albums

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	"gorm.io/gorm"
)

// Repository 相册仓库 - 封装所有相册相关的数据库操作
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的相册仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// AlbumInfo 相册及其图片数量
type AlbumInfo struct {
	models.Album
	ImageCount int64 `json:"image_count"`
}

// ListQuery 相册列表条件，语义同图片列表
type ListQuery struct {
	AllPrivate bool
	ViewerID   string
	OwnerID    string
	Offset     int
	Limit      int
}

// Create 创建相册
func (r *Repository) Create(ctx context.Context, album *models.Album) error {
	if err := r.db.WithContext(ctx).Create(album).Error; err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}

// GetByID 获取相册
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Album, error) {
	var album models.Album
	if err := r.db.WithContext(ctx).First(&album, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &album, nil
}

// List 分页列出相册，按创建时间倒序
func (r *Repository) List(ctx context.Context, q ListQuery) ([]AlbumInfo, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Album{})
	switch {
	case q.AllPrivate:
	case q.ViewerID == "":
		db = db.Where("privacy = ?", models.PrivacyPublic)
	default:
		db = db.Where("(privacy = ? OR created_by = ?)", models.PrivacyPublic, q.ViewerID)
	}
	if q.OwnerID != "" {
		db = db.Where("created_by = ?", q.OwnerID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var albums []models.Album
	if err := db.Order("created_at DESC").Order("id DESC").Offset(q.Offset).Limit(q.Limit).Find(&albums).Error; err != nil {
		return nil, 0, err
	}
	if len(albums) == 0 {
		return []AlbumInfo{}, total, nil
	}

	ids := make([]uint, len(albums))
	for i, a := range albums {
		ids[i] = a.ID
	}
	var counts []struct {
		AlbumID uint
		Count   int64
	}
	if err := r.db.WithContext(ctx).Model(&models.AlbumImage{}).
		Select("album_id, COUNT(*) AS count").
		Where("album_id IN ?", ids).
		Group("album_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, err
	}
	countMap := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countMap[c.AlbumID] = c.Count
	}

	infos := make([]AlbumInfo, len(albums))
	for i, a := range albums {
		infos[i] = AlbumInfo{Album: a, ImageCount: countMap[a.ID]}
	}
	return infos, total, nil
}

// Images 按位置返回相册中的图片
func (r *Repository) Images(ctx context.Context, albumID uint) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).
		Select("images.*").
		Joins("JOIN album_images ON album_images.image_id = images.id").
		Where("album_images.album_id = ?", albumID).
		Order("album_images.position ASC").
		Preload("Tags").
		Find(&images).Error
	return images, err
}

// AddImage 追加图片到相册末尾，相册没有封面时设为封面
// 重复添加视为成功
func (r *Repository) AddImage(ctx context.Context, albumID uint, imageID string) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.AlbumImage{}).
			Where("album_id = ? AND image_id = ?", albumID, imageID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return nil
		}

		var maxPos *int
		if err := tx.Model(&models.AlbumImage{}).
			Where("album_id = ?", albumID).
			Select("MAX(position)").Row().Scan(&maxPos); err != nil {
			return err
		}
		next := 0
		if maxPos != nil {
			next = *maxPos + 1
		}

		if err := tx.Create(&models.AlbumImage{AlbumID: albumID, ImageID: imageID, Position: next}).Error; err != nil {
			return fmt.Errorf("failed to add image to album: %w", err)
		}
		return tx.Model(&models.Album{}).
			Where("id = ? AND cover_image_id IS NULL", albumID).
			UpdateColumn("cover_image_id", imageID).Error
	})
}

// RemoveImage 从相册移除图片，如果是封面则清空封面
func (r *Repository) RemoveImage(ctx context.Context, albumID uint, imageID string) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		res := tx.Where("album_id = ? AND image_id = ?", albumID, imageID).Delete(&models.AlbumImage{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return tx.Model(&models.Album{}).
			Where("id = ? AND cover_image_id = ?", albumID, imageID).
			UpdateColumn("cover_image_id", nil).Error
	})
}

// Delete 删除相册，不删除其中的图片
func (r *Repository) Delete(ctx context.Context, albumID uint) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", albumID).Delete(&models.AlbumImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Album{}, albumID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

// Count 相册总数
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Album{}).Count(&n).Error
	return n, err
}
