package images

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 图片仓库 - 封装所有图片相关的数据库操作
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的图片仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// ListQuery 列表查询条件，由访问策略生成
type ListQuery struct {
	// AllPrivate 为 true 时不限制私有图片（管理员）
	AllPrivate bool
	// ViewerID 为空表示匿名访问，只能看到公开图片
	ViewerID   string
	UploaderID string
	Privacy    models.Privacy
	Tag        string
	Offset     int
	Limit      int
}

// Stats 图片汇总统计
type Stats struct {
	Images     int64 `gorm:"column:images" json:"images"`
	Views      int64 `gorm:"column:views" json:"views"`
	TotalBytes int64 `gorm:"column:total_bytes" json:"total_bytes"`
	AIImages   int64 `gorm:"column:ai_images" json:"ai_images"`
}

// NormalizeTags 去重、去空白、转小写
// 超长的标签名返回校验错误，不静默丢弃
func NormalizeTags(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if len(n) > models.MaxTagLength {
			return nil, errs.Invalid("tags", fmt.Sprintf("each tag must be at most %d bytes", models.MaxTagLength))
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// CreateWithTags 在一个事务中写入图片、关联标签、累加上传计数
// 任一步失败整体回滚
func (r *Repository) CreateWithTags(ctx context.Context, image *models.Image, tagNames []string) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", image.UploaderID).
			UpdateColumn("uploads", gorm.Expr("uploads + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to bump upload counter: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("uploader %s: %w", image.UploaderID, errs.ErrNotFound)
		}

		if err := tx.Omit(clause.Associations).Create(image).Error; err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}

		names, err := NormalizeTags(tagNames)
		if err != nil {
			return err
		}
		tags, err := resolveTags(tx, names)
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			image.Tags = []models.Tag{}
			return nil
		}

		links := make([]map[string]interface{}, 0, len(tags))
		ids := make([]uint, 0, len(tags))
		for _, t := range tags {
			links = append(links, map[string]interface{}{"image_id": image.ID, "tag_id": t.ID})
			ids = append(ids, t.ID)
		}
		if err := tx.Table("image_tags").Create(links).Error; err != nil {
			return fmt.Errorf("failed to link tags: %w", err)
		}
		if err := tx.Model(&models.Tag{}).Where("id IN ?", ids).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to bump tag counters: %w", err)
		}
		for i := range tags {
			tags[i].UsageCount++
		}
		image.Tags = tags
		return nil
	})
}

// resolveTags 查找或创建标签，并发创建同名标签时依赖唯一索引去重
func resolveTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Tag{Name: name}).Error; err != nil {
			return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
		}
		var tag models.Tag
		if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
			return nil, fmt.Errorf("failed to load tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// GetByID 获取图片及其标签
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &image, nil
}

// IncrementViews 原子累加浏览数，返回累加后的值
// 更新和读取在同一事务中，行锁保证读到的是本次累加的结果
func (r *Repository) IncrementViews(ctx context.Context, image *models.Image) (int64, error) {
	var views int64
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Image{}).Where("id = ?", image.ID).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		if err := tx.Model(&models.User{}).Where("id = ?", image.UploaderID).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Image{}).Where("id = ?", image.ID).
			Select("views").Row().Scan(&views)
	})
	return views, err
}

// List 分页查询，按上传时间倒序
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Image, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Image{})

	switch {
	case q.AllPrivate:
	case q.ViewerID == "":
		db = db.Where("privacy = ?", models.PrivacyPublic)
	default:
		db = db.Where("(privacy = ? OR uploader_id = ?)", models.PrivacyPublic, q.ViewerID)
	}
	if q.UploaderID != "" {
		db = db.Where("uploader_id = ?", q.UploaderID)
	}
	if q.Privacy != "" {
		db = db.Where("privacy = ?", q.Privacy)
	}
	if q.Tag != "" {
		db = db.Where("id IN (?)", r.db.WithContext(ctx).Table("image_tags").
			Select("image_tags.image_id").
			Joins("JOIN tags ON tags.id = image_tags.tag_id").
			Where("tags.name = ?", strings.ToLower(strings.TrimSpace(q.Tag))))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count images: %w", err)
	}

	var items []models.Image
	err := db.Preload("Tags").
		Order("uploaded_at DESC").Order("id DESC").
		Offset(q.Offset).Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}
	return items, total, nil
}

// Delete 删除图片记录及其关联，afterDelete 在事务提交前执行（用于删除存储对象）
// afterDelete 返回错误时整个删除回滚
func (r *Repository) Delete(ctx context.Context, image *models.Image, afterDelete func() error) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		var tagIDs []uint
		if err := tx.Table("image_tags").Where("image_id = ?", image.ID).
			Pluck("tag_id", &tagIDs).Error; err != nil {
			return err
		}
		if len(tagIDs) > 0 {
			if err := tx.Model(&models.Tag{}).Where("id IN ? AND usage_count > 0", tagIDs).
				UpdateColumn("usage_count", gorm.Expr("usage_count - ?", 1)).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM image_tags WHERE image_id = ?", image.ID).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("image_id = ?", image.ID).Delete(&models.AlbumImage{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Album{}).Where("cover_image_id = ?", image.ID).
			UpdateColumn("cover_image_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Image{}, "id = ?", image.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		if afterDelete != nil {
			return afterDelete()
		}
		return nil
	})
}

// ListTags 按使用次数倒序列出标签
func (r *Repository) ListTags(ctx context.Context, limit int) ([]models.Tag, error) {
	var tags []models.Tag
	db := r.db.WithContext(ctx).Where("usage_count > 0").Order("usage_count DESC").Order("name ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&tags).Error
	return tags, err
}

// Stats 汇总统计
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.WithContext(ctx).Model(&models.Image{}).
		Select("COUNT(*) AS images, COALESCE(SUM(views), 0) AS views, COALESCE(SUM(size_bytes), 0) AS total_bytes, " +
			"COALESCE(SUM(CASE WHEN is_ai_generated THEN 1 ELSE 0 END), 0) AS ai_images").
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ReferencedURLs 返回所有被记录引用的对象 URL
func (r *Repository) ReferencedURLs(ctx context.Context) (map[string]struct{}, error) {
	var rows []struct {
		URL          string
		ThumbnailURL string
	}
	if err := r.db.WithContext(ctx).Model(&models.Image{}).
		Select("url", "thumbnail_url").Scan(&rows).Error; err != nil {
		return nil, err
	}
	refs := make(map[string]struct{}, len(rows)*2)
	for _, row := range rows {
		refs[row.URL] = struct{}{}
		refs[row.ThumbnailURL] = struct{}{}
	}
	return refs, nil
}
