package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	"gorm.io/gorm"
)

// Repository 账户仓库 - 封装所有账户相关的数据库操作
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的账户仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// Create 创建用户，邮箱或用户名冲突时返回 ErrDuplicateIdentity
// 唯一性由数据库唯一索引保证，不做先查后写
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return errs.ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID 通过ID获取用户
func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByIdentifier 通过邮箱或用户名获取用户
func (r *Repository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// TouchLastLogin 更新最后登录时间
func (r *Repository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

// SetActive 启用 / 停用账户
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update user status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL 在值未变化时返回 0 行
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

// UpdatePassword 更新密码摘要
func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// CountByRole 统计指定角色用户数
func (r *Repository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// List 分页列出用户，按注册时间倒序
func (r *Repository) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)
	db := r.db.WithContext(ctx).Model(&models.User{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("joined_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error
	return users, total, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}
