package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// TxFunc 事务函数类型
type TxFunc func(tx *gorm.DB) error

// Provider 数据库提供者接口
type Provider interface {
	// DB 返回底层 *gorm.DB 实例
	DB() *gorm.DB

	// WithContext 返回带上下文的 *gorm.DB
	WithContext(ctx context.Context) *gorm.DB

	// TransactionWithContext 带上下文的事务执行
	TransactionWithContext(ctx context.Context, fn TxFunc) error

	// AutoMigrate 自动迁移数据库结构
	AutoMigrate(models ...interface{}) error

	// Ping 检查数据库连接
	Ping(ctx context.Context) error

	// Close 关闭数据库连接
	Close() error

	// Name 返回数据库名称
	Name() string
}

// IsDuplicateKey 判断是否为唯一约束冲突
// 驱动开启 TranslateError 后会返回 gorm.ErrDuplicatedKey，字符串匹配兜底
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
