// Package dbtest 提供基于 SQLite 临时文件的测试数据库
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewProvider 创建已迁移的测试数据库，测试结束自动关闭
func NewProvider(t *testing.T) database.Provider {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return database.NewGormProviderFromDB(db, "sqlite")
}
