package database

import (
	"fmt"

	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/utils"
)

// Factory 数据库工厂 - 负责创建和管理数据库提供者
type Factory struct {
	provider Provider
}

// NewFactory 创建新的数据库工厂
func NewFactory(cfg *config.Config) (*Factory, error) {
	utils.Log.Info("Initializing database provider...")

	provider, err := NewGormProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	utils.Log.Infof("Database provider '%s' initialized successfully", provider.Name())
	return &Factory{provider: provider}, nil
}

// NewFactoryWithProvider 使用现成的 Provider
func NewFactoryWithProvider(p Provider) *Factory {
	return &Factory{provider: p}
}

// GetProvider 获取数据库提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// AutoMigrate 自动迁移数据库结构
func (f *Factory) AutoMigrate() error {
	if f.provider == nil {
		return fmt.Errorf("database provider not initialized")
	}

	utils.Log.Info("Running database auto migration...")
	if err := f.provider.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	utils.Log.Info("Database auto migration completed.")
	return nil
}

// Close 关闭数据库连接
func (f *Factory) Close() error {
	if f.provider != nil {
		return f.provider.Close()
	}
	return nil
}
