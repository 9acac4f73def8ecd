package database

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormProvider GORM 数据库提供者实现
type GormProvider struct {
	db     *gorm.DB
	dbType string
}

func newGormLogger() logger.Interface {
	level := logger.Warn
	if config.IsDevelopment() && utils.Log.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}
	return logger.New(
		utils.Log,
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// NewGormProvider 创建新的 GORM 数据库提供者
func NewGormProvider(cfg *config.Config) (*GormProvider, error) {
	dbType := cfg.DBType
	gormCfg := &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch dbType {
	case "sqlite", "sqlite3", "":
		dbType = "sqlite"
		path := cfg.DBFilePath
		if path == "" {
			path = "./data/gallery.db"
		}
		// WAL 模式 + 外键约束
		dialector = sqlite.Open(fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path))
		utils.Log.Infof("Using SQLite database file: %s", path)

	case "postgres", "postgresql":
		dbType = "postgres"
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBPort, cfg.DBUsername, cfg.DBPassword, cfg.DBName)
		dialector = postgres.Open(dsn)

	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUsername, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dbType, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB instance: %w", err)
	}

	maxOpenConns := cfg.DBMaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 100
	}
	maxIdleConns := cfg.DBMaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}
	connMaxLifetime := cfg.DBConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 3600
	}
	if dbType == "sqlite" {
		// SQLite 单写者，多连接只会带来 database is locked
		maxOpenConns = 1
		maxIdleConns = 1
	}

	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)

	if dbType != "sqlite" {
		utils.Log.Infof("Connected to %s database on %s:%d", dbType, cfg.DBHost, cfg.DBPort)
	}

	return NewGormProviderFromDB(db, dbType), nil
}

// NewGormProviderFromDB 包装已有连接，测试和集成环境使用
func NewGormProviderFromDB(db *gorm.DB, dbType string) *GormProvider {
	return &GormProvider{db: db, dbType: dbType}
}

// DB 返回底层 *gorm.DB 实例
func (p *GormProvider) DB() *gorm.DB {
	return p.db
}

// WithContext 返回带上下文的 *gorm.DB
func (p *GormProvider) WithContext(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

// TransactionWithContext 带上下文的事务执行
func (p *GormProvider) TransactionWithContext(ctx context.Context, fn TxFunc) error {
	return p.db.WithContext(ctx).Transaction(fn)
}

// AutoMigrate 自动迁移数据库结构
func (p *GormProvider) AutoMigrate(models ...interface{}) error {
	return p.db.AutoMigrate(models...)
}

// Ping 检查数据库连接
func (p *GormProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (p *GormProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	utils.Log.Info("Closing database connection...")
	return sqlDB.Close()
}

// Name 返回数据库名称
func (p *GormProvider) Name() string {
	return p.dbType
}
