package repositories

import (
	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/repo/accounts"
	"github.com/anoixa/clone-gallery/database/repo/albums"
	"github.com/anoixa/clone-gallery/database/repo/dashboard"
	"github.com/anoixa/clone-gallery/database/repo/images"
)

// Repositories 集中管理所有数据库仓库
type Repositories struct {
	Accounts *accounts.Repository
	Images   *images.Repository
	Albums   *albums.Repository
	Stats    *dashboard.Repository
}

// NewRepositories 创建所有仓库实例
func NewRepositories(provider database.Provider) *Repositories {
	return &Repositories{
		Accounts: accounts.NewRepository(provider),
		Images:   images.NewRepository(provider),
		Albums:   albums.NewRepository(provider),
		Stats:    dashboard.NewRepository(provider),
	}
}
