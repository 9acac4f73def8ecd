package dashboard

import (
	"context"
	"time"

	"github.com/anoixa/clone-gallery/cache"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/database/repo/albums"
	"github.com/anoixa/clone-gallery/database/repo/dashboard"
	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/utils/format"
)

const (
	trendDays          = 30
	DefaultTrendingTop = 10
	MaxTrendingTop     = 50
)

// Service Dashboard 统计与标签服务
type Service struct {
	stats  *dashboard.Repository
	images *images.Repository
	albums *albums.Repository
	cache  cache.Provider
	now    func() time.Time
}

// NewService 创建新的 Dashboard 统计服务，cacheProvider 可以为 nil
func NewService(stats *dashboard.Repository, imageRepo *images.Repository, albumRepo *albums.Repository, cacheProvider cache.Provider) *Service {
	return &Service{
		stats:  stats,
		images: imageRepo,
		albums: albumRepo,
		cache:  cacheProvider,
		now:    time.Now,
	}
}

// StatsResponse Dashboard 统计响应
type StatsResponse struct {
	Users       dashboard.UserCounts     `json:"users"`
	Images      ImageStats               `json:"images"`
	Albums      int64                    `json:"albums"`
	Tags        int64                    `json:"tags"`
	Storage     StorageStats             `json:"storage"`
	Trend       TrendStats               `json:"trend"`
	GeneratedAt time.Time                `json:"generated_at"`
	Uploads     dashboard.ImageTimeStats `json:"uploads"`
}

// ImageStats 图片统计
type ImageStats struct {
	Total       int64 `json:"total"`
	Views       int64 `json:"views"`
	AIGenerated int64 `json:"ai_generated"`
}

// StorageStats 存储统计
type StorageStats struct {
	TotalSize      int64  `json:"total_size"`
	TotalSizeHuman string `json:"total_size_human"`
}

// TrendStats 趋势统计
type TrendStats struct {
	Period string   `json:"period"`
	Dates  []string `json:"dates"`
	Data   []int64  `json:"data"`
}

// GetStats 获取管理后台统计数据，结果缓存 5 分钟
func (s *Service) GetStats(ctx context.Context, requester *access.Requester) (*StatsResponse, error) {
	if requester == nil || requester.ID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if !requester.IsAdmin() {
		return nil, errs.ErrForbidden
	}
	return cache.GetOrLoad(ctx, s.cache, cache.AdminStats.Build(), cache.DefaultStatsExpiration, s.loadStats)
}

func (s *Service) loadStats(ctx context.Context) (*StatsResponse, error) {
	now := s.now()

	users, err := s.stats.GetUserCounts(ctx)
	if err != nil {
		return nil, err
	}
	imageStats, err := s.images.Stats(ctx)
	if err != nil {
		return nil, err
	}
	uploads, err := s.stats.GetImageTimeStats(ctx, now)
	if err != nil {
		return nil, err
	}
	daily, err := s.stats.GetDailyStats(ctx, now, trendDays)
	if err != nil {
		return nil, err
	}
	albumCount, err := s.albums.Count(ctx)
	if err != nil {
		return nil, err
	}
	tagCount, err := s.stats.CountTags(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsResponse{
		Users: *users,
		Images: ImageStats{
			Total:       imageStats.Images,
			Views:       imageStats.Views,
			AIGenerated: imageStats.AIImages,
		},
		Albums: albumCount,
		Tags:   tagCount,
		Storage: StorageStats{
			TotalSize:      imageStats.TotalBytes,
			TotalSizeHuman: format.HumanReadableSize(imageStats.TotalBytes),
		},
		Trend:       buildTrend(daily),
		Uploads:     *uploads,
		GeneratedAt: now.UTC(),
	}, nil
}

// RefreshCache 清除统计数据缓存
func (s *Service) RefreshCache(ctx context.Context) {
	cache.Invalidate(ctx, s.cache, cache.AdminStats.Build())
}

// ClearCache 清除统计数据和所有 N 的热门标签缓存
func (s *Service) ClearCache(ctx context.Context) {
	keys := make([]string, 0, MaxTrendingTop+1)
	keys = append(keys, cache.AdminStats.Build())
	for n := 1; n <= MaxTrendingTop; n++ {
		keys = append(keys, cache.TrendingTags.BuildID(n))
	}
	cache.Invalidate(ctx, s.cache, keys...)
}

// buildTrend 构建趋势数据
func buildTrend(daily []dashboard.DailyStat) TrendStats {
	dates := make([]string, len(daily))
	data := make([]int64, len(daily))
	for i, d := range daily {
		dates[i] = d.Date
		data[i] = d.Count
	}
	return TrendStats{Period: "30d", Dates: dates, Data: data}
}

// ListTags 列出所有在用标签，按使用次数倒序
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.images.ListTags(ctx, 0)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

// TrendingTags 使用次数最多的前 N 个标签，按 N 分别缓存
func (s *Service) TrendingTags(ctx context.Context, limit int) ([]models.Tag, error) {
	switch {
	case limit <= 0:
		limit = DefaultTrendingTop
	case limit > MaxTrendingTop:
		limit = MaxTrendingTop
	}
	return cache.GetOrLoad(ctx, s.cache, cache.TrendingTags.BuildID(limit), cache.DefaultTrendingTagsExpiration,
		func(ctx context.Context) ([]models.Tag, error) {
			tags, err := s.images.ListTags(ctx, limit)
			if tags == nil {
				tags = []models.Tag{}
			}
			return tags, err
		})
}
