package dashboard

import (
	"context"
	"time"

	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/models"
)

// Repository Dashboard 统计仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的 Dashboard 统计仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// UserCounts 按角色统计用户
type UserCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Admins   int64 `json:"admins"`
	Editors  int64 `json:"editors"`
	Visitors int64 `json:"visitors"`
}

// GetUserCounts 获取用户统计
func (r *Repository) GetUserCounts(ctx context.Context) (*UserCounts, error) {
	var rows []struct {
		Role   models.Role
		Count  int64
		Active int64
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS count, COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var c UserCounts
	for _, row := range rows {
		c.Total += row.Count
		c.Active += row.Active
		switch row.Role {
		case models.RoleAdmin:
			c.Admins = row.Count
		case models.RoleEditor:
			c.Editors = row.Count
		case models.RoleVisitor:
			c.Visitors = row.Count
		}
	}
	return &c, nil
}

// ImageTimeStats 图片时间维度统计
type ImageTimeStats struct {
	Today     int64 `json:"today"`
	Yesterday int64 `json:"yesterday"`
	ThisWeek  int64 `json:"this_week"`
	ThisMonth int64 `json:"this_month"`
}

// GetImageTimeStats 获取图片时间维度统计，时间边界按 now 所在时区计算
// 使用区间比较而不是日期函数，兼容 sqlite / postgres / mysql
func (r *Repository) GetImageTimeStats(ctx context.Context, now time.Time) (*ImageTimeStats, error) {
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	// 周一为一周开始
	week := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var stats ImageTimeStats
	ranges := []struct {
		from, to time.Time
		dest     *int64
	}{
		{today, today.AddDate(0, 0, 1), &stats.Today},
		{yesterday, today, &stats.Yesterday},
		{week, today.AddDate(0, 0, 1), &stats.ThisWeek},
		{month, today.AddDate(0, 0, 1), &stats.ThisMonth},
	}
	for _, rg := range ranges {
		if err := r.db.WithContext(ctx).Model(&models.Image{}).
			Where("uploaded_at >= ? AND uploaded_at < ?", rg.from.UTC(), rg.to.UTC()).
			Count(rg.dest).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// DailyStat 每日统计
type DailyStat struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetDailyStats 获取近 N 天每日上传数，没有上传的日期补 0
// 按日分组在内存中完成，避免依赖各数据库不同的日期函数
func (r *Repository) GetDailyStats(ctx context.Context, now time.Time, days int) ([]DailyStat, error) {
	if days <= 0 {
		return []DailyStat{}, nil
	}
	from := startOfDay(now).AddDate(0, 0, -(days - 1))

	var times []time.Time
	if err := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("uploaded_at >= ?", from.UTC()).
		Pluck("uploaded_at", &times).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, days)
	for _, t := range times {
		counts[t.In(now.Location()).Format(time.DateOnly)]++
	}

	stats := make([]DailyStat, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format(time.DateOnly)
		stats[i] = DailyStat{Date: date, Count: counts[date]}
	}
	return stats, nil
}

// CountTags 已使用的标签数
func (r *Repository) CountTags(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("usage_count > 0").Count(&n).Error
	return n, err
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
