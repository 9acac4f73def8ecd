package cache

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// KeyBuilder 缓存键构建器
type KeyBuilder struct {
	prefix string
	sep    string
}

// NewKeyBuilder 创建新的键构建器
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{
		prefix: prefix,
		sep:    ":",
	}
}

// Build 构建缓存键
func (kb *KeyBuilder) Build(parts ...string) string {
	if len(parts) == 0 {
		return kb.prefix
	}
	return kb.prefix + kb.sep + strings.Join(parts, kb.sep)
}

// BuildID 构建带 ID 的缓存键
func (kb *KeyBuilder) BuildID(id interface{}) string {
	return fmt.Sprintf("%s%s%v", kb.prefix, kb.sep, id)
}

// 预定义的 KeyBuilder 实例
var (
	// AdminStats 管理后台统计
	AdminStats = NewKeyBuilder("admin_stats")

	// TrendingTags 热门标签
	TrendingTags = NewKeyBuilder("trending_tags")

	// GenerationStatus AI 生成服务状态
	GenerationStatus = NewKeyBuilder("generation_status")
)

// 默认过期时间
const (
	DefaultStatsExpiration        = 5 * time.Minute
	DefaultTrendingTagsExpiration = 10 * time.Minute
)

// addJitter 添加随机抖动（0~10%），防止缓存雪崩
func addJitter(duration time.Duration) time.Duration {
	if duration < 10 {
		return duration
	}
	return duration + time.Duration(rand.Int64N(int64(duration)/10))
}
