package cache

import (
	"context"
	"time"

	"github.com/anoixa/clone-gallery/utils"
	"golang.org/x/sync/singleflight"
)

var loadGroup singleflight.Group

// GetOrLoad 先读缓存，未命中时调用 load 并回填
// 同一 key 的并发加载只执行一次；缓存读写失败只记日志，不影响返回结果
func GetOrLoad[T any](ctx context.Context, p Provider, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if p != nil {
		err := p.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !IsCacheMiss(err) {
			utils.Log.WithField("key", key).Warnf("[Cache] Get failed: %v", err)
		}
	}

	v, err, _ := loadGroup.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		if p != nil {
			if setErr := p.Set(ctx, key, value, addJitter(ttl)); setErr != nil {
				utils.Log.WithField("key", key).Warnf("[Cache] Set failed: %v", setErr)
			}
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate 删除缓存项，失败只记日志
func Invalidate(ctx context.Context, p Provider, keys ...string) {
	if p == nil {
		return
	}
	for _, key := range keys {
		if err := p.Delete(ctx, key); err != nil {
			utils.Log.WithField("key", key).Warnf("[Cache] Delete failed: %v", err)
		}
	}
}
