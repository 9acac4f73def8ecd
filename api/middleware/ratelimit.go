package middleware

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

type IPRateLimiter struct {
	rps        float64       // 每秒请求数
	burst      int           // 令牌桶的容量
	expireTime time.Duration // 过期时间
	limiterMap *sync.Map
	stopOnce   sync.Once
	stopChan   chan struct{}
}

// NewIPRateLimiter Create new IP-based rate limits
func NewIPRateLimiter(rps float64, burst int, expireTime time.Duration) *IPRateLimiter {
	if expireTime <= 0 {
		expireTime = 10 * time.Minute
	}
	limiter := &IPRateLimiter{
		rps:        rps,
		burst:      burst,
		expireTime: expireTime,
		limiterMap: &sync.Map{},
		stopChan:   make(chan struct{}),
	}

	// 启动后台清理 goroutine
	go limiter.cleanupStaleClients()

	return limiter
}

// Allow 判断指定客户端是否还有令牌
func (rl *IPRateLimiter) Allow(ip string) bool {
	val, ok := rl.limiterMap.Load(ip)
	if !ok {
		val, _ = rl.limiterMap.LoadOrStore(ip, &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
		})
	}
	client := val.(*clientLimiter)
	client.lastSeen.Store(time.Now().UnixNano())
	return client.limiter.Allow()
}

// Middleware Return a Gin middleware handler
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(getClientIP(c)) {
			c.Header("Retry-After", "1")
			common.RespondErrorAbort(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}

func (rl *IPRateLimiter) StopCleanup() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *IPRateLimiter) cleanupStaleClients() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// 遍历 sync.Map，删除过期的条目
			cutoff := time.Now().Add(-rl.expireTime).UnixNano()
			rl.limiterMap.Range(func(key, value interface{}) bool {
				if value.(*clientLimiter).lastSeen.Load() < cutoff {
					rl.limiterMap.Delete(key)
				}
				return true
			})
		case <-rl.stopChan:
			return
		}
	}
}

// getClientIP Get the client's real IP address
func getClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
