package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/auth"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthenticator 按 token 返回固定用户
type fakeAuthenticator map[string]*models.User

func (f fakeAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	if u, ok := f[token]; ok {
		return u, &auth.Claims{Role: u.Role}, nil
	}
	return nil, nil, fmt.Errorf("%w: bad token", errs.ErrUnauthenticated)
}

var testUsers = fakeAuthenticator{
	"admin-token":  {ID: "a1", Username: "admin", Role: models.RoleAdmin},
	"editor-token": {ID: "e1", Username: "editor", Role: models.RoleEditor},
}

func whoami(c *gin.Context) {
	r := GetRequester(c)
	if r == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, "%s:%s", r.ID, r.Role)
}

func do(router http.Handler, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	router := gin.New()
	router.GET("/me", Auth(testUsers), whoami)

	w := do(router, http.MethodGet, "/me", "Bearer editor-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e1:Editor", w.Body.String())

	w = do(router, http.MethodGet, "/me", "bearer editor-token")
	assert.Equal(t, http.StatusOK, w.Code)

	for _, header := range []string{"", "Bearer ", "Basic abc", "Bearer nope", "editor-token"} {
		w = do(router, http.MethodGet, "/me", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestOptionalAuth(t *testing.T) {
	router := gin.New()
	router.GET("/who", OptionalAuth(testUsers), whoami)

	w := do(router, http.MethodGet, "/who", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(router, http.MethodGet, "/who", "Bearer admin-token")
	assert.Equal(t, "a1:Admin", w.Body.String())

	// 携带无效令牌不能降级为匿名
	w = do(router, http.MethodGet, "/who", "Bearer expired")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.GET("/admin", Auth(testUsers), RequireRole(models.RoleAdmin), whoami)
	router.GET("/open", RequireRole(models.RoleAdmin), whoami)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/admin", "Bearer admin-token").Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/admin", "Bearer editor-token").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/open", "").Code)
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 2, time.Minute)
	defer rl.StopCleanup()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := func(ip string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, req("1.1.1.1"))
	assert.Equal(t, http.StatusNoContent, req("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, req("1.1.1.1"))
	// 不同客户端独立计数
	assert.Equal(t, http.StatusNoContent, req("2.2.2.2"))

	rl.StopCleanup()
}

func TestConcurrencyLimiter(t *testing.T) {
	cl := NewConcurrencyLimiter(1)
	entered := make(chan struct{})
	release := make(chan struct{})

	router := gin.New()
	router.Use(cl.Middleware())
	router.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	router.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		do(router, http.MethodGet, "/slow", "")
	}()
	<-entered

	assert.Equal(t, http.StatusServiceUnavailable, do(router, http.MethodGet, "/fast", "").Code)
	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/fast", "").Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(router, http.MethodGet, "/items/1", "")
	do(router, http.MethodGet, "/items/2", "")
	do(router, http.MethodGet, "/missing", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestRequestIDAndBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), MaxBytesReader(8), Logger())
	router.POST("/echo", func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(data))
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short"))
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("much too long body"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
