package core

import (
	"bytes"
	"encoding/json"
	stdimage "image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anoixa/clone-gallery/cache"
	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/database/dbtest"
	"github.com/anoixa/clone-gallery/internal/app"
	"github.com/anoixa/clone-gallery/internal/auth"
	imaging "github.com/anoixa/clone-gallery/internal/image"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router    *gin.Engine
	container *app.Container
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServerHost:          "127.0.0.1",
		ServerPort:          8080,
		CORSOrigins:         []string{"http://localhost:3000"},
		JWTSecret:           "test-secret-key-at-least-32-characters-long",
		JWTTTL:              time.Hour,
		StorageType:         "local",
		UploadMaxSizeMB:     2,
		UploadBatchLimit:    3,
		UploadConcurrency:   2,
		RateLimitApiRPS:     1000,
		RateLimitApiBurst:   1000,
		RateLimitAuthRPS:    1000,
		RateLimitAuthBurst:  1000,
		RateLimitExpireTime: time.Minute,
		MaxConcurrency:      10,
		AITimeout:           5 * time.Second,
	}

	memory, err := cache.NewMemory(cache.DefaultMemoryConfig(8))
	require.NoError(t, err)
	local, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	backend := storage.NewBackend(local, nil, imaging.NewNativeThumbnailer(imaging.Options{}))

	container, err := app.NewContainerWith(cfg, dbtest.NewProvider(t), memory, backend)
	require.NoError(t, err)
	t.Cleanup(func() { _ = memory.Close() })

	router, cleanup := setupRouter(&RouterDependencies{
		Config:   cfg,
		DB:       container.GetDatabaseProvider(),
		Cache:    container.Cache(),
		Backend:  container.Backend(),
		Services: container.Services,
		Registry: prometheus.NewRegistry(),
	})
	t.Cleanup(cleanup)
	return &testServer{router: router, container: container}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, identifier, password string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{"identifier": identifier, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Token
}

func (s *testServer) register(t *testing.T, username, role, token string) {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "long-enough",
		"role":     role,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "cache": "ok", "storage": "ok"}, body.Checks)
}

func TestHealthCheck_Degraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler(nil, nil, nil).Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestBasicRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/version", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), config.Version)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w = s.do(http.MethodGet, "/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/tags", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestUploadAndServeFile(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "Editor", "")
	token := s.login(t, "alice", "long-enough")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "red.png")
	require.NoError(t, err)
	_, _ = part.Write(pngBytes(t))
	require.NoError(t, mw.WriteField("title", "Red"))
	require.NoError(t, mw.WriteField("tags", "Cats, Red"))
	require.NoError(t, mw.Close())

	// 未登录不能上传
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/images", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	w = s.do(http.MethodGet, created.Data.URL, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes(t), w.Body.Bytes())

	w = s.do(http.MethodGet, "/uploads/../etc/passwd", nil, "")
	assert.NotEqual(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/images", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.Data.ID)

	w = s.do(http.MethodGet, "/api/v1/tags", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cats"`)

	w = s.do(http.MethodDelete, "/api/v1/images/"+created.Data.ID, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerateDisabled(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "bob", "Editor", "")
	token := s.login(t, "bob", "long-enough")

	w := s.do(http.MethodGet, "/api/v1/generate/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"provider":"disabled"`)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/generate", map[string]string{"prompt": "a cat"}, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodPost, "/api/v1/generate", map[string]string{"prompt": "a cat"}, token).Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	credentials := s.container.Services.Credentials
	password, err := credentials.EnsureDefaultAdmin(t.Context())
	require.NoError(t, err)
	adminToken := s.login(t, auth.DefaultAdminUsername, password)

	s.register(t, "carol", "Editor", "")
	editorToken := s.login(t, "carol", "long-enough")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/admin/stats", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/stats", nil, editorToken).Code)

	w := s.do(http.MethodGet, "/api/v1/admin/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/admin/stats/refresh", nil, adminToken).Code)

	w = s.do(http.MethodPost, "/api/v1/admin/users", map[string]string{
		"email": "dan@example.com", "username": "dan", "password": "long-enough", "role": "Visitor",
	}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = s.do(http.MethodGet, "/api/v1/admin/users?page=1&limit=10", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":3`)

	w = s.do(http.MethodPatch, "/api/v1/admin/users/"+created.Data.ID+"/active", map[string]bool{"active": false}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 停用后无法登录
	w = s.do(http.MethodPost, "/api/auth/login", map[string]string{"identifier": "dan", "password": "long-enough"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
