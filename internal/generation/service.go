package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/anoixa/clone-gallery/cache"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/errs"
	imagesvc "github.com/anoixa/clone-gallery/internal/services/image"
	"github.com/anoixa/clone-gallery/utils"
)

const (
	statusCacheTTL = time.Minute
	aiTag          = "ai-generated"
)

// Options 服务参数
type Options struct {
	Timeout       time.Duration
	MaxImageBytes int64
	HTTPClient    *http.Client
}

// Service 文生图服务
type Service struct {
	gen      Generator
	uploader *imagesvc.UploadService
	cache    cache.Provider
	client   *http.Client
	opts     Options
	now      func() time.Time
}

// NewService 创建文生图服务，uploader 为 nil 时不支持保存
func NewService(gen Generator, uploader *imagesvc.UploadService, cacheProvider cache.Provider, opts Options) *Service {
	if gen == nil {
		gen = Disabled{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 20 << 20
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Service{gen: gen, uploader: uploader, cache: cacheProvider, client: client, opts: opts, now: time.Now}
}

// Generate 生成图片；Save 为 true 时下载结果并作为 AI 图片存入图库
func (s *Service) Generate(ctx context.Context, requester *access.Requester, req Request) (*Result, error) {
	if requester == nil || requester.ID == "" {
		return nil, errs.ErrUnauthenticated
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if req.Save && (s.uploader == nil || !access.CanUpload(requester)) {
		return nil, errs.ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := s.now()
	url, err := s.gen.Generate(ctx, &req)
	if err != nil {
		if errors.Is(err, errs.ErrUnavailable) {
			return nil, err
		}
		utils.Log.WithField("user_id", requester.ID).Errorf("[Generation] %s failed: %v", s.gen.Name(), err)
		return nil, fmt.Errorf("%w: %v", errs.ErrGenerationFailed, err)
	}

	result := &Result{
		ImageURL:         url,
		Prompt:           req.Prompt,
		Model:            s.gen.Model(),
		GenerationTimeMs: s.now().Sub(start).Milliseconds(),
		CostUSD:          s.gen.CostUSD(),
	}

	if req.Save {
		image, err := s.save(ctx, requester, &req, url)
		if err != nil {
			return nil, err
		}
		result.Image = image
		result.ImageURL = image.URL
	}

	utils.Log.WithField("user_id", requester.ID).
		Infof("[Generation] Generated image in %dms (save=%t)", result.GenerationTimeMs, req.Save)
	return result, nil
}

// save 下载生成结果并保存为请求者的 AI 图片
func (s *Service) save(ctx context.Context, requester *access.Requester, req *Request, url string) (*models.Image, error) {
	data, contentType, err := s.download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: download result: %v", errs.ErrGenerationFailed, err)
	}

	title := req.Title
	if title == "" {
		title = truncate(req.Prompt, 200)
	}
	tags := append([]string{aiTag}, req.Tags...)

	image, err := s.uploader.Upload(ctx, requester, imagesvc.UploadInput{
		Filename:      "generated",
		ContentType:   contentType,
		Data:          data,
		Title:         title,
		Caption:       req.Prompt,
		AltText:       truncate(req.Prompt, 500),
		Privacy:       req.Privacy,
		Tags:          tags,
		IsAIGenerated: true,
	})
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (s *Service) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > s.opts.MaxImageBytes {
		return nil, "", fmt.Errorf("result exceeds %d bytes", s.opts.MaxImageBytes)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = utils.SniffContentType(data)
	}
	return data, contentType, nil
}

// Status 返回提供者状态，探测结果缓存一分钟
func (s *Service) Status(ctx context.Context) *Status {
	status, err := cache.GetOrLoad(ctx, s.cache, cache.GenerationStatus.Build(s.gen.Name()), statusCacheTTL,
		func(ctx context.Context) (*Status, error) {
			st := &Status{Provider: s.gen.Name(), Model: s.gen.Model(), Available: true}
			if err := s.gen.Probe(ctx); err != nil {
				st.Available = false
				st.Error = errs.ErrUnavailable.Error()
			}
			return st, nil
		})
	if err != nil {
		return &Status{Provider: s.gen.Name(), Model: s.gen.Model(), Error: errs.ErrUnavailable.Error()}
	}
	return status
}

// ClearStatus 清除缓存的提供者状态
func (s *Service) ClearStatus(ctx context.Context) {
	cache.Invalidate(ctx, s.cache, cache.GenerationStatus.Build(s.gen.Name()))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
