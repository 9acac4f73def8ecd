// Package generation 文生图服务：参数校验、调用第三方模型、可选地保存为图库图片
package generation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
)

// 参数范围
const (
	MinDimension     = 256
	MaxDimension     = 1024
	DefaultDimension = 512
	MinSteps         = 10
	MaxSteps         = 100
	DefaultSteps     = 20
	MinGuidance      = 1.0
	MaxGuidance      = 20.0
	DefaultGuidance  = 7.5
	MaxPromptLength  = 1000
)

// Generator 文生图提供者
type Generator interface {
	// Name 提供者名称，如 replicate
	Name() string
	// Model 对外展示的模型名
	Model() string
	// Generate 生成图片并返回结果地址
	Generate(ctx context.Context, req *Request) (string, error)
	// Probe 检查提供者是否可用
	Probe(ctx context.Context) error
	// CostUSD 单次生成的估算费用，未知时返回 nil
	CostUSD() *float64
}

// Request 生成参数，零值字段使用默认值
type Request struct {
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Steps          int            `json:"steps"`
	Guidance       float64        `json:"guidance"`
	Seed           *int64         `json:"seed,omitempty"`
	Save           bool           `json:"save"`
	Title          string         `json:"title"`
	Privacy        models.Privacy `json:"privacy"`
	Tags           []string       `json:"tags"`
}

// Normalize 填充默认值并校验范围
func (r *Request) Normalize() error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return errs.Invalid("prompt", "prompt is required")
	}
	if utf8.RuneCountInString(r.Prompt) > MaxPromptLength {
		return errs.Invalid("prompt", fmt.Sprintf("prompt must be at most %d characters", MaxPromptLength))
	}

	if r.Width == 0 {
		r.Width = DefaultDimension
	}
	if r.Height == 0 {
		r.Height = DefaultDimension
	}
	if r.Steps == 0 {
		r.Steps = DefaultSteps
	}
	if r.Guidance == 0 {
		r.Guidance = DefaultGuidance
	}

	if r.Width < MinDimension || r.Width > MaxDimension {
		return errs.Invalid("width", fmt.Sprintf("width must be between %d and %d", MinDimension, MaxDimension))
	}
	if r.Height < MinDimension || r.Height > MaxDimension {
		return errs.Invalid("height", fmt.Sprintf("height must be between %d and %d", MinDimension, MaxDimension))
	}
	if r.Steps < MinSteps || r.Steps > MaxSteps {
		return errs.Invalid("steps", fmt.Sprintf("steps must be between %d and %d", MinSteps, MaxSteps))
	}
	if r.Guidance < MinGuidance || r.Guidance > MaxGuidance {
		return errs.Invalid("guidance", fmt.Sprintf("guidance must be between %g and %g", MinGuidance, MaxGuidance))
	}
	if r.Privacy == "" {
		r.Privacy = models.PrivacyPublic
	}
	return nil
}

// Result 生成结果
type Result struct {
	ImageURL         string        `json:"image_url"`
	Prompt           string        `json:"prompt"`
	Model            string        `json:"model"`
	GenerationTimeMs int64         `json:"generation_time_ms"`
	CostUSD          *float64      `json:"cost_usd"`
	Image            *models.Image `json:"image,omitempty"`
}

// Status 提供者状态
type Status struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Disabled 未配置提供者时使用，所有生成请求返回不可用
type Disabled struct{}

func (Disabled) Name() string  { return "disabled" }
func (Disabled) Model() string { return "" }

func (Disabled) Generate(ctx context.Context, req *Request) (string, error) {
	return "", fmt.Errorf("%w: image generation is disabled", errs.ErrUnavailable)
}

func (Disabled) Probe(ctx context.Context) error {
	return fmt.Errorf("%w: image generation is disabled", errs.ErrUnavailable)
}

func (Disabled) CostUSD() *float64 { return nil }
