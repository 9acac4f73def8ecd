package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/mitchellh/mapstructure"
)

// 单次生成的估算费用
const replicateCostUSD = 0.01

// ReplicateConfig Replicate 接入配置
type ReplicateConfig struct {
	BaseURL      string
	Token        string
	ModelVersion string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Replicate 通过 Replicate predictions API 生成图片
type Replicate struct {
	cfg    ReplicateConfig
	client *http.Client
}

// prediction Replicate 返回的预测对象，output 可能是字符串也可能是字符串数组
type prediction struct {
	ID     string      `mapstructure:"id"`
	Status string      `mapstructure:"status"`
	Output []string    `mapstructure:"output"`
	Error  interface{} `mapstructure:"error"`
}

// NewReplicate 创建 Replicate 提供者
func NewReplicate(cfg ReplicateConfig) (*Replicate, error) {
	if cfg.Token == "" {
		return nil, errors.New("replicate token is required")
	}
	if cfg.ModelVersion == "" {
		return nil, errors.New("replicate model version is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.replicate.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Replicate{cfg: cfg, client: client}, nil
}

func (r *Replicate) Name() string      { return "replicate" }
func (r *Replicate) Model() string     { return "replicate/stable-diffusion" }
func (r *Replicate) CostUSD() *float64 { c := replicateCostUSD; return &c }

// Generate 创建预测后轮询直到成功或失败，总耗时由 ctx 控制
func (r *Replicate) Generate(ctx context.Context, req *Request) (string, error) {
	input := map[string]interface{}{
		"prompt":              req.Prompt,
		"negative_prompt":     req.NegativePrompt,
		"width":               req.Width,
		"height":              req.Height,
		"num_inference_steps": req.Steps,
		"guidance_scale":      req.Guidance,
	}
	if req.Seed != nil {
		input["seed"] = *req.Seed
	}
	body, err := json.Marshal(map[string]interface{}{
		"version": r.cfg.ModelVersion,
		"input":   input,
	})
	if err != nil {
		return "", err
	}

	pred, err := r.do(ctx, http.MethodPost, r.cfg.BaseURL+"/predictions", body)
	if err != nil {
		return "", fmt.Errorf("failed to create prediction: %w", err)
	}
	utils.Log.WithField("prediction_id", pred.ID).Debug("[Generation] Prediction created")

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		switch pred.Status {
		case "succeeded":
			if len(pred.Output) == 0 || pred.Output[0] == "" {
				return "", errors.New("prediction succeeded without output")
			}
			return pred.Output[0], nil
		case "failed", "canceled":
			return "", fmt.Errorf("prediction %s %s: %v", pred.ID, pred.Status, pred.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		pred, err = r.do(ctx, http.MethodGet, r.cfg.BaseURL+"/predictions/"+pred.ID, nil)
		if err != nil {
			return "", fmt.Errorf("failed to check prediction: %w", err)
		}
	}
}

// Probe 用账户接口检查 token 是否可用
func (r *Replicate) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/account", nil)
	if err != nil {
		return err
	}
	r.authorize(req)
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: replicate returned %d", errs.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (r *Replicate) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Token "+r.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
}

func (r *Replicate) do(ctx context.Context, method, url string, body []byte) (*prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("replicate returned %d", resp.StatusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid replicate response: %w", err)
	}
	return decodePrediction(raw)
}

// decodePrediction 宽松解码，单个字符串 output 会转为数组
func decodePrediction(raw map[string]interface{}) (*prediction, error) {
	var pred prediction
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &pred,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid replicate response: %w", err)
	}
	if pred.ID == "" {
		return nil, errors.New("invalid replicate response: missing id")
	}
	return &pred, nil
}
