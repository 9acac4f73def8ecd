package generation

import (
	"fmt"

	"github.com/anoixa/clone-gallery/config"
)

// NewFromConfig 根据 ai_provider 创建提供者
func NewFromConfig(cfg *config.Config) (Generator, error) {
	switch cfg.AIProvider {
	case "", "disabled":
		return Disabled{}, nil
	case "replicate":
		return NewReplicate(ReplicateConfig{
			BaseURL:      cfg.AIReplicateURL,
			Token:        cfg.AIReplicateToken,
			ModelVersion: cfg.AIModelVersion,
			PollInterval: cfg.AIPollInterval,
		})
	default:
		return nil, fmt.Errorf("unsupported ai_provider: %s", cfg.AIProvider)
	}
}
