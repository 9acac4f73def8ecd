package cmd

import (
	"context"
	"fmt"

	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/internal/app"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/spf13/cobra"
)

// cacheCmd 缓存管理命令
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache management commands",
}

// cacheClearCmd 清除缓存命令
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached stats, trending tags and generation status",
	Long: `Clear cached stats, trending tags and generation status.
Only meaningful with the redis cache; the memory cache lives inside the server process.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCacheClear(); err != nil {
			utils.Log.Fatalf("Cache clear failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// runCacheClear 执行缓存清理
func runCacheClear() error {
	cfg := config.Get()
	ctx := context.Background()

	container := app.NewContainer(cfg)
	if err := container.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer func() { _ = container.Close() }()

	utils.Log.Infof("Cache provider: %s", container.Cache().Name())
	container.Services.Dashboard.ClearCache(ctx)
	container.Services.Generation.ClearStatus(ctx)
	utils.Log.Info("Cache cleared successfully")
	return nil
}
