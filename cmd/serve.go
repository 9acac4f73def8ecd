package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/clone-gallery/api/core"
	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/internal/app"
	"github.com/anoixa/clone-gallery/internal/maintenance"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		utils.Log.Fatalf("Invalid configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.TempDir, os.ModePerm); err != nil {
		utils.Log.Fatalf("Failed to create temp directory: %v", err)
	}

	ctx := context.Background()
	container := app.NewContainer(cfg)
	if err := container.Init(ctx); err != nil {
		utils.Log.Fatalf("Failed to initialize: %v", err)
	}

	// 没有管理员时创建默认管理员，随机密码只打印一次
	password, err := container.Services.Credentials.EnsureDefaultAdmin(ctx)
	if err != nil {
		utils.Log.Fatalf("Failed to create default admin: %v", err)
	}
	if password != "" {
		utils.Log.Warnf("Default admin created. username: admin password: %s (change it after first login)", password)
	}

	scheduler := startScheduler(cfg)

	deps := &core.RouterDependencies{
		Config:   cfg,
		DB:       container.GetDatabaseProvider(),
		Cache:    container.Cache(),
		Backend:  container.Backend(),
		Services: container.Services,
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	go func() {
		utils.Log.Infof("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	utils.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Log.Errorf("Server forced to shutdown: %v", err)
	}

	if cleanup != nil {
		cleanup()
	}
	<-scheduler.Stop().Done()

	if err := container.Close(); err != nil {
		utils.Log.Errorf("Error closing container: %v", err)
	}

	utils.Log.Info("Server exited successfully")
}

// startScheduler 启动定时任务：启动时和每小时清理过期临时文件
func startScheduler(cfg *config.Config) *cron.Cron {
	sweep := func() {
		report := &maintenance.Report{}
		maintenance.SweepTemp(cfg.TempDir, maintenance.TempMaxAge, false, report)
		if err := report.Err(); err != nil {
			utils.Log.Warnf("[Cron] Temp sweep finished with errors: %v", err)
		}
		if report.TempDeleted > 0 {
			utils.Log.Infof("[Cron] Removed %d stale temp files", report.TempDeleted)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc("@hourly", sweep); err != nil {
		utils.Log.Fatalf("Failed to schedule temp sweep: %v", err)
	}
	c.Start()
	utils.SafeGo(sweep)
	return c
}
