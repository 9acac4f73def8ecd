package cmd

import (
	"context"
	"fmt"

	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/internal/app"
	"github.com/anoixa/clone-gallery/internal/seed"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/spf13/cobra"
)

// seedCmd 写入演示数据
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo accounts, tags, an album and sample images",
	Run: func(cmd *cobra.Command, args []string) {
		password, _ := cmd.Flags().GetString("password")
		if err := runSeed(password); err != nil {
			utils.Log.Fatalf("Seed failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("password", seed.DefaultPassword, "Password for the demo accounts")
}

func runSeed(password string) error {
	cfg := config.Get()
	ctx := context.Background()

	container := app.NewContainer(cfg)
	if err := container.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer func() { _ = container.Close() }()

	svc := container.Services
	seeder := seed.New(container.Repositories, svc.Credentials, svc.Upload, svc.Albums)
	result, err := seeder.Run(ctx, seed.Options{Password: password})
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d users, %d images, %d albums\n", result.Users, result.Images, result.Albums)
	if result.Users > 0 {
		for _, a := range seed.Accounts {
			fmt.Printf("  %-14s %-8s password: %s\n", a.Username, a.Role, password)
		}
	}
	return nil
}
