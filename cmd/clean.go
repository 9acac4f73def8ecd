package cmd

import (
	"context"
	"fmt"

	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/internal/app"
	"github.com/anoixa/clone-gallery/internal/maintenance"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/spf13/cobra"
)

// cleanCmd 清理临时文件和孤儿存储对象
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean temp files and orphan storage objects",
	Long: `Clean temp files and orphan storage objects.
This includes:
  - Delete storage objects without a corresponding image record
  - Clean temp folder files`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		tempOnly, _ := cmd.Flags().GetBool("temp-only")
		storageOnly, _ := cmd.Flags().GetBool("storage-only")

		if err := runClean(dryRun, tempOnly, storageOnly); err != nil {
			utils.Log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Bool("temp-only", false, "Only clean temp files")
	cleanCmd.Flags().Bool("storage-only", false, "Only clean orphan storage objects")
}

// runClean 执行清理
func runClean(dryRun, tempOnly, storageOnly bool) error {
	cfg := config.Get()
	ctx := context.Background()
	report := &maintenance.Report{}

	if !storageOnly {
		// 手动清理时不考虑文件年龄
		maintenance.SweepTemp(cfg.TempDir, 0, dryRun, report)
	}

	if !tempOnly {
		container := app.NewContainer(cfg)
		if err := container.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer func() { _ = container.Close() }()

		maintenance.CleanOrphans(ctx, container.Backend(), container.Repositories.Images, dryRun, report)
	}

	printCleanStats(report, dryRun)
	return report.Err()
}

// printCleanStats 打印清理统计
func printCleanStats(report *maintenance.Report, dryRun bool) {
	fmt.Println()
	fmt.Println("========================================")
	if dryRun {
		fmt.Println("           [DRY RUN MODE]")
	}
	fmt.Println("         Clean Statistics")
	fmt.Println("========================================")
	fmt.Printf("Orphan objects found:   %d\n", report.OrphansFound)
	fmt.Printf("Orphan objects deleted: %d\n", report.OrphansDeleted)
	fmt.Printf("Temp files found:       %d\n", report.TempFound)
	fmt.Printf("Temp files deleted:     %d\n", report.TempDeleted)
	fmt.Println("========================================")

	if len(report.Errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range report.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}
}
