// Package maintenance 临时文件和孤儿对象清理，由 serve 的定时任务和 clean 命令共用
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/storage"
	"github.com/anoixa/clone-gallery/utils"
)

// TempMaxAge 超过该时长的临时文件会被清理
const TempMaxAge = 24 * time.Hour

// Report 清理结果
type Report struct {
	TempFound      int
	TempDeleted    int
	OrphansFound   int
	OrphansDeleted int
	Errors         []error
}

// Err 合并所有错误
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// SweepTemp 删除 dir 中修改时间早于 now-maxAge 的文件，maxAge 为 0 时删除全部
func SweepTemp(dir string, maxAge time.Duration, dryRun bool, report *Report) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			report.Errors = append(report.Errors, fmt.Errorf("read temp dir: %w", err))
		}
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if maxAge > 0 && !info.ModTime().Before(cutoff) {
			continue
		}
		report.TempFound++
		path := filepath.Join(dir, entry.Name())
		if dryRun {
			utils.Log.Infof("[DRY-RUN] Would delete temp file: %s", path)
			continue
		}
		if err := os.Remove(path); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		report.TempDeleted++
	}
}

// CleanOrphans 删除存储中没有图片记录引用的对象
func CleanOrphans(ctx context.Context, backend *storage.Backend, repo *images.Repository, dryRun bool, report *Report) {
	referenced, err := repo.ReferencedURLs(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("load referenced urls: %w", err))
		return
	}
	orphans, err := backend.FindOrphans(ctx, referenced)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("find orphans: %w", err))
		return
	}

	report.OrphansFound += len(orphans)
	for _, o := range orphans {
		if dryRun {
			utils.Log.Infof("[DRY-RUN] Would delete orphan object: %s", o.Key)
			continue
		}
		if err := o.Provider.DeleteWithContext(ctx, o.Key); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("delete %s: %w", o.Key, err))
			continue
		}
		report.OrphansDeleted++
		utils.Log.Infof("[Clean] Deleted orphan object: %s", o.Key)
	}
}
