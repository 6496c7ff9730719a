package utils

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pixpointrepo/marcom-backend/config"
	"github.com/pixpointrepo/marcom-backend/models"
)

// StartThumbnailSweeper launches a background goroutine that periodically
// removes upload files no longer referenced by any article. Replacing or
// deleting an article only best-effort-deletes its old thumbnail, so the
// sweeper picks up whatever those paths missed. Failures are logged and
// retried on the next pass.
func StartThumbnailSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			sweepOrphanThumbnails()
		}
	}()
}

func sweepOrphanThumbnails() {
	db := config.DB()
	if db == nil {
		return
	}
	uploadDir := config.Get().UploadDir

	var referenced []string
	if err := db.Model(&models.Article{}).Pluck("thumbnail", &referenced).Error; err != nil {
		if Sugar != nil {
			Sugar.Warnf("thumbnail sweep query failed: %v", err)
		}
		return
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, t := range referenced {
		// Thumbnails are stored as public URLs like /uploads/<name>
		keep[filepath.Base(t)] = struct{}{}
	}

	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		return
	}
	// Grace period so files of in-flight uploads are not swept before the
	// article row lands.
	cutoff := time.Now().Add(-time.Hour)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := keep[e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(uploadDir, e.Name())
		if err := os.Remove(path); err != nil {
			if Sugar != nil {
				Sugar.Warnf("thumbnail sweep remove failed path=%s err=%v", path, err)
			}
		} else if Sugar != nil {
			Sugar.Infof("removed orphan thumbnail %s", path)
		}
	}
}
