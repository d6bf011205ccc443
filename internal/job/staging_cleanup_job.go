package job

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// StagingCleanupJob removes staged uploads that outlived their TTL. The
// pipeline deletes its own temp files on success; this sweep catches the
// ones left behind by crashes.
type StagingCleanupJob struct {
	dir    string
	maxAge time.Duration
}

func NewStagingCleanupJob(dir string, maxAge time.Duration) *StagingCleanupJob {
	return &StagingCleanupJob{dir: dir, maxAge: maxAge}
}

func (j *StagingCleanupJob) Name() string {
	return "staging_cleanup"
}

func (j *StagingCleanupJob) Run(ctx context.Context) error {
	if j.dir == "" {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			logutil.GetLogger(ctx).Warn("remove stale staged file failed",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("staging dir swept", zap.Int("removed", removed))
	}
	return nil
}
