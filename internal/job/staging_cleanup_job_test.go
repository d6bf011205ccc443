package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStagingCleanupJob_RemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "upload-stale.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "upload-fresh.pdf")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	j := NewStagingCleanupJob(dir, 24*time.Hour)
	require.Equal(t, "staging_cleanup", j.Name())
	require.NoError(t, j.Run(context.Background()))

	require.NoFileExists(t, stale)
	require.FileExists(t, fresh)
}

func TestStagingCleanupJob_MissingDirIsNoop(t *testing.T) {
	j := NewStagingCleanupJob(filepath.Join(t.TempDir(), "nope"), time.Hour)
	require.NoError(t, j.Run(context.Background()))
}
