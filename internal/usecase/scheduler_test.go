package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerExportOnce(t *testing.T) {
	tr, _ := newTracker(t, &memoryStore{})
	dir := filepath.Join(t.TempDir(), "exports")

	s := NewScheduler(nil, tr, dir, nil)
	path, err := s.ExportOnce(context.Background(), time.Date(2025, 3, 3, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "time_tracking_summary_20250303_183000.xlsx"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSchedulerDisabledWithoutDirectory(t *testing.T) {
	tr, _ := newTracker(t, &memoryStore{})
	s := NewScheduler(nil, tr, "", nil)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
