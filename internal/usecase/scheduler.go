package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"TimeTracker/internal/ports"
)

// Scheduler wires the interval driver with a periodic summary export.
type Scheduler struct {
	driver  ports.Scheduler
	tracker *Tracker
	dir     string
	logger  *slog.Logger
}

// NewScheduler returns a helper that writes the summary workbook into dir on
// every tick. An empty dir disables it.
func NewScheduler(driver ports.Scheduler, tracker *Tracker, dir string, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, tracker: tracker, dir: dir, logger: logger}
}

// Start registers the export job with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.tracker == nil || s.dir == "" {
		return nil
	}

	job := func(trigger time.Time) {
		path, err := s.ExportOnce(ctx, trigger)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("scheduled export failed", "error", err)
			}
			return
		}
		if s.logger != nil {
			s.logger.Info("scheduled export written", "path", path)
		}
	}

	return s.driver.Start(ctx, job)
}

// ExportOnce writes one timestamped workbook and returns its path.
func (s *Scheduler) ExportOnce(ctx context.Context, at time.Time) (string, error) {
	summaries, err := s.tracker.Summaries(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	exporter := s.tracker.Exporter()
	ext := filepath.Ext(exporter.FileName())
	base := exporter.FileName()[:len(exporter.FileName())-len(ext)]
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s%s", base, at.Format("20060102_150405"), ext))

	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := exporter.WriteSummary(tmp, summaries); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish export file: %w", err)
	}
	return path, nil
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
