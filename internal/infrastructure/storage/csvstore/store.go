// Package csvstore keeps the event log in a single flat CSV file.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/infrastructure/storage/schema"
	"TimeTracker/internal/ports"
)

// Store appends to and rewrites one CSV file. The mutex serializes writers in
// this process only; other processes writing the same file are not detected.
type Store struct {
	path   string
	loc    *time.Location
	logger *slog.Logger
	mu     sync.Mutex
}

var _ ports.EventStore = (*Store)(nil)

// New prepares the parent directory; the file itself is created on first append.
func New(path string, loc *time.Location, logger *slog.Logger) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, unavailable("create data directory", err)
		}
	}
	return &Store{path: path, loc: loc, logger: logger}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Append writes one row, adding the header when the file is new or empty.
func (s *Store) Append(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkHeader(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return unavailable("open event log", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return unavailable("stat event log", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(schema.Header); err != nil {
			_ = f.Close()
			return unavailable("write header", err)
		}
	}
	if err := w.Write(schema.Record(event, s.loc)); err != nil {
		_ = f.Close()
		return unavailable("write event", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return unavailable("flush event", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return unavailable("sync event log", err)
	}
	if err := f.Close(); err != nil {
		return unavailable("close event log", err)
	}
	return nil
}

// AllEvents loads every row in file order. A missing file is an empty log.
func (s *Store) AllEvents(ctx context.Context) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// DeleteByItem rewrites the file without the item's rows.
func (s *Store) DeleteByItem(ctx context.Context, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}

	kept := events[:0]
	for _, ev := range events {
		if ev.ItemID != itemID {
			kept = append(kept, ev)
		}
	}
	return s.rewrite(kept)
}

// ClearAll truncates the log to its header.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rewrite(nil)
}

func (s *Store) load() ([]domain.Event, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Event{}, nil
	}
	if err != nil {
		return nil, unavailable("read event log", err)
	}

	res, err := schema.Decode(bytes.NewReader(raw), s.loc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	for _, issue := range res.Issues {
		s.warn("malformed event log cell", "line", issue.Line, "column", issue.Column, "value", issue.Value, "error", issue.Err)
	}
	return res.Events, nil
}

// checkHeader refuses to append under a header the loader would reject.
func (s *Store) checkHeader() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return unavailable("open event log", err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return unavailable("read header", err)
	}
	if _, err := schema.Detect(header); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	return nil
}

// rewrite replaces the file through a temporary sibling and a rename.
func (s *Store) rewrite(events []domain.Event) error {
	var buf bytes.Buffer
	if err := schema.Encode(&buf, events, s.loc); err != nil {
		return unavailable("encode event log", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return unavailable("create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		cleanup()
		return unavailable("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return unavailable("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return unavailable("close temp file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return unavailable("replace event log", err)
	}
	return nil
}

func (s *Store) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
