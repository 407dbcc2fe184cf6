package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"TimeTracker/internal/domain"
)

func TestResolveKnownDrivers(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, name := range []string{"csv", "bolt", "postgres"} {
		driver, err := reg.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%s) returned error: %v", name, err)
		}
		if driver.Name() != name {
			t.Fatalf("expected %s, got %s", name, driver.Name())
		}
	}

	if _, err := reg.Resolve("sqlite"); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenFileDrivers(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	ctx := context.Background()
	dir := t.TempDir()

	for _, name := range []string{"csv", "bolt"} {
		driver, _ := reg.Resolve(name)
		store, closer, err := driver.Open(ctx, Options{Path: filepath.Join(dir, name, "events"), Location: time.UTC})
		if err != nil {
			t.Fatalf("%s: open returned error: %v", name, err)
		}

		ts := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
		ev := domain.Event{Employee: "Bhavani", ItemID: "IB9", Stage: domain.StageAnalyse, Status: domain.StatusInProgress, Action: domain.ActionStart, Timestamp: ts, Date: "2025-03-03"}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("%s: append returned error: %v", name, err)
		}
		events, err := store.AllEvents(ctx)
		if err != nil || len(events) != 1 {
			t.Fatalf("%s: expected 1 event, got %d (%v)", name, len(events), err)
		}
		if err := closer.Close(); err != nil {
			t.Fatalf("%s: close returned error: %v", name, err)
		}
	}
}
