//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"TimeTracker/internal/domain"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("timetracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db := waitForDatabase(t, ctx, connStr)
	t.Cleanup(func() { _ = db.Close() })

	runRoundTrip(t, ctx, NewRepository(db, time.UTC))
}

func waitForDatabase(t *testing.T, ctx context.Context, connStr string) *sql.DB {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for {
		db, err := Open(ctx, connStr)
		if err == nil {
			return db
		}
		if time.Now().After(deadline) {
			t.Fatalf("postgres not ready: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func runRoundTrip(t *testing.T, ctx context.Context, repo *Repository) {
	require.NoError(t, repo.EnsureSchema(ctx))

	ts := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	in := domain.Event{
		Employee:  "Revathi",
		ItemID:    "IB42",
		URL:       "https://example.org/42",
		Status:    domain.StatusInProgress,
		Stage:     domain.StageQA,
		Action:    domain.ActionStart,
		Timestamp: ts,
		Date:      "2025-03-03",
	}
	require.NoError(t, repo.Append(ctx, in))
	require.NoError(t, repo.Append(ctx, domain.Event{Employee: "Vijay", ItemID: "IB1", Status: domain.StatusHold, Stage: domain.StageQA, Action: domain.ActionStart}))

	events, err := repo.AllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].Timestamp.Equal(ts))
	require.False(t, events[1].HasTime())

	require.NoError(t, repo.DeleteByItem(ctx, "IB42"))
	events, err = repo.AllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.ClearAll(ctx))
	events, err = repo.AllEvents(ctx)
	require.NoError(t, err)
	require.Empty(t, events)
}
