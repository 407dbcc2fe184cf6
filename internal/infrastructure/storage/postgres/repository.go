// Package postgres persists the event log in a Postgres table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/ports"
)

const table = "time_events"

const createTable = `CREATE TABLE IF NOT EXISTS time_events (
    id          BIGSERIAL PRIMARY KEY,
    employee    TEXT NOT NULL,
    item_id     TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    stage       TEXT NOT NULL,
    action      TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NULL,
    event_date  TEXT NOT NULL DEFAULT ''
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository implements ports.EventStore on a sql.DB.
type Repository struct {
	db  *sql.DB
	loc *time.Location
}

var _ ports.EventStore = (*Repository)(nil)

// NewRepository wires a sql.DB implementation. Timestamps are read back in loc.
func NewRepository(db *sql.DB, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.Local
	}
	return &Repository{db: db, loc: loc}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, unavailable("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("ping postgres", err)
	}
	return db, nil
}

// EnsureSchema creates the events table when it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTable); err != nil {
		return unavailable("create table", err)
	}
	return nil
}

// Append inserts one row.
func (r *Repository) Append(ctx context.Context, event domain.Event) error {
	query, args, err := insertQuery(event)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("insert event", err)
	}
	return nil
}

// AllEvents returns every row ordered by id.
func (r *Repository) AllEvents(ctx context.Context) ([]domain.Event, error) {
	query, args, err := selectQuery()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query events", err)
	}

	events := []domain.Event{}
	for rows.Next() {
		var (
			ev     domain.Event
			seq    int64
			status string
			stage  string
			action string
			at     sql.NullTime
		)
		if err := rows.Scan(&seq, &ev.Employee, &ev.ItemID, &ev.URL, &status, &stage, &action, &at, &ev.Date); err != nil {
			_ = rows.Close()
			return nil, unavailable("scan event", err)
		}
		ev.Seq = uint64(seq)
		ev.Status = domain.Status(status)
		ev.Stage = domain.Stage(stage)
		ev.Action = domain.Action(action)
		if at.Valid {
			ev.Timestamp = at.Time.In(r.loc)
		}
		events = append(events, ev)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, unavailable("rows iteration", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, unavailable("close rows", closeErr)
	}
	return events, nil
}

// DeleteByItem removes every row of the item.
func (r *Repository) DeleteByItem(ctx context.Context, itemID string) error {
	query, args, err := deleteQuery(itemID)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("delete item", err)
	}
	return nil
}

// ClearAll removes every row.
func (r *Repository) ClearAll(ctx context.Context) error {
	query, args, err := psql.Delete(table).ToSql()
	if err != nil {
		return fmt.Errorf("build clear: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("clear events", err)
	}
	return nil
}

func insertQuery(ev domain.Event) (string, []interface{}, error) {
	var at interface{}
	if ev.HasTime() {
		at = ev.Timestamp
	}
	return psql.Insert(table).
		Columns("employee", "item_id", "url", "status", "stage", "action", "occurred_at", "event_date").
		Values(ev.Employee, ev.ItemID, ev.URL, string(ev.Status), string(ev.Stage), string(ev.Action), at, ev.Date).
		ToSql()
}

func selectQuery() (string, []interface{}, error) {
	return psql.Select("id", "employee", "item_id", "url", "status", "stage", "action", "occurred_at", "event_date").
		From(table).
		OrderBy("id").
		ToSql()
}

func deleteQuery(itemID string) (string, []interface{}, error) {
	return psql.Delete(table).Where(sq.Eq{"item_id": itemID}).ToSql()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
