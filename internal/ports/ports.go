package ports

import (
	"context"
	"io"
	"time"

	"TimeTracker/internal/domain"
)

// EventStore is the append-only event log. Implementations wrap I/O failures
// with domain.ErrStoreUnavailable.
type EventStore interface {
	Append(ctx context.Context, event domain.Event) error
	AllEvents(ctx context.Context) ([]domain.Event, error)
	DeleteByItem(ctx context.Context, itemID string) error
	ClearAll(ctx context.Context) error
}

// SummaryExporter renders admin summaries into a downloadable document.
type SummaryExporter interface {
	WriteSummary(w io.Writer, summaries []domain.ItemSummary) error
	ContentType() string
	FileName() string
}

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(username, password string) error
	Usernames() []string
	IsAdmin(username string) bool
}

// Clock supplies the current instant in the configured zone.
type Clock interface {
	Now() time.Time
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
