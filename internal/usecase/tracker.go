package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/logging"
	"TimeTracker/internal/observability"
	"TimeTracker/internal/ports"
	"TimeTracker/internal/session"
	"TimeTracker/internal/timing"
)

// TrackerDeps wires all driven adapters into the tracker.
type TrackerDeps struct {
	Store    ports.EventStore
	Auth     ports.Authenticator
	Exporter ports.SummaryExporter
	Sessions *session.Registry
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Tracker implements every user interaction. All operations that touch the
// store or a session's drafts run under one mutex: the store performs
// read-modify-write cycles on a single file and assumes a single writer.
type Tracker struct {
	store    ports.EventStore
	auth     ports.Authenticator
	exporter ports.SummaryExporter
	sessions *session.Registry
	clock    ports.Clock
	logger   *slog.Logger

	mu sync.Mutex
}

// NewTracker constructs the use case.
func NewTracker(deps TrackerDeps) *Tracker {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewRegistry()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{Location: time.Local}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tracker{
		store:    deps.Store,
		auth:     deps.Auth,
		exporter: deps.Exporter,
		sessions: sessions,
		clock:    clock,
		logger:   logger,
	}
}

// Usernames lists the logins offered on the login form.
func (t *Tracker) Usernames() []string {
	return t.auth.Usernames()
}

// Login checks credentials and opens a session.
func (t *Tracker) Login(username, password string) (*session.Session, error) {
	if err := t.auth.Authenticate(username, password); err != nil {
		observability.RecordLogin(false)
		t.logger.Info("login rejected", "user", username)
		return nil, err
	}
	observability.RecordLogin(true)
	s := t.sessions.Create(username, t.auth.IsAdmin(username), t.clock.Now())
	t.logger.Info("login", "user", username, "admin", s.Admin)
	return s, nil
}

// Logout forgets the session.
func (t *Tracker) Logout(token string) {
	t.sessions.Delete(token)
}

// Session resolves a token.
func (t *Tracker) Session(token string) (*session.Session, error) {
	return t.sessions.Get(token)
}

// RowView is a draft row with durations recomputed from the store.
type RowView struct {
	Index int
	Row   domain.ItemRow
	Stage domain.StageDuration
	Item  time.Duration
}

// EmployeeView is everything the employee page shows.
type EmployeeView struct {
	Employee string
	Today    string
	Rows     []RowView
	Events   []domain.Event
}

// EmployeeView seeds the drafts on first use and recomputes every duration.
func (t *Tracker) EmployeeView(ctx context.Context, s *session.Session) (EmployeeView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	events, err := t.load(ctx, "employee_view")
	if err != nil {
		return EmployeeView{}, err
	}
	s.Presenter.Seed(events)

	view := EmployeeView{
		Employee: s.Username,
		Today:    t.clock.Now().Format(domain.DateLayout),
	}
	for i, row := range s.Presenter.Rows() {
		view.Rows = append(view.Rows, RowView{
			Index: i,
			Row:   row,
			Stage: t.stageDuration(events, s.Username, row),
			Item:  timing.ItemTotals(events, s.Username, row.ItemID).Total,
		})
	}

	for _, ev := range events {
		if ev.Employee == s.Username {
			view.Events = append(view.Events, ev)
		}
	}
	sortByTime(view.Events)
	return view, nil
}

// AddRow appends a blank draft.
func (t *Tracker) AddRow(s *session.Session) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return s.Presenter.Add(t.clock.Now().Format(domain.DateLayout))
}

// UpdateRow edits a draft's columns.
func (t *Tracker) UpdateRow(s *session.Session, i int, f session.Fields) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return s.Presenter.Update(i, f)
}

// DeleteRow drops a draft.
func (t *Tracker) DeleteRow(s *session.Session, i int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return s.Presenter.Delete(i)
}

// RecordAction handles an action button: validate, append one event, then
// recompute the row's stage duration from the store.
func (t *Tracker) RecordAction(ctx context.Context, s *session.Session, i int, action domain.Action) (domain.StageDuration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ev, err := s.Presenter.Prepare(i, action, t.clock.Now())
	if err != nil {
		return domain.StageDuration{}, err
	}

	if err := t.store.Append(ctx, ev); err != nil {
		observability.RecordStoreError("append")
		t.logger.Error("append event", "user", s.Username, "item", ev.ItemID, "error", err)
		return domain.StageDuration{}, err
	}
	observability.RecordAppend(string(ev.Action), ev.Timestamp)
	t.logger.Debug("event appended", "user", s.Username, "item", ev.ItemID, "stage", ev.Stage, "action", ev.Action)

	if err := s.Presenter.Commit(i, ev); err != nil {
		return domain.StageDuration{}, err
	}

	events, err := t.load(ctx, "refresh")
	if err != nil {
		return domain.StageDuration{}, err
	}
	row, err := s.Presenter.Row(i)
	if err != nil {
		return domain.StageDuration{}, err
	}
	return t.stageDuration(events, s.Username, row), nil
}

// AdminView is the combined admin page.
type AdminView struct {
	Events    []domain.Event
	Summaries []domain.ItemSummary
	Items     []string
}

// AdminView returns the raw log, the item list and the summary table.
func (t *Tracker) AdminView(ctx context.Context, s *session.Session) (AdminView, error) {
	if err := requireAdmin(s); err != nil {
		return AdminView{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	events, err := t.load(ctx, "admin_view")
	if err != nil {
		return AdminView{}, err
	}

	view := AdminView{Events: events, Summaries: timing.Summarize(events)}
	seen := map[string]bool{}
	for _, ev := range events {
		if ev.ItemID != "" && !seen[ev.ItemID] {
			seen[ev.ItemID] = true
			view.Items = append(view.Items, ev.ItemID)
		}
	}
	sort.Strings(view.Items)
	sortByTime(view.Events)
	return view, nil
}

// RestartItem deletes every event of one item. The caller must confirm.
func (t *Tracker) RestartItem(ctx context.Context, s *session.Session, itemID string, confirmed bool) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return fmt.Errorf("%w: select an IB to restart", domain.ErrValidation)
	}
	if !confirmed {
		return fmt.Errorf("%w: please confirm before restarting", domain.ErrValidation)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.DeleteByItem(ctx, itemID); err != nil {
		observability.RecordStoreError("delete_item")
		t.logger.Error("restart item", "item", itemID, "error", err)
		return err
	}
	observability.RecordPurge("item")
	t.logger.Info("item restarted", "item", itemID, "by", s.Username)
	return nil
}

// ClearAll wipes the log. The caller must confirm.
func (t *Tracker) ClearAll(ctx context.Context, s *session.Session, confirmed bool) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("%w: please confirm before deleting all data", domain.ErrValidation)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.ClearAll(ctx); err != nil {
		observability.RecordStoreError("clear_all")
		t.logger.Error("clear all", "error", err)
		return err
	}
	observability.RecordPurge("all")
	t.logger.Info("event log cleared", "by", s.Username)
	return nil
}

// ExportSummary writes the summary workbook for an admin.
func (t *Tracker) ExportSummary(ctx context.Context, s *session.Session, w io.Writer) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	summaries, err := t.Summaries(ctx)
	if err != nil {
		return err
	}
	return t.exporter.WriteSummary(w, summaries)
}

// Summaries computes the admin summary table.
func (t *Tracker) Summaries(ctx context.Context) ([]domain.ItemSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	events, err := t.load(ctx, "summaries")
	if err != nil {
		return nil, err
	}
	return timing.Summarize(events), nil
}

// Exporter exposes the configured summary exporter.
func (t *Tracker) Exporter() ports.SummaryExporter {
	return t.exporter
}

func (t *Tracker) load(ctx context.Context, op string) ([]domain.Event, error) {
	events, err := t.store.AllEvents(ctx)
	if err != nil {
		observability.RecordStoreError("read")
		t.logger.Error("load events", "op", op, "error", err)
		return nil, err
	}
	return events, nil
}

func (t *Tracker) stageDuration(events []domain.Event, employee string, row domain.ItemRow) domain.StageDuration {
	if row.ItemID == "" {
		return domain.StageDuration{Stage: row.Stage}
	}
	d := timing.Accumulate(timing.Select(events, timing.Key{Employee: employee, ItemID: row.ItemID, Stage: row.Stage}))
	d.Stage = row.Stage
	return d
}

func requireAdmin(s *session.Session) error {
	if s == nil || !s.Admin {
		return domain.ErrForbidden
	}
	return nil
}

// sortByTime orders events for display; untimed rows go last.
func sortByTime(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.HasTime() != b.HasTime() {
			return a.HasTime()
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Seq < b.Seq
	})
}

// IsUserError reports whether err should be shown inline rather than as a
// server failure.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrTransition) ||
		errors.Is(err, domain.ErrInvalidCredentials) ||
		errors.Is(err, domain.ErrUnknownRow)
}
