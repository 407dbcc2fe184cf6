package usecase

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/infrastructure/export"
	"TimeTracker/internal/infrastructure/storage/csvstore"
	"TimeTracker/internal/logging"
	"TimeTracker/internal/ports"
	"TimeTracker/internal/session"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeAuth struct{}

func (fakeAuth) Authenticate(username, password string) error {
	if password != username+"-pw" {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (fakeAuth) Usernames() []string { return []string{"admin", "Revathi", "Vijay"} }
func (fakeAuth) IsAdmin(u string) bool { return u == "admin" }

type memoryStore struct {
	mu     sync.Mutex
	events []domain.Event
	seq    uint64
	fail   error
}

var _ ports.EventStore = (*memoryStore)(nil)

func (m *memoryStore) Append(_ context.Context, ev domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.seq++
	ev.Seq = m.seq
	m.events = append(m.events, ev)
	return nil
}

func (m *memoryStore) AllEvents(context.Context) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return append([]domain.Event(nil), m.events...), nil
}

func (m *memoryStore) DeleteByItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, ev := range m.events {
		if ev.ItemID != itemID {
			kept = append(kept, ev)
		}
	}
	m.events = kept
	return nil
}

func (m *memoryStore) ClearAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	return nil
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 3, hour, minute, 0, 0, time.UTC)
}

func newTracker(t *testing.T, store ports.EventStore) (*Tracker, *stepClock) {
	t.Helper()
	clock := &stepClock{now: at(9, 0)}
	return NewTracker(TrackerDeps{
		Store:    store,
		Auth:     fakeAuth{},
		Exporter: export.XLSX{},
		Sessions: session.NewRegistry(),
		Clock:    clock,
		Logger:   logging.Discard(),
	}), clock
}

func login(t *testing.T, tr *Tracker, user string) *session.Session {
	t.Helper()
	s, err := tr.Login(user, user+"-pw")
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	tr, _ := newTracker(t, &memoryStore{})

	_, err := tr.Login("Revathi", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	s := login(t, tr, "Revathi")
	assert.False(t, s.Admin)

	got, err := tr.Session(s.Token)
	require.NoError(t, err)
	assert.Same(t, s, got)

	tr.Logout(s.Token)
	_, err = tr.Session(s.Token)
	require.ErrorIs(t, err, domain.ErrUnknownSession)

	assert.True(t, login(t, tr, "admin").Admin)
}

func TestStartPauseResumeStopEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	store, err := csvstore.New(path, time.UTC, logging.Discard())
	require.NoError(t, err)
	tr, clock := newTracker(t, store)
	ctx := context.Background()

	s := login(t, tr, "Revathi")
	row := tr.AddRow(s)
	require.NoError(t, tr.UpdateRow(s, row, session.Fields{
		ItemID: "IB42",
		URL:    "https://example.org/ib42",
		Status: domain.StatusInProgress,
		Stage:  domain.StageQA,
	}))

	steps := []struct {
		when   time.Time
		action domain.Action
		want   time.Duration
	}{
		{at(9, 0), domain.ActionStart, 0},
		{at(9, 25), domain.ActionPause, 25 * time.Minute},
		{at(9, 40), domain.ActionResume, 25 * time.Minute},
		{at(10, 0), domain.ActionStop, 45 * time.Minute},
	}
	for _, step := range steps {
		clock.Set(step.when)
		d, err := tr.RecordAction(ctx, s, row, step.action)
		require.NoError(t, err, step.action)
		assert.Equal(t, step.want, d.Total, step.action)
	}

	events, err := store.AllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "2025-03-03", events[0].Date)

	admin := login(t, tr, "admin")
	view, err := tr.AdminView(ctx, admin)
	require.NoError(t, err)
	require.Len(t, view.Summaries, 1)
	sum := view.Summaries[0]
	assert.Equal(t, 1, sum.Serial)
	assert.Equal(t, "Revathi", sum.Employee)
	assert.Equal(t, 45*time.Minute, sum.Total)
	assert.Equal(t, 45*time.Minute, sum.Stage(domain.StageQA).Total)
	assert.Equal(t, []string{"IB42"}, view.Items)

	// A fresh login reseeds the drafts from the log.
	again := login(t, tr, "Revathi")
	ev, err := tr.EmployeeView(ctx, again)
	require.NoError(t, err)
	require.Len(t, ev.Rows, 1)
	assert.Equal(t, "IB42", ev.Rows[0].Row.ItemID)
	assert.True(t, ev.Rows[0].Row.Flags.Stopped)
	assert.Equal(t, 45*time.Minute, ev.Rows[0].Stage.Total)
	assert.Len(t, ev.Events, 4)
}

func TestRecordActionRejectsInvalidTransition(t *testing.T) {
	store := &memoryStore{}
	tr, _ := newTracker(t, store)
	ctx := context.Background()

	s := login(t, tr, "Vijay")
	row := tr.AddRow(s)

	_, err := tr.RecordAction(ctx, s, row, domain.ActionStart)
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, tr.UpdateRow(s, row, session.Fields{ItemID: "IB1", Status: domain.StatusHold, Stage: domain.StageQA}))
	_, err = tr.RecordAction(ctx, s, row, domain.ActionPause)
	require.ErrorIs(t, err, domain.ErrTransition)

	_, err = tr.RecordAction(ctx, s, 7, domain.ActionStart)
	require.ErrorIs(t, err, domain.ErrUnknownRow)

	assert.Empty(t, store.events)
}

func TestRecordActionStoreFailureKeepsFlags(t *testing.T) {
	store := &memoryStore{fail: errors.Join(domain.ErrStoreUnavailable, errors.New("disk full"))}
	tr, _ := newTracker(t, store)

	s := login(t, tr, "Vijay")
	row := tr.AddRow(s)
	require.NoError(t, tr.UpdateRow(s, row, session.Fields{ItemID: "IB1", Status: domain.StatusInProgress, Stage: domain.StageQA}))

	_, err := tr.RecordAction(context.Background(), s, row, domain.ActionStart)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.False(t, IsUserError(err))

	r, err := s.Presenter.Row(row)
	require.NoError(t, err)
	assert.False(t, r.Flags.Active)
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	tr, _ := newTracker(t, &memoryStore{})
	ctx := context.Background()
	s := login(t, tr, "Revathi")

	_, err := tr.AdminView(ctx, s)
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.ErrorIs(t, tr.RestartItem(ctx, s, "IB1", true), domain.ErrForbidden)
	require.ErrorIs(t, tr.ClearAll(ctx, s, true), domain.ErrForbidden)
	require.ErrorIs(t, tr.ExportSummary(ctx, s, &bytes.Buffer{}), domain.ErrForbidden)
}

func TestRestartAndClear(t *testing.T) {
	store := &memoryStore{}
	tr, clock := newTracker(t, store)
	ctx := context.Background()

	s := login(t, tr, "Revathi")
	for _, id := range []string{"IB1", "IB2"} {
		row := tr.AddRow(s)
		require.NoError(t, tr.UpdateRow(s, row, session.Fields{ItemID: id, Status: domain.StatusInProgress, Stage: domain.StageAnalyse}))
		clock.Set(at(10, 0))
		_, err := tr.RecordAction(ctx, s, row, domain.ActionStart)
		require.NoError(t, err)
		clock.Set(at(10, 30))
		_, err = tr.RecordAction(ctx, s, row, domain.ActionStop)
		require.NoError(t, err)
	}

	admin := login(t, tr, "admin")

	err := tr.RestartItem(ctx, admin, "IB1", false)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, IsUserError(err))
	require.Len(t, store.events, 4)

	require.NoError(t, tr.RestartItem(ctx, admin, "IB1", true))
	view, err := tr.AdminView(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"IB2"}, view.Items)
	require.Len(t, view.Summaries, 1)

	require.ErrorIs(t, tr.ClearAll(ctx, admin, false), domain.ErrValidation)
	require.NoError(t, tr.ClearAll(ctx, admin, true))
	view, err = tr.AdminView(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, view.Events)
	assert.Empty(t, view.Summaries)
}

func TestExportSummary(t *testing.T) {
	store := &memoryStore{}
	tr, clock := newTracker(t, store)
	ctx := context.Background()

	s := login(t, tr, "Revathi")
	row := tr.AddRow(s)
	require.NoError(t, tr.UpdateRow(s, row, session.Fields{ItemID: "IB42", Status: domain.StatusInProgress, Stage: domain.StageExtraction}))
	clock.Set(at(10, 0))
	_, err := tr.RecordAction(ctx, s, row, domain.ActionStart)
	require.NoError(t, err)
	clock.Set(at(10, 45))
	_, err = tr.RecordAction(ctx, s, row, domain.ActionStop)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tr.ExportSummary(ctx, login(t, tr, "admin"), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "IB42", rows[1][3])
	assert.Equal(t, "45", rows[1][len(rows[1])-1])
}
