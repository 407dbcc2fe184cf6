// Package session holds per-login working state: the employee's draft item
// rows and their button flags.
package session

import (
	"fmt"
	"strings"
	"time"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/timing"
)

// Fields are the editable columns of a draft row.
type Fields struct {
	ItemID string
	URL    string
	Status domain.Status
	Stage  domain.Stage
}

// Presenter is the draft table of one session. It is not safe for concurrent
// use; callers serialize access.
type Presenter struct {
	employee string
	rows     []domain.ItemRow
	seeded   bool
}

// NewPresenter starts an empty draft table for employee.
func NewPresenter(employee string) *Presenter {
	return &Presenter{employee: employee}
}

// Employee returns the owner of the drafts.
func (p *Presenter) Employee() string {
	return p.employee
}

// Seeded reports whether Seed already ran.
func (p *Presenter) Seeded() bool {
	return p.seeded
}

// Seed adds one draft per item the employee has logged, filled from the
// item's most recent event. Flags are derived from that event's action so the
// buttons match what the log says. Only the first call has an effect.
func (p *Presenter) Seed(events []domain.Event) {
	if p.seeded {
		return
	}
	p.seeded = true

	order, latest := timing.LatestByItem(events, p.employee)
	for _, id := range order {
		ev := latest[id]
		p.rows = append(p.rows, domain.ItemRow{
			ItemID: ev.ItemID,
			URL:    ev.URL,
			Status: ev.Status,
			Stage:  ev.Stage,
			Date:   ev.Date,
			Flags:  FlagsAfter(ev.Action),
		})
	}
}

// Rows returns a copy of the drafts.
func (p *Presenter) Rows() []domain.ItemRow {
	out := make([]domain.ItemRow, len(p.rows))
	copy(out, p.rows)
	return out
}

// Row returns one draft.
func (p *Presenter) Row(i int) (domain.ItemRow, error) {
	if err := p.check(i); err != nil {
		return domain.ItemRow{}, err
	}
	return p.rows[i], nil
}

// Add appends a blank draft and returns its index.
func (p *Presenter) Add(date string) int {
	p.rows = append(p.rows, domain.NewItemRow(date))
	return len(p.rows) - 1
}

// Delete drops a draft. Logged events are not touched.
func (p *Presenter) Delete(i int) error {
	if err := p.check(i); err != nil {
		return err
	}
	p.rows = append(p.rows[:i], p.rows[i+1:]...)
	return nil
}

// Update replaces the editable columns of a draft.
func (p *Presenter) Update(i int, f Fields) error {
	if err := p.check(i); err != nil {
		return err
	}
	if !f.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", domain.ErrValidation, f.Stage)
	}
	row := &p.rows[i]
	row.ItemID = strings.TrimSpace(f.ItemID)
	row.URL = strings.TrimSpace(f.URL)
	row.Status = f.Status
	row.Stage = f.Stage
	return nil
}

// Prepare validates an action button press and returns the event to log. The
// row is left untouched until Commit.
func (p *Presenter) Prepare(i int, action domain.Action, now time.Time) (domain.Event, error) {
	if err := p.check(i); err != nil {
		return domain.Event{}, err
	}
	row := p.rows[i]
	if strings.TrimSpace(row.ItemID) == "" {
		return domain.Event{}, fmt.Errorf("%w: IB name is required", domain.ErrValidation)
	}
	if _, err := Transition(row.Flags, action); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(p.employee, row, action, now), nil
}

// Commit applies the flag change once the event has been stored.
func (p *Presenter) Commit(i int, ev domain.Event) error {
	if err := p.check(i); err != nil {
		return err
	}
	flags, err := Transition(p.rows[i].Flags, ev.Action)
	if err != nil {
		return err
	}
	p.rows[i].Flags = flags
	p.rows[i].Date = ev.Date
	return nil
}

func (p *Presenter) check(i int) error {
	if i < 0 || i >= len(p.rows) {
		return fmt.Errorf("%w: %d", domain.ErrUnknownRow, i)
	}
	return nil
}
