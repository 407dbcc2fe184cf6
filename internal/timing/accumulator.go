// Package timing reconstructs active time from the event log.
package timing

import (
	"sort"
	"time"

	"TimeTracker/internal/domain"
)

// Accumulate replays one already-selected partition of events and returns the
// active time it represents. Start and Resume open an interval (the latest one
// wins), Pause and Stop close it. A close without an open interval is ignored
// and an interval still open at the end contributes nothing. Events without a
// parseable timestamp cannot be ordered and are skipped.
func Accumulate(events []domain.Event) domain.StageDuration {
	var result domain.StageDuration
	if len(events) > 0 {
		result.Stage = events[0].Stage
	}

	var open time.Time
	for _, ev := range ordered(events) {
		ts := ev.Timestamp
		switch ev.Action {
		case domain.ActionStart:
			result.LastStart = ts
		case domain.ActionPause:
			result.LastPause = ts
		case domain.ActionResume:
			result.LastResume = ts
		case domain.ActionStop:
			result.LastStop = ts
		default:
			continue
		}

		switch {
		case ev.Action.Opens():
			open = ts
		case ev.Action.Closes() && !open.IsZero():
			result.Total += ts.Sub(open)
			open = time.Time{}
		}
	}

	result.Total = result.Total.Truncate(time.Second)
	return result
}

// StageTotal selects the (itemID, stage) partition and accumulates it.
func StageTotal(events []domain.Event, itemID string, stage domain.Stage) domain.StageDuration {
	d := Accumulate(Select(events, Key{ItemID: itemID, Stage: stage}))
	d.Stage = stage
	return d
}

// Key selects a partition. An empty Employee matches every employee.
type Key struct {
	Employee string
	ItemID   string
	Stage    domain.Stage
}

// Select returns the events of one partition in their original order.
func Select(events []domain.Event, key Key) []domain.Event {
	var out []domain.Event
	for _, ev := range events {
		if ev.ItemID != key.ItemID || ev.Stage != key.Stage {
			continue
		}
		if key.Employee != "" && ev.Employee != key.Employee {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// ordered drops untimed events and sorts the rest by timestamp, store sequence
// and action rank, so the result does not depend on the input order.
func ordered(events []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		if ev.HasTime() {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.Action.Rank() < b.Action.Rank()
	})
	return out
}
