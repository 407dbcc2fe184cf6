package timing

import (
	"sort"

	"TimeTracker/internal/domain"
)

// ItemTotals computes every stage of one employee's item plus the overall
// total. An empty employee aggregates the item across employees.
func ItemTotals(events []domain.Event, employee, itemID string) domain.ItemSummary {
	summary := domain.ItemSummary{Employee: employee, ItemID: itemID}
	var scoped []domain.Event
	for _, ev := range events {
		if ev.ItemID != itemID || !ev.Stage.Valid() || (employee != "" && ev.Employee != employee) {
			continue
		}
		scoped = append(scoped, ev)
	}

	for _, st := range domain.Stages {
		d := Accumulate(Select(scoped, Key{ItemID: itemID, Stage: st}))
		d.Stage = st
		summary.Stages = append(summary.Stages, d)
		summary.Total += d.Total
	}

	for _, ev := range ordered(scoped) {
		if summary.Date == "" {
			summary.Date = ev.Date
		}
		if ev.Action == domain.ActionStart && summary.FirstStart.IsZero() {
			summary.FirstStart = ev.Timestamp
		}
		if ev.Action == domain.ActionStop {
			summary.LastStop = ev.Timestamp
		}
	}
	if summary.Date == "" && len(scoped) > 0 {
		summary.Date = scoped[0].Date
	}
	return summary
}

// Summarize groups the log by (employee, item) and numbers the rows.
func Summarize(events []domain.Event) []domain.ItemSummary {
	type groupKey struct{ employee, item string }

	seen := map[groupKey]bool{}
	var keys []groupKey
	for _, ev := range events {
		if !ev.Stage.Valid() {
			continue
		}
		k := groupKey{ev.Employee, ev.ItemID}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	summaries := make([]domain.ItemSummary, 0, len(keys))
	for _, k := range keys {
		summaries = append(summaries, ItemTotals(events, k.employee, k.item))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Employee != b.Employee {
			return a.Employee < b.Employee
		}
		return a.ItemID < b.ItemID
	})
	for i := range summaries {
		summaries[i].Serial = i + 1
	}
	return summaries
}

// LatestByItem returns the most recent event of every item logged by employee,
// keyed by item id, together with the item ids in first-logged order.
func LatestByItem(events []domain.Event, employee string) ([]string, map[string]domain.Event) {
	latest := map[string]domain.Event{}
	var order []string
	for _, ev := range events {
		if ev.Employee != employee || ev.ItemID == "" {
			continue
		}
		cur, ok := latest[ev.ItemID]
		if !ok {
			order = append(order, ev.ItemID)
			latest[ev.ItemID] = ev
			continue
		}
		if newer(ev, cur) {
			latest[ev.ItemID] = ev
		}
	}
	return order, latest
}

func newer(a, b domain.Event) bool {
	if a.HasTime() != b.HasTime() {
		return a.HasTime()
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Seq >= b.Seq
}
