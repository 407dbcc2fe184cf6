package domain

import "time"

// StageDuration is the derived view of one (item, stage) partition.
type StageDuration struct {
	Stage      Stage
	Total      time.Duration
	LastStart  time.Time
	LastPause  time.Time
	LastResume time.Time
	LastStop   time.Time
}

// Seconds returns the accumulated active time in whole seconds.
func (d StageDuration) Seconds() int64 {
	return int64(d.Total / time.Second)
}

// ItemSummary aggregates every stage of one employee's item.
type ItemSummary struct {
	Serial     int
	Employee   string
	ItemID     string
	Date       string
	FirstStart time.Time
	LastStop   time.Time
	Stages     []StageDuration
	Total      time.Duration
}

// Seconds returns the overall total in whole seconds.
func (s ItemSummary) Seconds() int64 {
	return int64(s.Total / time.Second)
}

// Stage returns the duration recorded for st, or a zero value.
func (s ItemSummary) Stage(st Stage) StageDuration {
	for _, d := range s.Stages {
		if d.Stage == st {
			return d
		}
	}
	return StageDuration{Stage: st}
}
