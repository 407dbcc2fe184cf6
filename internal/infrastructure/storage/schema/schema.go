// Package schema reads and writes the tabular event log layout.
package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"TimeTracker/internal/domain"
)

// TimeLayout is used when writing the Time column.
const TimeLayout = "2006-01-02 15:04:05"

// Version identifies an event log layout.
type Version int

const (
	VersionUnknown Version = iota
	// VersionLegacy is the Process/Status layout of the first tool.
	VersionLegacy
	// VersionActions is the Stage/Action layout.
	VersionActions
)

func (v Version) String() string {
	switch v {
	case VersionLegacy:
		return "legacy"
	case VersionActions:
		return "actions"
	default:
		return "unknown"
	}
}

// Column names of the current layout, in file order.
const (
	ColEmployee = "Employee"
	ColItem     = "IB"
	ColURL      = "URL"
	ColStatus   = "Status"
	ColStage    = "Stage"
	ColAction   = "Action"
	ColTime     = "Time"
	ColDate     = "Date"
)

// Header is written at the top of every new log.
var Header = []string{ColEmployee, ColItem, ColURL, ColStatus, ColStage, ColAction, ColTime, ColDate}

type column struct {
	name     string
	required bool
	// def is used when the column is absent or the cell is blank.
	def string
}

var columns = []column{
	{name: ColEmployee, required: true},
	{name: ColItem, required: true},
	{name: ColURL},
	{name: ColStatus, def: string(domain.StatusInProgress)},
	{name: ColStage, required: true},
	{name: ColAction, required: true},
	{name: ColTime},
	{name: ColDate},
}

var legacyMarkers = []string{"Source Name", "Process", "Updated Time"}

// Issue describes a cell that could not be decoded. The row is still loaded
// with a fallback value.
type Issue struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (i Issue) Error() string {
	return fmt.Sprintf("line %d column %s value %q: %v", i.Line, i.Column, i.Value, i.Err)
}

// Result is the typed outcome of decoding a log.
type Result struct {
	Version Version
	Events  []domain.Event
	Issues  []Issue
}

// Detect inspects a header row.
func Detect(header []string) (Version, error) {
	present := map[string]bool{}
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	legacy := 0
	for _, m := range legacyMarkers {
		if present[m] {
			legacy++
		}
	}
	if legacy == len(legacyMarkers) {
		return VersionLegacy, domain.ErrLegacySchema
	}

	var missing []string
	for _, c := range columns {
		if c.required && !present[c.name] {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return VersionUnknown, fmt.Errorf("%w: missing columns %s", domain.ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return VersionActions, nil
}

// Decode reads a whole log. An empty input yields an empty result.
func Decode(r io.Reader, loc *time.Location) (Result, error) {
	if loc == nil {
		loc = time.Local
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{Version: VersionActions}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}

	version, err := Detect(header)
	if err != nil {
		return Result{Version: version}, err
	}

	index := map[string]int{}
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	res := Result{Version: version}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		ev, issues := decodeRecord(record, index, line, loc)
		ev.Seq = uint64(len(res.Events) + 1)
		res.Events = append(res.Events, ev)
		res.Issues = append(res.Issues, issues...)
	}

	return res, nil
}

func decodeRecord(record []string, index map[string]int, line int, loc *time.Location) (domain.Event, []Issue) {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return defaultFor(name)
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			return defaultFor(name)
		}
		return v
	}

	var issues []Issue
	note := func(col, value string, err error) {
		issues = append(issues, Issue{Line: line, Column: col, Value: value, Err: err})
	}

	ev := domain.Event{
		Employee: cell(ColEmployee),
		ItemID:   cell(ColItem),
		URL:      cell(ColURL),
	}

	raw := cell(ColStatus)
	if st, err := domain.ParseStatus(raw); err == nil {
		ev.Status = st
	} else {
		ev.Status = domain.Status(raw)
		note(ColStatus, raw, err)
	}

	raw = cell(ColStage)
	if st, err := domain.ParseStage(raw); err == nil {
		ev.Stage = st
	} else {
		ev.Stage = domain.Stage(raw)
		note(ColStage, raw, err)
	}

	raw = cell(ColAction)
	if a, err := domain.ParseAction(raw); err == nil {
		ev.Action = a
	} else {
		ev.Action = domain.Action(raw)
		note(ColAction, raw, err)
	}

	raw = cell(ColTime)
	if ts, err := ParseTime(raw, loc); err == nil {
		ev.Timestamp = ts
	} else {
		note(ColTime, raw, err)
	}

	ev.Date = cell(ColDate)
	if ev.Date == "" && ev.HasTime() {
		ev.Date = ev.Timestamp.Format(domain.DateLayout)
	}

	return ev, issues
}

func defaultFor(name string) string {
	for _, c := range columns {
		if c.name == name {
			return c.def
		}
	}
	return ""
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	TimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"02-01-2006 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

// ParseTime accepts the layouts the log has been written with over time.
// Values with an explicit offset are converted into loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.In(loc), nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// Record encodes an event as one row in Header order.
func Record(ev domain.Event, loc *time.Location) []string {
	var ts string
	if ev.HasTime() {
		if loc != nil {
			ts = ev.Timestamp.In(loc).Format(TimeLayout)
		} else {
			ts = ev.Timestamp.Format(TimeLayout)
		}
	}
	return []string{
		ev.Employee,
		ev.ItemID,
		ev.URL,
		string(ev.Status),
		string(ev.Stage),
		string(ev.Action),
		ts,
		ev.Date,
	}
}

// Encode writes a header and every event.
func Encode(w io.Writer, events []domain.Event, loc *time.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ev := range events {
		if err := writer.Write(Record(ev, loc)); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
