package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used in the event log and summaries.
const DateLayout = "2006-01-02"

// Stage is one of the eight fixed pipeline steps an item passes through.
type Stage string

const (
	StageAnalyse        Stage = "Analyse"
	StageConfiguration  Stage = "Configuration"
	StageAddSection     Stage = "AddSection"
	StageExtraction     Stage = "Extraction"
	StageSelfQA         Stage = "SelfQA"
	StageQA             Stage = "QA"
	StageErrorClearing  Stage = "ErrorClearing"
	StageQAErrorCleared Stage = "QAErrorCleared"
)

// Stages lists the pipeline in canonical order.
var Stages = []Stage{
	StageAnalyse,
	StageConfiguration,
	StageAddSection,
	StageExtraction,
	StageSelfQA,
	StageQA,
	StageErrorClearing,
	StageQAErrorCleared,
}

var stageLabels = map[Stage]string{
	StageAnalyse:        "Analyse",
	StageConfiguration:  "Configuration",
	StageAddSection:     "Add Section",
	StageExtraction:     "Extraction",
	StageSelfQA:         "Self-QA",
	StageQA:             "QA",
	StageErrorClearing:  "Error Clearing",
	StageQAErrorCleared: "QA (Error Cleared)",
}

// Label returns the human readable stage name.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is one of the canonical stages.
func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// Index returns the position of s in the pipeline or -1 for unknown stages.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStage accepts either the identifier or the display label.
func ParseStage(value string) (Stage, error) {
	key := normalize(value)
	for _, st := range Stages {
		if normalize(string(st)) == key || normalize(st.Label()) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", value)
}

// Action is a timer transition recorded against an item and stage.
type Action string

const (
	ActionStart  Action = "Start"
	ActionPause  Action = "Pause"
	ActionResume Action = "Resume"
	ActionStop   Action = "Stop"
)

// Actions lists every action kind.
var Actions = []Action{ActionStart, ActionPause, ActionResume, ActionStop}

// Opens reports whether the action begins an active interval.
func (a Action) Opens() bool {
	return a == ActionStart || a == ActionResume
}

// Closes reports whether the action ends an active interval.
func (a Action) Closes() bool {
	return a == ActionPause || a == ActionStop
}

// Rank orders actions sharing a timestamp and insertion sequence.
func (a Action) Rank() int {
	switch a {
	case ActionStart:
		return 0
	case ActionResume:
		return 1
	case ActionPause:
		return 2
	case ActionStop:
		return 3
	default:
		return 4
	}
}

// ParseAction is case-insensitive.
func ParseAction(value string) (Action, error) {
	key := normalize(value)
	for _, a := range Actions {
		if normalize(string(a)) == key {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", value)
}

// Status is a user-set progress label, independent of Action.
type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusHold       Status = "Hold"
	StatusDevHelp    Status = "DevHelp"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every status label in display order.
var Statuses = []Status{StatusInProgress, StatusHold, StatusDevHelp, StatusCompleted}

var statusLabels = map[Status]string{
	StatusInProgress: "In Progress",
	StatusHold:       "Hold",
	StatusDevHelp:    "Dev Help",
	StatusCompleted:  "Completed",
}

// Label returns the human readable status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseStatus accepts either the identifier or the display label.
func ParseStatus(value string) (Status, error) {
	key := normalize(value)
	for _, st := range Statuses {
		if normalize(string(st)) == key || normalize(st.Label()) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// Event is a single immutable row of the event log.
type Event struct {
	// Seq is assigned by the store and reflects insertion order.
	Seq       uint64    `json:"seq"`
	Employee  string    `json:"employee"`
	ItemID    string    `json:"item_id"`
	URL       string    `json:"url"`
	Status    Status    `json:"status"`
	Stage     Stage     `json:"stage"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
}

// HasTime is false for rows whose timestamp could not be parsed.
func (e Event) HasTime() bool {
	return !e.Timestamp.IsZero()
}

// NewEvent stamps an event and derives its calendar date in the timestamp's zone.
func NewEvent(employee string, row ItemRow, action Action, at time.Time) Event {
	return Event{
		Employee:  employee,
		ItemID:    strings.TrimSpace(row.ItemID),
		URL:       strings.TrimSpace(row.URL),
		Status:    row.Status,
		Stage:     row.Stage,
		Action:    action,
		Timestamp: at,
		Date:      at.Format(DateLayout),
	}
}

func normalize(value string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "", "(", "", ")", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(value)))
}
